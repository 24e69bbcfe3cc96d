package docs

import (
	"strings"
	"testing"
)

func TestSwaggerInfoRegistered(t *testing.T) {
	if SwaggerInfo == nil {
		t.Fatal("swagger info not initialized")
	}
	if SwaggerInfo.Title != "Tokenwatch API" {
		t.Fatalf("unexpected title: %s", SwaggerInfo.Title)
	}
	for _, path := range []string{"/api/market/snapshot", "/api/market/alerts", "/api/symbols"} {
		if !strings.Contains(docTemplate, path) {
			t.Errorf("doc template missing path %s", path)
		}
	}
}
