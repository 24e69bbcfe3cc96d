package registry

import "testing"

func TestDefaultRegistryResolves(t *testing.T) {
	t.Parallel()
	reg := NewDefault()

	if id, ok := reg.CMCID("BTC"); !ok || id != 1 {
		t.Fatalf("expected BTC CMC ID 1, got %d ok=%v", id, ok)
	}
	if ticker, ok := reg.PolygonTicker("ETH"); !ok || ticker != "X:ETHUSD" {
		t.Fatalf("unexpected ETH ticker: %s ok=%v", ticker, ok)
	}
	if slug, ok := reg.CoinGeckoSlug("AVAX"); !ok || slug != "avalanche-2" {
		t.Fatalf("unexpected AVAX slug: %s ok=%v", slug, ok)
	}
}

func TestUnsupportedIsSkipSignalNotError(t *testing.T) {
	t.Parallel()
	reg := NewDefault()

	// TAO is curated without a Polygon ticker: unsupported by that provider.
	if _, ok := reg.PolygonTicker("TAO"); ok {
		t.Fatal("TAO should be unsupported by polygon")
	}
	if _, ok := reg.CMCID("TAO"); !ok {
		t.Fatal("TAO should still resolve for CMC")
	}
	if _, ok := reg.CMCID("NOPE"); ok {
		t.Fatal("unregistered symbol should not resolve")
	}
}

func TestAddValidatesSymbol(t *testing.T) {
	t.Parallel()
	reg := New()

	if err := reg.Add("btc", Mapping{}); err == nil {
		t.Fatal("lowercase symbol should be rejected")
	}
	if err := reg.Add("B", Mapping{}); err == nil {
		t.Fatal("one-char symbol should be rejected")
	}
	if err := reg.Add("PEPE", Mapping{CoinGeckoSlug: "pepe"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reg.Has("PEPE") {
		t.Fatal("PEPE should be registered")
	}
}

func TestAddRejectsRedefinition(t *testing.T) {
	t.Parallel()
	reg := NewDefault()

	if err := reg.Add("BTC", Mapping{CMCID: 999}); err == nil {
		t.Fatal("re-registering BTC should fail")
	}
	if id, _ := reg.CMCID("BTC"); id != 1 {
		t.Fatalf("BTC mapping must be immutable, got %d", id)
	}
}

func TestSymbolsPreservesOrder(t *testing.T) {
	t.Parallel()
	reg := NewDefault()

	symbols := reg.Symbols()
	if len(symbols) != len(defaultOrder) {
		t.Fatalf("expected %d symbols, got %d", len(defaultOrder), len(symbols))
	}
	if symbols[0] != "BTC" || symbols[1] != "ETH" {
		t.Fatalf("unexpected order: %v", symbols[:2])
	}

	if err := reg.Add("PEPE", Mapping{CoinGeckoSlug: "pepe"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	symbols = reg.Symbols()
	if symbols[len(symbols)-1] != "PEPE" {
		t.Fatal("added symbol should be appended to the order")
	}
}
