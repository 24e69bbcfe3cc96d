package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tokenwatch/internal/bot"
	"tokenwatch/internal/cache"
	"tokenwatch/internal/config"
	"tokenwatch/internal/db"
	"tokenwatch/internal/handler"
	"tokenwatch/internal/job"
	"tokenwatch/internal/provider"
	"tokenwatch/internal/registry"
	"tokenwatch/internal/repository"
	"tokenwatch/internal/service"
	"tokenwatch/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "tokenwatch/docs"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initTracerFunc   = tracing.InitTracer
	connectRedisFunc = cache.Connect
	newPrimaryFunc   = func(tracer trace.Tracer, reg *registry.Registry, apiKey string) service.PrimaryProvider {
		return provider.NewCMCProvider(tracer, reg, apiKey)
	}
	newEODFunc = func(tracer trace.Tracer, apiKey string) service.EODProvider {
		return provider.NewPolygonProvider(tracer, apiKey)
	}
	newFallbackFunc = func(tracer trace.Tracer, reg *registry.Registry) service.FallbackProvider {
		return provider.NewCoinGeckoProvider(tracer, reg)
	}
	newSnapshotServiceFunc = service.NewSnapshotService
	newMarketPollerFunc    = job.NewMarketPoller
	startPollerFunc        = func(p *job.MarketPoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Tokenwatch API
// @version         1.0
// @description     Market data aggregation and threshold alert engine.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	initPostgresFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	reg := registry.NewDefault()

	var store cache.Store = cache.NewMemory()
	if cfg.RedisURL != "" {
		redisStore, err := connectRedisFunc(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		log.Println("Connected to Redis")
		store = redisStore
	}

	primary := newPrimaryFunc(tracer, reg, cfg.CMCAPIKey)
	eod := newEODFunc(tracer, cfg.PolygonAPIKey)
	fallback := newFallbackFunc(tracer, reg)

	snapshotService := newSnapshotServiceFunc(tracer, reg, primary, eod, fallback, store,
		time.Duration(cfg.SnapshotTTLSecs)*time.Second,
		time.Duration(cfg.EODTTLSecs)*time.Second,
	)

	var historyReader handler.HistoryReader
	var historyRecorder job.HistoryRecorder
	if db.Pool != nil {
		historyRepo := repository.NewHistoryRepository(db.Pool, tracer)
		if err := historyRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		historyReader = historyRepo
		historyRecorder = historyRepo
	}

	var notifier job.AlertNotifier
	if tgBot := startTelegramBotFunc(snapshotService, reg, cfg.TelegramChatID); tgBot != nil {
		notifier = tgBot
	}

	poller := newMarketPollerFunc(tracer, snapshotService, historyRecorder, notifier, cfg.PollSecs)
	startPollerFunc(poller, ctx)

	h := newHandlerFunc(tracer, snapshotService, historyReader, reg, cfg.DefaultSymbols)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("tokenwatch"))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
