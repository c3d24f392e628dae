// README: Entry point; loads config, wires services, starts HTTP server and session cleanup.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mesa/internal/ai"
	"mesa/internal/config"
	httptransport "mesa/internal/http"
	"mesa/internal/infra"
	"mesa/internal/logging"
	"mesa/internal/modules/booking"
	"mesa/internal/modules/dialog"
	"mesa/internal/modules/knowledge"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	provider, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
	if err != nil {
		logger.Fatal("gemini init failed", zap.Error(err))
	}
	defer provider.Close()

	getin := booking.NewClient(cfg.Getin.BaseURL, cfg.Getin.APIKey, cfg.Getin.Timeout)
	gateway := booking.NewService(getin, cfg.Getin.UnitID, logger)

	knowledgeStore := knowledge.NewStore(dbPool)
	retriever := knowledge.NewService(knowledgeStore, provider, logger)
	if err := retriever.Load(ctx); err != nil {
		logger.Warn("knowledge corpus load failed, FAQ answers degraded until ingestion", zap.Error(err))
	}

	sessions := dialog.NewStore(redisClient, cfg.Dialogue.SessionTTL, cfg.Dialogue.MaxTurns, logger)
	dialogSvc := dialog.NewService(sessions, provider, gateway, retriever, dialog.Policy{
		ConfidenceThreshold: cfg.Dialogue.ConfidenceThreshold,
		ImplicitConfirm:     cfg.Dialogue.ImplicitConfirm,
		TopK:                cfg.Retrieval.TopK,
	}, logger)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Dialog:    dialogSvc,
		Knowledge: retriever,
		APIKey:    cfg.HTTP.APIKey,
		Log:       logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go sessions.RunCleanup(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("mesa api listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
