// README: Interactive terminal chat against the dialogue service.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mesa/internal/ai"
	"mesa/internal/config"
	"mesa/internal/infra"
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
	// The chat prompt shares stdout; keep service logging silent here.
	logger := zap.NewNop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	provider, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
	if err != nil {
		log.Fatal(err)
	}
	defer provider.Close()

	getin := booking.NewClient(cfg.Getin.BaseURL, cfg.Getin.APIKey, cfg.Getin.Timeout)
	gateway := booking.NewService(getin, cfg.Getin.UnitID, logger)

	retriever := knowledge.NewService(knowledge.NewStore(dbPool), provider, logger)
	_ = retriever.Load(ctx)

	sessions := dialog.NewStore(infra.NewRedis(cfg.Redis.Addr), cfg.Dialogue.SessionTTL, cfg.Dialogue.MaxTurns, logger)
	dialogSvc := dialog.NewService(sessions, provider, gateway, retriever, dialog.Policy{
		ConfidenceThreshold: cfg.Dialogue.ConfidenceThreshold,
		ImplicitConfirm:     cfg.Dialogue.ImplicitConfirm,
		TopK:                cfg.Retrieval.TopK,
	}, logger)

	debug := os.Getenv("MESA_CHAT_DEBUG") != ""

	fmt.Println("Assistente de reservas. Digite 'sair' para encerrar.")
	scanner := bufio.NewScanner(os.Stdin)
	sessionID := ""
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "sair", "exit", "quit":
			if sessionID != "" {
				_ = dialogSvc.EndSession(ctx, sessionID)
			}
			fmt.Println("Até logo!")
			return
		}
		res, err := dialogSvc.Turn(ctx, sessionID, line)
		if err != nil {
			fmt.Println("erro:", err)
			continue
		}
		sessionID = res.SessionID
		fmt.Println(res.Reply)
		if debug {
			fmt.Printf("[debug] state=%s intent=%s missing=%v\n", res.State, res.Intent, res.MissingSlots)
		}
	}
}
