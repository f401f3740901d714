package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"SwapSentinel/internal/config"
	"SwapSentinel/internal/exchange"
	"SwapSentinel/internal/interpreter"
	"SwapSentinel/internal/naming"
	"SwapSentinel/internal/notifier"
	"SwapSentinel/internal/orchestrator"
	"SwapSentinel/internal/pricefeed"
	"SwapSentinel/internal/store"
	"SwapSentinel/internal/wallet"
	"SwapSentinel/internal/worker"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] SwapSentinel starting...")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Persistence
	db, err := store.NewStore(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] open store: %v", err)
	}
	defer db.Close()

	// Collaborators
	venue := exchange.NewSideShiftVenue(cfg.Exchange.BaseURL, cfg.Exchange.Secret, cfg.Exchange.AffiliateID, cfg.Proxy)
	log.Printf("[INFO] exchange venue: %s", venue.Name())

	feed := pricefeed.NewCoinGeckoFeed(cfg.PriceFeed.BaseURL, cfg.PriceFeed.APIKey, cfg.Proxy)
	log.Printf("[INFO] price feed: %s", feed.Name())

	resolver := naming.NewHTTPResolver(cfg.Naming.BaseURL, cfg.Naming.APIKey, cfg.Proxy)

	var w wallet.Wallet = wallet.NoopWallet{}
	if cfg.Wallet.BaseURL != "" {
		w = wallet.NewRESTWallet(cfg.Wallet.BaseURL, cfg.Wallet.APIKey, cfg.Proxy)
	}

	llm := interpreter.NewHTTPClient(cfg.LLM.Endpoint, cfg.LLM.APIKey, cfg.LLM.Model, cfg.Proxy)
	fallback := interpreter.New(llm)

	orch := orchestrator.New(db, venue, resolver, fallback, feed, w)

	// Telegram transport
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Proxy)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Workers
	sched := worker.NewScheduler(ctx, db, venue, feed, tn)
	if err := sched.RegisterAll(cfg.Schedule.LimitOrderCron, cfg.Schedule.PlanCron, cfg.Schedule.WatchCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, orch.HandleMessage, orch.HandleAction)
	log.Println("[INFO] Telegram polling started")

	log.Println("[INFO] SwapSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] SwapSentinel stopped")
}
