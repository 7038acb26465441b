package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/dompetdev/dompetbot/internal/auth"
	"github.com/dompetdev/dompetbot/internal/bot"
	"github.com/dompetdev/dompetbot/internal/charts"
	"github.com/dompetdev/dompetbot/internal/config"
	"github.com/dompetdev/dompetbot/internal/parser"
	"github.com/dompetdev/dompetbot/internal/repository"
	"github.com/dompetdev/dompetbot/internal/server"
	"github.com/dompetdev/dompetbot/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer store.Close()

	if err := store.Seed(ctx); err != nil {
		log.Fatalf("seed database: %v", err)
	}

	authSvc := auth.NewService(store.DB())
	finance := service.NewFinance(store)
	ruleParser := parser.NewRuleParser(store)
	engine := bot.NewEngine(finance, authSvc, ruleParser, charts.NewGenerator())

	tg, err := bot.New(cfg.TelegramToken, cfg.AllowedUser, engine, store)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}

	var webhook server.WebhookHandler
	if cfg.WebhookURL != "" {
		webhook = tg
	}
	api := server.New(authSvc, finance, store, tg, webhook)

	go func() {
		if err := api.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
			log.Printf("server: %v", err)
			stop()
		}
	}()

	if webhook != nil {
		log.Printf("bot: webhook mode, updates arrive via %s", cfg.WebhookURL)
		<-ctx.Done()
		return
	}

	tg.Start(ctx)
}
