package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/alerts"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/assistant"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/bot"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/config"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/llm"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/logger"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/memory"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/server"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/storage"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/transcript"
)

func init() {
	godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	model, err := llm.New(llm.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		logger.Fatal("failed to create llm", "error", err)
	}

	store := memory.NewStore(cfg.Memory.StoreConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var archives memory.MultiArchiver
	var transcripts *transcript.Store
	var storageClient *storage.Client

	if cfg.Archive.TranscriptDB != "" {
		db, err := transcript.Open(cfg.Archive.TranscriptDB)
		if err != nil {
			logger.Fatal("failed to open transcript db", "error", err)
		}

		transcripts, err = transcript.NewStore(db)
		if err != nil {
			logger.Fatal("failed to create transcript store", "error", err)
		}
		defer transcripts.Close()

		archived, err := transcripts.Count(ctx)
		if err != nil {
			logger.Fatal("failed to read transcript archive", "error", err)
		}

		archives = append(archives, transcripts)
		logger.Info("transcript archive enabled", "path", cfg.Archive.TranscriptDB, "archived", archived)
	}

	if cfg.Storage.Enabled() {
		storageClient, err = storage.NewClient(storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
		})
		if err != nil {
			logger.Fatal("failed to create storage client", "error", err)
		}

		initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := storageClient.Init(initCtx); err != nil {
			// the sweeper keeps expired transcripts pending until the bucket is back
			logger.Warn("storage init failed", "error", err)
		}
		initCancel()

		archives = append(archives, storageClient)
		logger.Info("storage archive enabled", "endpoint", cfg.Storage.Endpoint, "bucket", storageClient.Bucket())
	}

	var archiver memory.Archiver
	if len(archives) > 0 {
		archiver = archives
	}

	sweeper, err := memory.NewSweeper(store, archiver)
	if err != nil {
		logger.Fatal("failed to create sweeper", "error", err)
	}

	shop := assistant.New(model, store, cfg.Memory.ContextLength)

	var bots []bot.Bot
	var enabledProviders []string

	for _, botCfg := range []bot.Config{
		{Provider: "telegram", Token: cfg.Bots.TelegramToken},
		{Provider: "discord", Token: cfg.Bots.DiscordToken},
	} {
		if botCfg.Token == "" {
			continue
		}

		b, err := bot.New(botCfg, shop)
		if err != nil {
			logger.Fatal("failed to create bot", "provider", botCfg.Provider, "error", err)
		}

		bots = append(bots, b)
		enabledProviders = append(enabledProviders, botCfg.Provider)
	}

	if len(bots) > 0 && cfg.Bots.AdminChatID != 0 {
		notifyBot := bots[0]
		alerter := alerts.New(
			func(message string) {
				notifyBot.Send(cfg.Bots.AdminChatID, message)
			},
			cfg.Bots.AlertCooldown,
		)

		shop.SetAlerter(alerter)
		sweeper.SetFailureHandler(func(err error) {
			alerter.Critical("memory", "session sweep failed", err)
		})
		logger.Info("error alerting enabled", "chatID", cfg.Bots.AdminChatID)
	}

	for _, b := range bots {
		go func(b bot.Bot) {
			if err := b.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("bot stopped", "error", err)
			}
		}(b)
	}

	api := server.New(server.Config{
		Addr:            cfg.Addr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, shop, store)

	if transcripts != nil {
		api.SetArchive(transcripts)
		api.AddHealthCheck("transcripts", transcripts)
	}
	if storageClient != nil {
		api.AddHealthCheck("storage", storageClient)
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- api.Run(ctx)
	}()

	sweeper.Start(ctx)

	logger.Info("shopbot started",
		"bots", enabledProviders,
		"llm", model.Provider(),
		"model", model.Model(),
		"addr", cfg.Addr(),
		"max_messages", cfg.Memory.MaxMessages,
		"session_timeout", cfg.Memory.SessionTimeout,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("shutting down")
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("http server shutdown failed", "error", err)
		}
	case err := <-serverDone:
		logger.Error("http server failed", "error", err)
		cancel()
	}

	sweeper.Stop()

	if n := sweeper.Pending(); n > 0 {
		logger.Warn("transcripts left unarchived", "count", n)
	}
}
