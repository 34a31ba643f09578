package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrymomot/flipperbot/internal/discord"
	"github.com/dmitrymomot/flipperbot/internal/email"
	"github.com/dmitrymomot/flipperbot/internal/flips"
	"github.com/dmitrymomot/flipperbot/internal/monitoring"
	"github.com/dmitrymomot/flipperbot/internal/msauth"
	"github.com/dmitrymomot/flipperbot/internal/registry"
	"github.com/dmitrymomot/flipperbot/internal/settings"
	"github.com/dmitrymomot/flipperbot/internal/vault"
	"github.com/dmitrymomot/flipperbot/internal/verification"
	"github.com/dmitrymomot/flipperbot/internal/webserver"
	"github.com/dmitrymomot/flipperbot/pkg/async"
	"github.com/dmitrymomot/flipperbot/pkg/config"
	"github.com/dmitrymomot/flipperbot/pkg/httpserver"
	"github.com/dmitrymomot/flipperbot/pkg/logger"
	"github.com/dmitrymomot/flipperbot/pkg/secrets"
)

type appConfig struct {
	Environment  string `env:"APP_ENV" envDefault:"development"`
	SettingsFile string `env:"SETTINGS_FILE" envDefault:"config.yaml"`

	// Base64-encoded 32-byte key for the credential vault. A fresh key is
	// generated when absent, which is fine for a store that does not
	// survive restarts anyway.
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	FlipsEnabled bool `env:"FLIPS_ENABLED" envDefault:"true"`
	QueueSize    int  `env:"DISPATCH_QUEUE_SIZE" envDefault:"64"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	config.MustLoad(&cfg)

	var log *slog.Logger
	if cfg.Environment == "production" {
		log = logger.New(logger.WithProduction("flipperbot"))
	} else {
		log = logger.New(logger.WithDevelopment("flipperbot"))
	}
	logger.SetAsDefault(log)

	store, err := settings.Open(cfg.SettingsFile)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	var msCfg msauth.Config
	config.MustLoad(&msCfg)
	provider, err := msauth.New(msCfg, msauth.WithLogger(log))
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}

	masterKey, err := loadMasterKey(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("encryption key: %w", err)
	}
	cipher, err := secrets.NewCipher(masterKey)
	if err != nil {
		return fmt.Errorf("credential cipher: %w", err)
	}
	credStore := vault.New(cipher)

	var discordCfg discord.Config
	config.MustLoad(&discordCfg)
	session, err := discord.NewSession(discordCfg)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	gateway := discord.NewGateway(session)

	mutator, err := discord.NewMutator(gateway, discordCfg, discord.WithMutatorLogger(log))
	if err != nil {
		return fmt.Errorf("role mutator: %w", err)
	}
	notifier, err := discord.NewNotifier(gateway, store, discordCfg, discord.WithNotifierLogger(log))
	if err != nil {
		return fmt.Errorf("notifier: %w", err)
	}

	reg := registry.New()

	verifierOpts := []verification.Option{
		verification.WithVault(credStore),
		verification.WithEnrollmentMessenger(notifier),
		verification.WithLogger(log),
	}
	var emailCfg email.Config
	config.MustLoad(&emailCfg)
	if emailCfg.PostmarkServerToken != "" {
		sender, err := email.NewSender(emailCfg)
		if err != nil {
			return fmt.Errorf("email sender: %w", err)
		}
		verifierOpts = append(verifierOpts, verification.WithEnrollmentMailer(sender))
	} else {
		verifierOpts = append(verifierOpts, verification.WithEnrollmentMailer(email.NewLogSender(log)))
	}

	verifier, err := verification.New(reg, provider, mutator, notifier, verifierOpts...)
	if err != nil {
		return fmt.Errorf("verification service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := async.NewDispatcher(cfg.QueueSize)
	go dispatcher.Run(ctx)
	defer dispatcher.Stop()

	bot, err := discord.NewBot(session, discordCfg, store, verifier, mutator, discord.WithBotLogger(log))
	if err != nil {
		return fmt.Errorf("discord bot: %w", err)
	}
	if err := bot.Start(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	defer bot.Stop()

	monitor := monitoring.New(monitoring.WithLogger(log))
	go monitor.Run(ctx)

	reporter, err := discord.NewStatusReporter(gateway, store, monitor, discord.WithStatusLogger(log))
	if err != nil {
		return fmt.Errorf("status reporter: %w", err)
	}
	go reporter.Run(ctx)

	if cfg.FlipsEnabled && os.Getenv("HYPIXEL_API_KEY") != "" {
		var flipsCfg flips.Config
		config.MustLoad(&flipsCfg)
		client, err := flips.NewClient(flipsCfg)
		if err != nil {
			return fmt.Errorf("hypixel client: %w", err)
		}
		finder := flips.NewFinder(flips.Thresholds{
			MinProfit:     int64(store.GetInt("flip_settings.min_profit", 0)),
			ProfitPercent: float64(store.GetInt("flip_settings.profit_percentage", 0)),
		})
		flipMonitor, err := flips.NewMonitor(client, finder, notifier,
			flips.WithInterval(30*time.Second),
			flips.WithMonitorLogger(log))
		if err != nil {
			return fmt.Errorf("flip monitor: %w", err)
		}
		go flipMonitor.Run(ctx)
	}

	var webCfg webserver.Config
	config.MustLoad(&webCfg)
	router, err := webserver.New(webCfg, verifier, dispatcher, reg, webserver.WithLogger(log))
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	log.Info("starting flipperbot",
		logger.Event("app.start"),
		slog.String("environment", cfg.Environment),
		slog.String("http_addr", webCfg.Addr),
	)

	server := httpserver.New(
		httpserver.WithAddr(webCfg.Addr),
		httpserver.WithLogger(log),
	)
	return server.Run(ctx, router)
}

func loadMasterKey(encoded string) ([]byte, error) {
	if encoded == "" {
		return secrets.GenerateKey()
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	return key, nil
}
