package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	emailadapter "github.com/knguessan/moodlewatch/internal/adapter/driven/email"
	moodleadapter "github.com/knguessan/moodlewatch/internal/adapter/driven/moodle"
	sqliteadapter "github.com/knguessan/moodlewatch/internal/adapter/driven/sqlite"
	httphandler "github.com/knguessan/moodlewatch/internal/adapter/driving/http"
	"github.com/knguessan/moodlewatch/internal/application"
	"github.com/knguessan/moodlewatch/internal/config"
	"github.com/knguessan/moodlewatch/internal/domain/port/driven"
	"github.com/knguessan/moodlewatch/internal/vault"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on a missing secret key).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"moodle_base_url", cfg.MoodleBaseURL,
		"scan_interval", cfg.ScanInterval,
		"smtp_enabled", cfg.SMTPEnabled,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database and run migrations on the writer connection.
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("database ready", "path", cfg.DBPath)

	// 4. Wire driven adapters.
	users := sqliteadapter.NewUserRepo(db)
	credentialVault := vault.New(cfg.SecretKey)
	platform := moodleadapter.NewClient(cfg.MoodleBaseURL, cfg.LoginMarker, cfg.HTTPTimeout)

	var notifier driven.Notifier
	if cfg.SMTPEnabled {
		notifier = emailadapter.NewSMTPNotifier(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.FromEmail)
		slog.Info("smtp notifier enabled", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
	} else {
		notifier = emailadapter.NewConsoleNotifier(slog.Default())
		slog.Info("smtp disabled, notifications go to the log")
	}

	// 5. Create services and start the scheduled scan.
	syncSvc := application.NewSyncService(platform, slog.Default())
	watchSvc := application.NewWatchService(
		users, credentialVault, syncSvc, notifier, cfg.ScanInterval, slog.Default())
	go watchSvc.Start(ctx)

	// 6. Serve the JSON API.
	apiHandler := httphandler.NewHandler(users, credentialVault, syncSvc, watchSvc, slog.Default())
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 7. Wait for shutdown signal, then drain.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
