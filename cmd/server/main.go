package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	_ "go.uber.org/automaxprocs"

	"github.com/blackmichael/skygazer/internal/bluesky"
	"github.com/blackmichael/skygazer/internal/config"
	"github.com/blackmichael/skygazer/internal/credentials"
	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/firehose"
	"github.com/blackmichael/skygazer/internal/httpserver"
	"github.com/blackmichael/skygazer/internal/session"
	"github.com/blackmichael/skygazer/internal/store"
)

const (
	snapshotMaxAge          = 7 * 24 * time.Hour
	snapshotCleanupInterval = time.Hour
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := setupTracing(ctx, "skygazer", versioninfo.Short(), logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("failed to shutdown trace exporter", "error", err)
		}
	}()

	// the repository stores accounts, feed snapshots and stream cursors
	repo, err := store.NewRepository(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	defer repo.Close()
	logger.Info("opened database", "path", cfg.DatabasePath)

	client, err := signIn(ctx, cfg, repo, credentials.NewEnv(nil), logger)
	if err != nil {
		return err
	}

	sess := session.New(client, session.Options{
		PageSize:        cfg.PageSize,
		FanoutLimit:     cfg.FanoutLimit,
		Locale:          cfg.Locale,
		LabelerCacheTTL: cfg.LabelerCacheTTL,
		Snapshots:       repo,
		Logger:          logger,
	})
	if _, err := sess.LoadPreferences(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start the firehose subscriber in the background
	subscriber := firehose.NewSubscriber(cfg.FirehoseURL, sess.Pager(), firehose.Options{
		Cursors: repo,
		Logger:  logger,
	})
	go func() {
		if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("firehose subscriber exited with error", "error", err)
		}
	}()

	go cleanupSnapshots(ctx, repo, logger)

	server := httpserver.NewServer(cfg, sess, subscriber, logger)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server exited with error", "error", err)
		}
	}()

	logger.Info("server started", "port", cfg.Port, "did", client.DID(), "version", versioninfo.Short())

	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}
	sess.Wait()
	if err := sess.Pager().Persist(shutdownCtx); err != nil {
		logger.Error("failed to persist open feed", "error", err)
	}

	return nil
}

// signIn logs in as the configured handle, or the first saved account when
// none is configured. A saved account's PDS takes precedence over the
// configured one.
func signIn(ctx context.Context, cfg *config.Config, accounts domain.AccountRepository, creds domain.CredentialStore, logger *slog.Logger) (*bluesky.Client, error) {
	handle, pds := cfg.Handle, cfg.PDS
	if handle == "" {
		saved, err := accounts.ListAccounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		if len(saved) == 0 {
			return nil, fmt.Errorf("no account configured: set BLUESKY_HANDLE or add one with feedctl")
		}
		handle = saved[0].Handle
	}
	if acct, err := accounts.GetAccount(ctx, handle); err == nil && acct.PDS != "" {
		pds = acct.PDS
	} else if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("get account: %w", err)
	}

	c, err := creds.Retrieve(ctx, handle)
	if err != nil {
		return nil, err
	}

	client := bluesky.NewClient(pds, bluesky.Options{
		RateLimit: cfg.RateLimit,
		Logger:    logger,
	})
	if err := client.Login(ctx, handle, c.Password); err != nil {
		return nil, fmt.Errorf("login as %s: %w", handle, err)
	}
	logger.Info("signed in", "handle", client.Handle(), "did", client.DID(), "pds", pds)
	return client, nil
}

func cleanupSnapshots(ctx context.Context, repo domain.SnapshotRepository, logger *slog.Logger) {
	ticker := time.NewTicker(snapshotCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteOldSnapshots(ctx, snapshotMaxAge)
			if err != nil {
				logger.Error("failed to delete old snapshots", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("deleted old snapshots", "count", n)
			}
		}
	}
}
