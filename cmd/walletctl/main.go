package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"wallet/config"
	"wallet/internal/client/api"
	"wallet/internal/client/cli"
	"wallet/internal/client/session"
	"wallet/internal/client/storage"
	"wallet/internal/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	// Diagnostics go to stderr so command output stays clean
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	storageURL, err := resolveStorageURL(cfg.Client.StorageURL)
	if err != nil {
		return err
	}
	store, err := storage.Open(ctx, storageURL)
	if err != nil {
		return err
	}
	defer store.Close()

	client := api.New(cfg.Client)
	mgr := session.NewManager(client, store, logger)

	return cli.NewApp(mgr, client, os.Stdin, os.Stdout).Run(ctx, args)
}

// resolveStorageURL defaults to a private directory under the user config dir.
func resolveStorageURL(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locate config dir")
	}
	dir := filepath.Join(base, "walletctl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", errors.Wrap(err, "create session dir")
	}

	return "file://" + filepath.ToSlash(dir), nil
}
