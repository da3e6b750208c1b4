package main

import (
	"context"
	"fmt"
	"os"

	"necessities/swap/internal/app"
	"necessities/swap/internal/config"
	"necessities/swap/internal/log"
	"necessities/swap/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	logger := log.New(cfg.Environment, cfg.Log.Level)

	cli := &cli{
		driver: cfg.Store.Driver,
		open: func(ctx context.Context) (*repository.Store, error) {
			return app.OpenStore(ctx, cfg, logger)
		},
		out: os.Stdout,
		log: logger,
	}

	if err := cli.rootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
