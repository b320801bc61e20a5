package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/elestrals-showdown/game-server/internal/cards"
	"github.com/elestrals-showdown/game-server/internal/server"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" default:"1" help:"Run the game server"`
}

// ServeCmd runs the WebSocket game server.
type ServeCmd struct {
	Config  string `kong:"default='showdown.hcl',help='Path to HCL config file'"`
	Address string `kong:"help='Listen address, overrides config'"`
	Port    int    `kong:"help='Listen port, overrides config'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Address != "" {
		cfg.Server.Address = c.Address
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.Debug {
		cfg.Server.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := setupLogger(cfg)

	srv := server.NewServer(cfg, cards.BaseCatalog(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting showdown server",
		"addr", cfg.GetServerAddress(),
		"opening_hand", cfg.Game.OpeningHandSize,
		"room_timeout", cfg.RoomTimeoutDuration(),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		return srv.Stop()
	})
	return g.Wait()
}

func setupLogger(cfg *server.ServerConfig) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if level, err := log.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Server.LogFile != "" {
		if f, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			logger.SetOutput(f)
		}
	}
	return logger
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("showdown-server"),
		kong.Description("Authoritative game server for two-player card battles"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
