package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ssal/internal/configuration"
	"ssal/internal/configuration/properties"
	"ssal/internal/logging"
	"ssal/internal/metrics"
	"ssal/internal/transport"
	"ssal/internal/transport/handler"

	"golang.org/x/sync/errgroup"
)

func runServe(parent context.Context, opts cliOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	cfg, err := configuration.Load(opts.ConfigDir, opts.Profile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg, opts)
	provider := configuration.NewProvider(cfg)

	app := provider.GetApplication()
	log := logging.Init(app.LogLevel, app.LogColor)
	log.Info("Starting ssal...", "profile", app.Profile, "engine", provider.GetStore().Engine)

	services, err := NewServices(provider)
	if err != nil {
		return err
	}
	defer func() {
		if err := services.Close(); err != nil {
			log.Error("Failed to close services", "error", err)
		}
	}()

	srv := transport.NewServer(provider.GetTransport(), log, handler.Config{
		Sequencers: services.Sequencers,
		Rollups:    services.Rollups,
		Leader:     services.Elector,
		Blocks:     services.Sequencer,
	})
	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ln)
	})

	var metricsSrv *metrics.Server
	if m := provider.GetMetrics(); m.Enabled {
		metricsSrv = metrics.NewServer(m.Addr())
		g.Go(metricsSrv.ListenAndServe)
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down ssal...")
		if metricsSrv != nil {
			metricsSrv.Stop()
		}
		return srv.Shutdown(context.Background())
	})

	log.Info("ssal ready", "addr", ln.Addr().String())
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("ssal stopped")
	return nil
}

func applyOverrides(cfg *properties.Config, opts cliOptions) {
	if opts.Address != "" {
		cfg.Transport.Address = opts.Address
	}
	if opts.Port != "" {
		cfg.Transport.Port = opts.Port
	}
}
