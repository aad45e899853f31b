// Package main provides the dice shell server. It wires together
// configuration, the optional run store, the Telnet acceptor, and the shell
// handler.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gamzia/internal/config"
	"github.com/cory-johannsen/gamzia/internal/dice"
	"github.com/cory-johannsen/gamzia/internal/frontend/handlers"
	"github.com/cory-johannsen/gamzia/internal/frontend/telnet"
	"github.com/cory-johannsen/gamzia/internal/histogram"
	"github.com/cory-johannsen/gamzia/internal/observability"
	"github.com/cory-johannsen/gamzia/internal/preset"
	"github.com/cory-johannsen/gamzia/internal/server"
	"github.com/cory-johannsen/gamzia/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	healthInterval := flag.Duration("health-interval", 30*time.Second, "run store health check interval")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "diceserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting dice shell server",
		zap.String("resolver_mode", cfg.Resolver.Mode),
		zap.String("source", cfg.Resolver.Source),
	)

	var presets *preset.Set
	if cfg.Presets.Path != "" {
		presets, err = preset.Load(cfg.Presets.Path)
		if err != nil {
			logger.Fatal("loading presets", zap.Error(err))
		}
		logger.Info("presets loaded", zap.Int("count", presets.Len()))
	}

	sources, err := dice.NamedFactory(cfg.Resolver.Source, cfg.Resolver.Seed)
	if err != nil {
		logger.Fatal("selecting random source", zap.Error(err))
	}
	opts := dice.Options{MaxDice: cfg.Resolver.MaxDice, Lenient: cfg.Resolver.Lenient()}
	sampler := histogram.NewSampler(dice.Factory(sources, opts), cfg.Histogram.SamplerConfig(), logger)

	ctx := context.Background()
	lifecycle := server.NewLifecycle(logger)

	var shellOpts []handlers.ShellOption
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		if err := pool.CheckSchema(ctx); err != nil {
			logger.Fatal("verifying run store schema", zap.Error(err))
		}
		shellOpts = append(shellOpts, handlers.WithRecorder(postgres.NewSampleRepository(pool.DB())))

		health := &server.TickerService{
			Name:     "postgres",
			Interval: *healthInterval,
			Fn:       pool.HealthCheck(postgres.DefaultHealthTimeout),
			Logger:   logger,
		}
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: health.Start,
			StopFn: func() {
				health.Stop()
				pool.Close()
			},
		})
	}

	shell := handlers.NewShellHandler(sources, opts, sampler, presets, cfg.Histogram.DefaultTrials, logger, shellOpts...)
	acceptor := telnet.NewAcceptor(cfg.Telnet, shell, logger)
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.Bool("recording", cfg.Database.Enabled),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
