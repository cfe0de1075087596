package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ah-its-andy/docconvert/internal/api"
	"github.com/ah-its-andy/docconvert/internal/config"
	"github.com/ah-its-andy/docconvert/internal/convert"
	"github.com/ah-its-andy/docconvert/internal/runner"
	"github.com/ah-its-andy/docconvert/internal/storage"
	"github.com/ah-its-andy/docconvert/internal/watcher"
	"github.com/ah-its-andy/docconvert/internal/worker"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	host := flag.String("host", cfg.Host, "server host address")
	port := flag.Int("port", cfg.Port, "server port")
	debug := flag.Bool("debug", cfg.Debug, "enable debug mode")
	flag.Parse()
	cfg.Host = *host
	cfg.Port = *port
	cfg.Debug = *debug

	logger := newLogger(cfg.Debug)
	defer logger.Sync()
	log := logger.Sugar()

	log.Infow("starting docconvert",
		"addr", cfg.Addr(),
		"upload_dir", cfg.UploadDir,
		"result_dir", cfg.ResultDir,
		"metadata_dir", cfg.MetadataDir,
		"retention_hours", cfg.RetentionHours,
		"max_workers", cfg.MaxWorkers)

	for bin, ok := range runner.Available(cfg.ToolBins()...) {
		if ok {
			log.Infow("external tool found", "bin", bin)
		} else {
			log.Warnw("external tool missing, related conversions will fail", "bin", bin)
		}
	}

	store, err := storage.NewDiskStore(cfg.UploadDir, cfg.ResultDir, cfg.MetadataDir, log)
	if err != nil {
		log.Fatalw("init storage", "error", err)
	}

	run := runner.New(log)
	disp := convert.NewDispatcher(cfg, run, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := storage.NewSweeper(store, cfg.Retention(), cfg.SweepInterval(), log)
	go sweeper.Run(ctx)

	if cfg.WatchDir != "" {
		if err := os.MkdirAll(cfg.WatchDir, 0o755); err != nil {
			log.Fatalw("create watch dir", "error", err)
		}
		queue := worker.NewQueue(cfg.MaxWorkers * 16)
		conv := worker.NewConverter(store, disp, 2, log)
		pool := worker.NewPool(cfg.MaxWorkers, queue, conv, log)
		pool.Start(ctx)

		w, err := watcher.New(cfg.WatchDir, queue, cfg.WatchStabilityDelay(), log)
		if err != nil {
			log.Fatalw("init watcher", "error", err)
		}
		defer w.Close()
		go func() {
			if err := w.Start(ctx); err != nil {
				log.Errorw("watcher stopped", "error", err)
			}
		}()
	}

	server := api.NewServer(cfg, store, disp, sweeper, log)
	go func() {
		if err := server.Run(); err != nil {
			log.Fatalw("http server failed", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	cancel()
}

func newLogger(debug bool) *zap.Logger {
	if debug {
		l, _ := zap.NewDevelopment()
		return l
	}
	l, _ := zap.NewProduction()
	return l
}
