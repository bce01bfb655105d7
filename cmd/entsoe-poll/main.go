package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/icodeforyou/entsoe-go/config"
	"github.com/icodeforyou/entsoe-go/database"
	"github.com/icodeforyou/entsoe-go/entsoe"
	"github.com/icodeforyou/entsoe-go/logging"
	"github.com/icodeforyou/entsoe-go/sink"
	"github.com/icodeforyou/entsoe-go/task"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Version = "?.?.?"

func main() {
	configPath := flag.String("config", "", "path to config file")
	metricsAddr := flag.String("metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")
	flag.Parse()

	if err := run(*configPath, *metricsAddr); err != nil {
		slog.Default().Error("poller shutting down with error", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Default().Info("poller is shutting down...")
}

func run(configPath, metricsAddr string) error {
	cnfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	consoleLevel := new(slog.LevelVar)
	consoleLevel.Set(cnfg.Logging.GetConsoleLevel())
	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      consoleLevel,
		TimeFormat: time.RFC3339,
	})
	logger := slog.New(consoleHandler)
	slog.SetDefault(logger)
	logger.Debug("entsoe-poll is starting...", slog.String("version", Version))

	var purger task.LogPurger
	if cnfg.Database.Path != "" {
		db, err := database.New(ctx, cnfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		logger = slog.New(logging.NewMultiHandler(
			consoleHandler,
			logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
		slog.SetDefault(logger)
		db.SetLogger(logger.With("module", "database"))
		purger = db
	}

	config.Watch(logger.With("module", "config"), func(c *config.AppConfig) {
		consoleLevel.Set(c.Logging.GetConsoleLevel())
		logger.Info("console log level updated", slog.String("level", consoleLevel.Level().String()))
	})

	var out sink.Multi
	if cnfg.Mqtt.Enabled() {
		m, err := sink.NewMQTT(cnfg.Mqtt)
		if err != nil {
			return err
		}
		out = append(out, m)
	} else {
		out = append(out, sink.NewWriter(os.Stdout))
	}
	if cnfg.Feed.Addr != "" {
		feed := sink.NewFeed()
		out = append(out, feed)
		mux := http.NewServeMux()
		mux.Handle("/feed", feed)
		srv := &http.Server{Addr: cnfg.Feed.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go serve(logger, srv)
		defer srv.Close()
	}
	defer out.Close()

	client, err := entsoe.New(cnfg.Portal,
		entsoe.WithLogger(logger.With("module", "entsoe")),
		entsoe.WithRegisterer(prometheus.DefaultRegisterer))
	if err != nil {
		return err
	}
	defer client.Close()

	tasks, err := task.NewTasks(client, out, purger, cnfg)
	if err != nil {
		return err
	}
	if err := tasks.Run(); err != nil {
		return err
	}
	defer func() { <-tasks.Stop().Done() }()

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 10 * time.Second}
		go serve(logger, srv)
		defer srv.Close()
	}

	<-ctx.Done()
	logger.Info("received signal, stopping")
	return nil
}

func serve(logger *slog.Logger, srv *http.Server) {
	logger.Info("listening", slog.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("addr", srv.Addr), slog.Any("error", err))
	}
}
