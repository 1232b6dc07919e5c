// Package main - Entry point for the opticost quote server
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"opticost/adapters/logistics"
	"opticost/adapters/ratesheet"
	"opticost/api"
	"opticost/internal/config"
	"opticost/internal/logging"
)

var version = "0.1.0"

func main() {
	cfgPath := flag.String("config", config.DefaultPath(), "config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	envFile := flag.String("env-file", ".env", "dotenv file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Fatal("load env file", zap.String("path", *envFile), zap.Error(err))
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logging.Fatal("load config", zap.Error(err))
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	config.Set(cfg)
	if err := logging.Initialize(cfg.Logging); err != nil {
		logging.Fatal("initialize logging", zap.Error(err))
	}
	defer logging.Sync()

	fetcher := ratesheet.NewFetcher(cfg.Sources.Timeout())
	tables, err := fetcher.LoadAll(context.Background(), cfg.Sources.Sheets())
	if err != nil {
		logging.Fatal("load rate sheets", zap.Error(err))
	}

	opts := api.Options{
		Version:        version,
		APIKey:         cfg.Logistics.APIKey(),
		ExternalPolicy: cfg.Policy.ExternalCrew,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	}
	if cfg.Logistics.Endpoint != "" {
		httpCfg := logistics.DefaultHTTPConfig(cfg.Logistics.Endpoint)
		httpCfg.Timeout = cfg.Logistics.Timeout()
		opts.Provider = logistics.NewHTTPProvider(httpCfg)
	} else {
		logging.Warn("no logistics endpoint configured; quotes without logistics will omit travel costs")
	}
	server := api.NewServer(tables, opts)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	// SIGHUP reloads the rate sheets; a failed reload keeps the current tables
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			fresh, err := fetcher.LoadAll(context.Background(), cfg.Sources.Sheets())
			if err != nil {
				logging.Error("reload rate sheets", zap.Error(err))
				continue
			}
			server.SetTables(fresh)
			logging.Info("rate sheets reloaded")
		}
	}()

	go func() {
		logging.Info("opticost server listening",
			zap.String("addr", cfg.Server.Address),
			zap.String("version", version),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logging.Error("shutdown", zap.Error(err))
	}
}
