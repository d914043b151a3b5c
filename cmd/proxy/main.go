package main

import (
	"context"
	"errors"
	"grokipedia/internal/config"
	"grokipedia/internal/proxy"
	"grokipedia/internal/scheduler"
	"grokipedia/internal/scrape"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const readHeaderTimeout = 10 * time.Second

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadProxy()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	fetcher := scrape.NewFetcher(cfg.SiteURL, cfg.UserAgent, cfg.FetchTimeout, log)
	server := proxy.New(fetcher, scrape.NewExtractor(), cfg.CacheMaxEntries, cfg.CacheTTL, log)

	if server.CacheEnabled() {
		sched := scheduler.New(ctx, server, cfg.CacheSweepInterval, log)
		if err = sched.Start(); err != nil {
			log.ErrorContext(ctx, "Failed to start scheduler",
				"error", err,
				"spec", sched.Spec())

			return
		}
		defer sched.Stop()
		log.InfoContext(ctx, "Scheduler is started",
			"spec", sched.Spec(),
			"cacheMaxEntries", cfg.CacheMaxEntries,
			"cacheTTL", cfg.CacheTTL.String())
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	log.InfoContext(ctx, "Proxy is started",
		"addr", cfg.Addr(),
		"siteURL", cfg.SiteURL,
		"fetchTimeout", cfg.FetchTimeout.String())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case err = <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "Failed to serve",
				"error", err,
				"addr", cfg.Addr())
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		log.ErrorContext(shutdownCtx, "Failed to shut down server",
			"error", err)
	}

	log.InfoContext(shutdownCtx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())
}
