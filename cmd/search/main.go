package main

import (
	"context"
	"encoding/json"
	"flag"
	"grokipedia/internal/config"
	"grokipedia/internal/engine"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

func main() {
	settingsPath := flag.String("settings", "", "path to settings.yml with an engines list")
	engineName := flag.String("engine", "grokipedia", "engine name inside the settings file")
	baseURL := flag.String("base-url", "", "proxy base URL, overrides the settings file")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		log.ErrorContext(ctx, "Query is required",
			"usage", "search [-settings settings.yml] <query>")

		os.Exit(2)
	}

	cfg := config.DefaultEngine()
	if *settingsPath != "" {
		loaded, err := config.LoadEngine(*settingsPath, *engineName)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load engine settings",
				"error", err,
				"settingsPath", *settingsPath,
				"engine", *engineName)

			os.Exit(1)
		}
		cfg = loaded
	}

	if *baseURL != "" {
		cfg.BaseURL = strings.TrimRight(*baseURL, "/")
	}

	results := engine.New(cfg, log).Search(ctx, query)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		log.ErrorContext(ctx, "Failed to write results",
			"error", err,
			"resultCount", len(results))

		os.Exit(1)
	}
}
