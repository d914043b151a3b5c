package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DisplayTypeInfobox = "infobox"
	DisplayTypeList    = "list"

	DefaultEngineBaseURL = "http://grokipedia-proxy:5000"
)

// Proxy configures the scrape proxy process.
type Proxy struct {
	Host               string        `env:"HOST"                 envDefault:"0.0.0.0"`
	Port               int           `env:"PORT"                 envDefault:"5000"`
	SiteURL            string        `env:"SITE_URL"             envDefault:"https://grokipedia.com"`
	UserAgent          string        `env:"USER_AGENT"`
	FetchTimeout       time.Duration `env:"FETCH_TIMEOUT"        envDefault:"10s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT"     envDefault:"10s"`
	CacheMaxEntries    int           `env:"CACHE_MAX_ENTRIES"    envDefault:"0"`
	CacheTTL           time.Duration `env:"CACHE_TTL"            envDefault:"10m"`
	CacheSweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"5m"`
}

func LoadProxy() (Proxy, error) {
	cfg, err := env.ParseAs[Proxy]()
	if err != nil {
		return Proxy{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.SiteURL = strings.TrimRight(strings.TrimSpace(cfg.SiteURL), "/")
	if cfg.SiteURL == "" {
		return Proxy{}, errors.New("SITE_URL is empty")
	}

	if cfg.FetchTimeout <= 0 {
		return Proxy{}, fmt.Errorf("FETCH_TIMEOUT must be positive (got %s)", cfg.FetchTimeout)
	}

	return cfg, nil
}

func (p Proxy) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// Engine mirrors a single entry of the search aggregator's settings.yml.
type Engine struct {
	Name        string   `yaml:"name"`
	Engine      string   `yaml:"engine"`
	Shortcut    string   `yaml:"shortcut"`
	BaseURL     string   `yaml:"base_url"`
	DisplayType []string `yaml:"display_type"`
	Categories  []string `yaml:"categories"`
}

type engineSettings struct {
	Engines []Engine `yaml:"engines"`
}

func DefaultEngine() Engine {
	return Engine{
		Name:        "grokipedia",
		Engine:      "grokipedia",
		Shortcut:    "grok",
		BaseURL:     DefaultEngineBaseURL,
		DisplayType: []string{DisplayTypeInfobox, DisplayTypeList},
		Categories:  []string{"general"},
	}
}

func (e Engine) Displays(displayType string) bool {
	return slices.Contains(e.DisplayType, displayType)
}

// LoadEngine reads the named engine from a settings file. Fields left empty in the
// file keep their DefaultEngine values.
func LoadEngine(path string, name string) (Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Engine{}, fmt.Errorf("read settings: %w", err)
	}

	return ParseEngine(data, name)
}

func ParseEngine(data []byte, name string) (Engine, error) {
	var settings engineSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Engine{}, fmt.Errorf("unmarshal settings: %w", err)
	}

	for _, e := range settings.Engines {
		if e.Name != name {
			continue
		}

		return e.withDefaults(), nil
	}

	return Engine{}, fmt.Errorf("engine not found (name = %s)", name)
}

func (e Engine) withDefaults() Engine {
	def := DefaultEngine()

	if e.Engine == "" {
		e.Engine = def.Engine
	}
	if e.Shortcut == "" {
		e.Shortcut = def.Shortcut
	}

	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	if e.BaseURL == "" {
		e.BaseURL = def.BaseURL
	}

	if e.DisplayType == nil {
		e.DisplayType = def.DisplayType
	}
	if e.Categories == nil {
		e.Categories = def.Categories
	}

	return e
}
