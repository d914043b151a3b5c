package scrape

import (
	"context"
	"errors"
	"fmt"
	"grokipedia/internal/title"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	maxPageBytes = 8 << 20
)

var (
	// ErrUpstreamStatus marks a page request answered with a non-2xx status.
	ErrUpstreamStatus = errors.New("unexpected upstream status")
	// ErrUpstreamUnavailable marks a page request that got no usable response.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUpstreamStatus, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamStatus
}

type Fetcher struct {
	siteURL   string
	userAgent string
	client    *http.Client
	log       *slog.Logger
}

func NewFetcher(
	siteURL string,
	userAgent string,
	timeout time.Duration,
	log *slog.Logger,
) *Fetcher {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Fetcher{
		siteURL:   strings.TrimRight(siteURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		log:       log,
	}
}

// PageURL is the site page for pageTitle with spaces turned into underscores.
func (f *Fetcher) PageURL(pageTitle string) string {
	return f.siteURL + "/page/" + title.Escape(pageTitle)
}

// Fetch downloads the page for title. Errors wrap either ErrUpstreamStatus or
// ErrUpstreamUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, pageTitle string) ([]byte, error) {
	pageURL := f.PageURL(pageTitle)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w: %w", ErrUpstreamUnavailable, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req) //nolint:gosec // Site URL comes from config
	if err != nil {
		return nil, fmt.Errorf("do request: %w: %w", ErrUpstreamUnavailable, err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			f.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"pageURL", pageURL,
				"operation", "Fetch")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("do request: %w", &StatusError{StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w: %w", ErrUpstreamUnavailable, err)
	}

	return body, nil
}
