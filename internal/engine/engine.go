package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"grokipedia/internal/config"
	"grokipedia/internal/domain"
	"grokipedia/internal/title"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	apiPathPrefix = "/api/rest_v1/page/summary/"
	siteURL       = "https://grokipedia.com"
	siteName      = "Grokipedia"

	maxRedirects        = 2
	maxListContentLen   = 300
	contentEllipsis     = "..."
	searchClientTimeout = 15 * time.Second
	maxResponseBytes    = 4 << 20
)

// Params is the per-request parameter bag handed over by the aggregator.
type Params struct {
	URL               string
	RaiseForHTTPError bool
	SoftMaxRedirects  int
}

// Response is the subset of an HTTP response the engine needs.
type Response struct {
	StatusCode int
	Body       []byte
}

type Engine struct {
	cfg    config.Engine
	client *http.Client
	log    *slog.Logger
}

func New(cfg config.Engine, log *slog.Logger) *Engine {
	e := &Engine{cfg: cfg, log: log}
	e.client = &http.Client{
		Timeout:       searchClientTimeout,
		CheckRedirect: limitRedirects(maxRedirects),
	}

	return e
}

// BuildRequest fills params with the proxy URL for query. A nil params is allocated.
func (e *Engine) BuildRequest(query string, params *Params) *Params {
	if params == nil {
		params = &Params{}
	}

	params.URL = e.cfg.BaseURL + apiPathPrefix + title.Escape(NormalizeQuery(query))
	params.RaiseForHTTPError = false
	params.SoftMaxRedirects = maxRedirects

	return params
}

// ParseResponse maps a proxy reply to result records. Any failure yields no results.
func (e *Engine) ParseResponse(resp Response) []domain.Result {
	results := []domain.Result{}

	if resp.StatusCode >= http.StatusBadRequest {
		return results
	}

	var doc *domain.SummaryDocument
	if err := json.Unmarshal(resp.Body, &doc); err != nil || doc == nil {
		return results
	}

	if doc.Type == domain.DocumentTypeError {
		return results
	}

	pageTitle := htmlToText(doc.Title)
	link := PageURL(pageTitle)

	if e.cfg.Displays(config.DisplayTypeList) {
		results = append(results, domain.Result{
			URL:     link,
			Title:   pageTitle,
			Content: truncate(doc.Extract, maxListContentLen),
		})
	}

	if e.cfg.Displays(config.DisplayTypeInfobox) && doc.Extract != "" {
		results = append(results, domain.Result{
			Infobox: pageTitle,
			ID:      link,
			Content: doc.Extract,
			URLs:    []domain.Link{{Title: siteName, URL: link}},
		})
	}

	return results
}

// Search runs a full round trip against the proxy. Failures are logged and yield no results.
func (e *Engine) Search(ctx context.Context, query string) []domain.Result {
	if NormalizeQuery(query) == "" {
		return []domain.Result{}
	}

	params := e.BuildRequest(query, nil)

	resp, err := e.do(ctx, params)
	if err != nil {
		e.log.ErrorContext(ctx, "Failed to query proxy",
			"error", err,
			"query", query,
			"url", params.URL)

		return []domain.Result{}
	}

	results := e.ParseResponse(resp)
	e.log.DebugContext(ctx, "Proxy response is parsed",
		"query", query,
		"statusCode", resp.StatusCode,
		"resultCount", len(results))

	return results
}

// PageURL is the canonical site link for a display title.
func PageURL(pageTitle string) string {
	return siteURL + "/page/" + title.Escape(pageTitle)
}

func (e *Engine) do(ctx context.Context, params *Params) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, params.URL, nil)
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			e.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", params.URL,
				"operation", "do")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("read body: %w", err)
	}

	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func limitRedirects(limit int) func(*http.Request, []*http.Request) error {
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) > limit {
			return http.ErrUseLastResponse
		}

		return nil
	}
}

func htmlToText(s string) string {
	text := s

	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			text = doc.Text()
		}
	}

	return strings.Join(strings.Fields(text), " ")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	return string([]rune(s)[:limit]) + contentEllipsis
}
