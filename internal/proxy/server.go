package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"grokipedia/internal/domain"
	"grokipedia/internal/scrape"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	langEnglish = "en"
	dirLTR      = "ltr"
)

type PageFetcher interface {
	Fetch(ctx context.Context, title string) ([]byte, error)
}

type PageExtractor interface {
	Extract(page []byte) (scrape.Page, error)
}

type Server struct {
	fetcher   PageFetcher
	extractor PageExtractor
	cache     *summaryCache
	now       func() time.Time
	log       *slog.Logger
}

func New(
	fetcher PageFetcher,
	extractor PageExtractor,
	cacheMaxEntries int,
	cacheTTL time.Duration,
	log *slog.Logger,
) *Server {
	return &Server{
		fetcher:   fetcher,
		extractor: extractor,
		cache:     newSummaryCache(cacheMaxEntries, cacheTTL),
		now:       time.Now,
		log:       log,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/rest_v1/page/summary/{title...}", s.handleSummary)
	mux.HandleFunc("GET /summary/{title...}", s.handleSummary)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withRequestID(s.withAccessLog(s.withRecover(mux)))
}

func (s *Server) CacheEnabled() bool {
	return s.cache != nil
}

// PurgeCache drops expired summaries and reports how many were removed.
func (s *Server) PurgeCache(now time.Time) int {
	return s.cache.purge(now)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	title := r.PathValue("title")
	displayTitle := strings.ReplaceAll(title, "_", " ")

	// An empty title would resolve to the site's home page.
	if strings.TrimSpace(displayTitle) == "" {
		s.log.WarnContext(ctx, "Empty title is requested",
			"requestID", requestIDFrom(ctx),
			"path", r.URL.Path)

		s.writeJSON(ctx, w, http.StatusOK, emptyDocument(""))
		return
	}

	if doc, ok := s.cache.get(title, s.now()); ok {
		s.writeJSON(ctx, w, http.StatusOK, doc)
		return
	}

	s.log.InfoContext(ctx, "Fetching page",
		"requestID", requestIDFrom(ctx),
		"title", title)

	page, err := s.fetcher.Fetch(ctx, title)
	if err != nil {
		s.logFetchError(ctx, title, err)
		s.writeJSON(ctx, w, http.StatusOK, emptyDocument(displayTitle))
		return
	}

	extracted, err := s.extractor.Extract(page)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to extract page",
			"error", err,
			"requestID", requestIDFrom(ctx),
			"title", title)

		s.writeJSON(ctx, w, http.StatusInternalServerError, errorDocument(displayTitle, err))
		return
	}

	doc := standardDocument(displayTitle, extracted.Text, extracted.HTML)
	s.cache.set(title, doc, s.now())

	s.log.InfoContext(ctx, "Page is processed",
		"requestID", requestIDFrom(ctx),
		"title", title,
		"extractLength", len(doc.Extract),
		"extractHTMLLength", len(doc.ExtractHTML))

	s.writeJSON(ctx, w, http.StatusOK, doc)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) logFetchError(ctx context.Context, title string, err error) {
	var statusErr *scrape.StatusError
	if errors.As(err, &statusErr) {
		s.log.WarnContext(ctx, "Upstream returned error status",
			"error", err,
			"requestID", requestIDFrom(ctx),
			"statusCode", statusErr.StatusCode,
			"title", title)

		return
	}

	s.log.ErrorContext(ctx, "Failed to fetch page",
		"error", err,
		"requestID", requestIDFrom(ctx),
		"title", title)
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.ErrorContext(ctx, "Failed to write response",
			"error", err,
			"requestID", requestIDFrom(ctx),
			"status", status)
	}
}

func standardDocument(title, extract, extractHTML string) domain.SummaryDocument {
	return domain.SummaryDocument{
		Type:        domain.DocumentTypeStandard,
		Title:       title,
		Extract:     extract,
		ExtractHTML: extractHTML,
		Lang:        langEnglish,
		Dir:         dirLTR,
	}
}

// emptyDocument stands in for missing and unreachable pages alike.
func emptyDocument(title string) domain.SummaryDocument {
	return standardDocument(title, "", "")
}

func errorDocument(title string, err error) domain.SummaryDocument {
	return domain.SummaryDocument{
		Type:    domain.DocumentTypeError,
		Title:   title,
		Extract: fmt.Sprintf("Error parsing content: %v", err),
		Lang:    langEnglish,
	}
}
