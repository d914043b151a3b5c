package proxy_test

import (
	"context"
	"encoding/json"
	"errors"
	"grokipedia/internal/domain"
	"grokipedia/internal/proxy"
	"grokipedia/internal/scrape"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstream struct {
	hits atomic.Int32
	srv  *httptest.Server
}

func newUpstream(t *testing.T, pages map[string]string) *upstream {
	t.Helper()

	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)

		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(u.srv.Close)

	return u
}

func newProxy(siteURL string, cacheMaxEntries int) *proxy.Server {
	log := slog.Default()
	fetcher := scrape.NewFetcher(siteURL, "", time.Second, log)

	return proxy.New(fetcher, scrape.NewExtractor(), cacheMaxEntries, time.Minute, log)
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, domain.SummaryDocument) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var doc domain.SummaryDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	return rec, doc
}

func TestSummary(t *testing.T) {
	u := newUpstream(t, map[string]string{
		"/page/Hello_World": `<html><body><article><span class="mb-4 block break-words">Hello world</span></article></body></html>`,
	})

	for _, path := range []string{"/api/rest_v1/page/summary/Hello_World", "/summary/Hello_World"} {
		t.Run(path, func(t *testing.T) {
			rec, doc := get(t, newProxy(u.srv.URL, 0).Handler(), path)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

			assert.Equal(t, domain.DocumentTypeStandard, doc.Type)
			assert.Equal(t, "Hello World", doc.Title)
			assert.Equal(t, "Hello world", doc.Extract)
			assert.Equal(t, `<article><span class="mb-4 block break-words">Hello world</span></article>`, doc.ExtractHTML)
			assert.Equal(t, "en", doc.Lang)
			assert.Equal(t, "ltr", doc.Dir)
			assert.Nil(t, doc.Timestamp)
		})
	}
}

func TestSummaryEncodesTimestampAsNull(t *testing.T) {
	u := newUpstream(t, map[string]string{"/page/Go": `<article><p>Go</p></article>`})

	rec := httptest.NewRecorder()
	newProxy(u.srv.URL, 0).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/summary/Go", nil))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))

	ts, ok := raw["timestamp"]
	assert.True(t, ok)
	assert.Nil(t, ts)
}

func TestSummaryNotFoundIsEmpty(t *testing.T) {
	u := newUpstream(t, nil)

	rec, doc := get(t, newProxy(u.srv.URL, 0).Handler(), "/summary/Nonexistent_Topic")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DocumentTypeStandard, doc.Type)
	assert.Equal(t, "Nonexistent Topic", doc.Title)
	assert.Empty(t, doc.Extract)
	assert.Empty(t, doc.ExtractHTML)
}

func TestSummaryEmptyTitleSkipsFetch(t *testing.T) {
	u := newUpstream(t, map[string]string{
		"/page/": `<main><p>Home page</p></main>`,
	})
	h := newProxy(u.srv.URL, 0).Handler()

	for _, path := range []string{"/summary/", "/api/rest_v1/page/summary/", "/summary/%20", "/summary/_"} {
		t.Run(path, func(t *testing.T) {
			rec, doc := get(t, h, path)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, domain.DocumentTypeStandard, doc.Type)
			assert.Empty(t, doc.Title)
			assert.Empty(t, doc.Extract)
			assert.Empty(t, doc.ExtractHTML)
		})
	}

	assert.Zero(t, u.hits.Load())
}

func TestSummaryFetchesEscapedTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/page/C%2B%2B_History", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`<article><p>C++ is a language.</p></article>`))
	}))
	defer srv.Close()

	_, doc := get(t, newProxy(srv.URL, 0).Handler(), "/summary/C%2B%2B_History")

	assert.Equal(t, "C++ History", doc.Title)
	assert.Equal(t, "C++ is a language.", doc.Extract)
}

func TestSummaryUpstreamErrorIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rec, doc := get(t, newProxy(srv.URL, 0).Handler(), "/summary/Rust")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DocumentTypeStandard, doc.Type)
	assert.Empty(t, doc.Extract)
}

func TestSummaryNetworkErrorIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	siteURL := srv.URL
	srv.Close()

	rec, doc := get(t, newProxy(siteURL, 0).Handler(), "/summary/Rust")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DocumentTypeStandard, doc.Type)
	assert.Empty(t, doc.Extract)
	assert.Empty(t, doc.ExtractHTML)
}

func TestSummaryNoContent(t *testing.T) {
	u := newUpstream(t, map[string]string{"/page/Blank": `<html><body><div>nothing</div></body></html>`})

	rec, doc := get(t, newProxy(u.srv.URL, 0).Handler(), "/summary/Blank")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No summary available.", doc.Extract)
	assert.Empty(t, doc.ExtractHTML)
}

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	return []byte("<article></article>"), nil
}

type failingExtractor struct{}

func (failingExtractor) Extract(_ []byte) (scrape.Page, error) {
	return scrape.Page{}, errors.New("broken markup")
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(_ []byte) (scrape.Page, error) {
	panic("unexpected node")
}

func TestSummaryExtractionErrorIsErrorDocument(t *testing.T) {
	s := proxy.New(stubFetcher{}, failingExtractor{}, 0, 0, slog.Default())

	rec, doc := get(t, s.Handler(), "/summary/Rust_Language")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, domain.DocumentTypeError, doc.Type)
	assert.Equal(t, "Rust Language", doc.Title)
	assert.Equal(t, "Error parsing content: broken markup", doc.Extract)
	assert.Empty(t, doc.ExtractHTML)
}

func TestSummaryPanicIsErrorDocument(t *testing.T) {
	s := proxy.New(stubFetcher{}, panickingExtractor{}, 0, 0, slog.Default())

	rec, doc := get(t, s.Handler(), "/summary/Rust")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, domain.DocumentTypeError, doc.Type)
	assert.Contains(t, doc.Extract, "unexpected node")
}

func TestSummaryKeepsRequestID(t *testing.T) {
	u := newUpstream(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/summary/Rust", nil)
	req.Header.Set("X-Request-Id", "abc-123")

	rec := httptest.NewRecorder()
	newProxy(u.srv.URL, 0).Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestSummaryCache(t *testing.T) {
	u := newUpstream(t, map[string]string{"/page/Go": `<article><p>Go</p></article>`})
	h := newProxy(u.srv.URL, 8).Handler()

	_, first := get(t, h, "/summary/Go")
	_, second := get(t, h, "/summary/Go")
	_, _ = get(t, h, "/summary/Missing")
	_, _ = get(t, h, "/summary/Missing")

	assert.Equal(t, first, second)
	assert.Equal(t, int32(3), u.hits.Load())
}

func TestSummaryWithoutCacheFetchesEveryTime(t *testing.T) {
	u := newUpstream(t, map[string]string{"/page/Go": `<article><p>Go</p></article>`})
	s := newProxy(u.srv.URL, 0)
	h := s.Handler()

	_, _ = get(t, h, "/summary/Go")
	_, _ = get(t, h, "/summary/Go")

	assert.False(t, s.CacheEnabled())
	assert.Zero(t, s.PurgeCache(time.Now()))
	assert.Equal(t, int32(2), u.hits.Load())
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newProxy("http://unused.test", 0).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, rec.Body.String())
}
