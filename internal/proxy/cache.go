package proxy

import (
	"container/list"
	"grokipedia/internal/domain"
	"sync"
	"time"
)

type summaryCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
	ttl        time.Duration
}

type summaryCacheEntry struct {
	key       string
	doc       domain.SummaryDocument
	expiresAt time.Time
}

// newSummaryCache returns nil when caching is disabled. A nil cache is a valid no-op.
func newSummaryCache(maxEntries int, ttl time.Duration) *summaryCache {
	if maxEntries <= 0 || ttl <= 0 {
		return nil
	}

	return &summaryCache{
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

func (c *summaryCache) get(key string, now time.Time) (domain.SummaryDocument, bool) {
	if c == nil || key == "" {
		return domain.SummaryDocument{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return domain.SummaryDocument{}, false
	}

	entry, ok := elem.Value.(*summaryCacheEntry)
	if !ok {
		return domain.SummaryDocument{}, false
	}

	if now.After(entry.expiresAt) {
		c.removeElement(elem)

		return domain.SummaryDocument{}, false
	}

	c.order.MoveToFront(elem)

	return entry.doc, true
}

// set stores extracted documents only. Error documents and empty (not found or
// unreachable) documents are never cached so the page is retried next time.
func (c *summaryCache) set(key string, doc domain.SummaryDocument, now time.Time) {
	if c == nil || key == "" || !cacheable(doc) {
		return
	}

	expiresAt := now.Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry, castOk := elem.Value.(*summaryCacheEntry)
		if !castOk {
			return
		}

		entry.doc = doc
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)

		return
	}

	elem := c.order.PushFront(&summaryCacheEntry{
		key:       key,
		doc:       doc,
		expiresAt: expiresAt,
	})
	c.entries[key] = elem

	c.evictExpiredLocked(now)
	c.enforceSizeLimitLocked()
}

// purge drops expired entries and reports how many were removed.
func (c *summaryCache) purge(now time.Time) int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	before := len(c.entries)
	c.evictExpiredLocked(now)

	return before - len(c.entries)
}

func (c *summaryCache) size() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *summaryCache) evictExpiredLocked(now time.Time) {
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()

		entry, ok := elem.Value.(*summaryCacheEntry)
		if ok && now.After(entry.expiresAt) {
			c.removeElement(elem)
		}

		elem = prev
	}
}

func (c *summaryCache) enforceSizeLimitLocked() {
	for len(c.entries) > c.maxEntries {
		elem := c.order.Back()
		if elem == nil {
			return
		}
		c.removeElement(elem)
	}
}

func (c *summaryCache) removeElement(elem *list.Element) {
	entry, ok := elem.Value.(*summaryCacheEntry)
	if !ok {
		return
	}

	delete(c.entries, entry.key)
	c.order.Remove(elem)
}

func cacheable(doc domain.SummaryDocument) bool {
	return doc.Type == domain.DocumentTypeStandard && (doc.Extract != "" || doc.ExtractHTML != "")
}
