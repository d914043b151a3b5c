package scrape

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	NoSummary = "No summary available."

	// Body paragraphs on the site are spans styled "mb-4 block break-words".
	paragraphClassMarker = "break-words"
)

// Page is what the extractor pulls out of a site page.
type Page struct {
	HTML string
	Text string
}

// Strategy locates the summary text inside scope. It reports false when it finds nothing usable.
type Strategy interface {
	Extract(scope *goquery.Selection) (string, bool)
}

// ClassContains picks the first Tag element whose class attribute contains Marker.
type ClassContains struct {
	Tag    string
	Marker string
}

func (s ClassContains) Extract(scope *goquery.Selection) (string, bool) {
	match := scope.Find(s.Tag).FilterFunction(func(_ int, el *goquery.Selection) bool {
		class, ok := el.Attr("class")
		return ok && strings.Contains(class, s.Marker)
	}).First()

	return text(match)
}

// FirstElement picks the first Tag element.
type FirstElement struct {
	Tag string
}

func (s FirstElement) Extract(scope *goquery.Selection) (string, bool) {
	return text(scope.Find(s.Tag).First())
}

type Extractor struct {
	containers []string
	strategies []Strategy
}

func NewExtractor() *Extractor {
	return &Extractor{
		containers: []string{"article", "main"},
		strategies: []Strategy{
			ClassContains{Tag: "span", Marker: paragraphClassMarker},
			FirstElement{Tag: "p"},
			FirstElement{Tag: "span"},
		},
	}
}

// Extract parses an HTML page. The container's outer HTML becomes Page.HTML and
// the first strategy that yields text inside it becomes Page.Text.
func (e *Extractor) Extract(page []byte) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return Page{}, fmt.Errorf("create document from reader: %w", err)
	}

	scope := doc.Selection
	var extractHTML string

	if container := e.container(doc); container != nil {
		extractHTML, err = goquery.OuterHtml(container)
		if err != nil {
			return Page{}, fmt.Errorf("render container: %w", err)
		}
		scope = container
	}

	return Page{HTML: extractHTML, Text: e.summary(scope)}, nil
}

func (e *Extractor) container(doc *goquery.Document) *goquery.Selection {
	for _, tag := range e.containers {
		if found := doc.Find(tag).First(); found.Length() > 0 {
			return found
		}
	}

	return nil
}

func (e *Extractor) summary(scope *goquery.Selection) string {
	for _, s := range e.strategies {
		if t, ok := s.Extract(scope); ok {
			return t
		}
	}

	return NoSummary
}

func text(s *goquery.Selection) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}

	t := strings.Join(strings.Fields(s.Text()), " ")

	return t, t != ""
}
