package domain

const (
	DocumentTypeStandard = "standard"
	DocumentTypeError    = "error"
)

// SummaryDocument is the Wikipedia REST summary shape exchanged between
// the proxy and the search engine.
type SummaryDocument struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Extract     string  `json:"extract"`
	ExtractHTML string  `json:"extract_html"`
	Lang        string  `json:"lang,omitempty"`
	Dir         string  `json:"dir,omitempty"`
	Timestamp   *string `json:"timestamp"`
}

type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Result is either a list entry (URL set) or an infobox (Infobox set).
type Result struct {
	URL     string `json:"url,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Infobox string `json:"infobox,omitempty"`
	ID      string `json:"id,omitempty"`
	URLs    []Link `json:"urls,omitempty"`
}

func (r Result) IsInfobox() bool {
	return r.Infobox != ""
}
