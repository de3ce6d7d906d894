package scrape

import "context"

// Fetcher downloads a feed document.
// Implementations wrap every failure with ErrFetch.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser decodes an RSS document.
// Implementations wrap every failure with ErrParse.
type Parser interface {
	Parse(body []byte) (*Document, error)
}

// Document is a parsed RSS channel.
type Document struct {
	Title string
	Items []Item
}

// Item keeps the raw strings of an RSS <item>, in document order.
// PubDate is parsed by the engine so a bad date only drops its item.
type Item struct {
	Title       string
	Link        string
	Description string
	PubDate     string
}
