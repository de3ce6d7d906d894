package scraper

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"

	"feed-scraper/internal/usecase/scrape"
)

// RSSParser implements scrape.Parser for RSS 0.9x/2.0 documents.
// Atom and JSON feeds are rejected. Item pubDates are returned verbatim.
type RSSParser struct{}

func NewRSSParser() *RSSParser {
	return &RSSParser{}
}

func (p *RSSParser) Parse(body []byte) (*scrape.Document, error) {
	if t := gofeed.DetectFeedType(bytes.NewReader(body)); t != gofeed.FeedTypeRSS {
		return nil, fmt.Errorf("%w: not an RSS document", scrape.ErrParse)
	}

	fp := &rss.Parser{}
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scrape.ErrParse, err)
	}

	doc := &scrape.Document{
		Title: strings.TrimSpace(feed.Title),
		Items: make([]scrape.Item, 0, len(feed.Items)),
	}
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		// descriptionが空ならcontent:encodedを使う
		desc := it.Description
		if strings.TrimSpace(desc) == "" {
			desc = it.Content
		}
		doc.Items = append(doc.Items, scrape.Item{
			Title:       it.Title,
			Link:        strings.TrimSpace(it.Link),
			Description: desc,
			PubDate:     it.PubDate,
		})
	}
	return doc, nil
}
