package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedSpec is one entry of a feed list file:
//
//	feeds:
//	  - name: Go Blog
//	    url: https://example.com/blog/rss.xml
type FeedSpec struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type feedList struct {
	Feeds []FeedSpec `yaml:"feeds"`
}

// LoadFeeds reads a YAML feed list.
// The path parameter is expected to come from a trusted source (FEEDS_FILE or a CLI argument).
func LoadFeeds(path string) ([]FeedSpec, error) {
	// #nosec G304 -- path is provided by trusted source (env or CLI arg), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file: %w", err)
	}
	return ParseFeeds(data)
}

// ParseFeeds decodes and validates a feed list. Unknown keys are rejected.
func ParseFeeds(data []byte) ([]FeedSpec, error) {
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)

	var list feedList
	if err := dec.Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file: %w", err)
	}

	seen := make(map[string]int, len(list.Feeds))
	for i := range list.Feeds {
		f := &list.Feeds[i]
		f.Name = strings.TrimSpace(f.Name)
		f.URL = strings.TrimSpace(f.URL)
		if f.URL == "" {
			return nil, fmt.Errorf("feeds[%d]: url is required", i)
		}
		if j, dup := seen[f.URL]; dup {
			return nil, fmt.Errorf("feeds[%d]: duplicate url %q (also feeds[%d])", i, f.URL, j)
		}
		seen[f.URL] = i
	}
	return list.Feeds, nil
}
