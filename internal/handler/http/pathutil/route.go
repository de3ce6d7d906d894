package pathutil

import (
	"net/http"
	"regexp"
	"strings"
)

var idSegment = regexp.MustCompile(`/\d+(/|$)`)

// RouteLabel returns the matched ServeMux pattern without its method
// ("/feeds/{id}"). Unrouted requests fall back to the path with numeric
// segments replaced by {id}.
func RouteLabel(r *http.Request) string {
	if p := r.Pattern; p != "" {
		if _, path, ok := strings.Cut(p, " "); ok {
			return path
		}
		return p
	}
	return NormalizePath(r.URL.Path)
}

// NormalizePath replaces numeric path segments with {id} and drops the
// trailing slash ("/feeds/12/entries/" -> "/feeds/{id}/entries").
func NormalizePath(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	for idSegment.MatchString(path) {
		path = idSegment.ReplaceAllString(path, "/{id}$1")
	}
	return path
}
