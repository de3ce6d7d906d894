// Package pathutil reads route parameters and builds low-cardinality route
// labels for metrics.
package pathutil

import (
	"errors"
	"net/http"
	"strconv"
)

// ErrInvalidID is returned when a path ID is not a positive integer.
var ErrInvalidID = errors.New("invalid id")

// PathID parses the {name} wildcard of the matched ServeMux pattern.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
