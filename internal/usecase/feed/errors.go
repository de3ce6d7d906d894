// Package feed provides use cases for managing registered feeds: registration,
// URL changes, renames, deletion and seeding from a feed list.
package feed

import "errors"

var (
	// ErrFeedNotFound indicates that the requested feed does not exist.
	ErrFeedNotFound = errors.New("feed not found")

	// ErrDuplicateFeed indicates that a feed with the same URL is already registered.
	ErrDuplicateFeed = errors.New("feed already registered")
)
