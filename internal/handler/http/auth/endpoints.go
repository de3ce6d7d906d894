// Package auth protects the admin API with HS256 bearer tokens.
package auth

import "strings"

// PublicEndpoints are reachable without a token: probes and metrics.
var PublicEndpoints = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
}

// IsPublicEndpoint reports whether path is a public endpoint.
// Only exact matches (with an optional trailing slash) count, so /health
// does not open /healthcheck or /health/detail.
func IsPublicEndpoint(path string) bool {
	path = strings.TrimSuffix(path, "/")
	for _, endpoint := range PublicEndpoints {
		if path == endpoint {
			return true
		}
	}
	return false
}
