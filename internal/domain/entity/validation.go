package entity

import (
	"fmt"
	"net"
	"net/url"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

// ValidateURL checks that rawURL is an absolute http(s) URL with a host.
// It does not resolve the host; see ValidatePublicURL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "url is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: "url is invalid"}
	}

	// HTTPまたはHTTPSスキームのみ許可
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "url must use http or https scheme"}
	}

	if parsedURL.Hostname() == "" {
		return &ValidationError{Field: "url", Message: "url must have a valid host"}
	}

	return nil
}

// ValidatePublicURL runs ValidateURL and additionally rejects hosts that
// resolve to loopback, link-local or private addresses (SSRF).
// Resolution failures are not treated as errors; the scrape will fail instead.
func ValidatePublicURL(rawURL string) error {
	if err := ValidateURL(rawURL); err != nil {
		return err
	}

	parsedURL, _ := url.Parse(rawURL)
	ips, err := lookupIP(parsedURL.Hostname())
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return &ValidationError{
				Field:   "url",
				Message: "url cannot point to private network",
			}
		}
	}
	return nil
}

// lookupIP is replaced in tests.
var lookupIP = net.LookupIP

// isPrivateIP reports whether ip is loopback, link-local, unspecified or in a
// private range (RFC 1918, RFC 4193). 169.254.169.254 is covered by link-local.
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified() ||
		ip.IsPrivate()
}
