package auth

import "strings"

// PublicEndpoints are served without a token: probes, metrics and API docs.
var PublicEndpoints = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
	"/swagger/",
}

// IsPublicEndpoint reports whether path is served without a token.
// Entries ending in '/' match as prefixes. Others match exactly, with an
// optional trailing slash, so /health does not expose /healthcheck or
// /health/detail.
func IsPublicEndpoint(path string) bool {
	for _, endpoint := range PublicEndpoints {
		if strings.HasSuffix(endpoint, "/") {
			if strings.HasPrefix(path, endpoint) {
				return true
			}
			continue
		}
		if path == endpoint || path == endpoint+"/" {
			return true
		}
	}
	return false
}
