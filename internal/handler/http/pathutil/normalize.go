// Package pathutil maps request paths to route templates for metric labels.
package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern pairs a route regex with the label it is reported under.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

const seg = `[^/]+`

// pathPatterns are checked in order; longer routes come first.
var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/v1/providers/` + seg + `/request-token$`), Template: "/v1/providers/:provider/request-token"},
	{Pattern: regexp.MustCompile(`^/v1/providers/` + seg + `/callback$`), Template: "/v1/providers/:provider/callback"},

	{Pattern: regexp.MustCompile(`^/v1/accounts/` + seg + `/posts/` + seg + `/comments$`), Template: "/v1/accounts/:id/posts/:post/comments"},
	{Pattern: regexp.MustCompile(`^/v1/accounts/` + seg + `/posts/` + seg + `$`), Template: "/v1/accounts/:id/posts/:post"},
	{Pattern: regexp.MustCompile(`^/v1/accounts/` + seg + `/actions/` + seg + `$`), Template: "/v1/accounts/:id/actions/:action"},
	{Pattern: regexp.MustCompile(`^/v1/accounts/` + seg + `/feed$`), Template: "/v1/accounts/:id/feed"},
	{Pattern: regexp.MustCompile(`^/v1/accounts/` + seg + `/notifications$`), Template: "/v1/accounts/:id/notifications"},
	{Pattern: regexp.MustCompile(`^/v1/accounts/` + seg + `/pages$`), Template: "/v1/accounts/:id/pages"},
	{Pattern: regexp.MustCompile(`^/v1/accounts/` + seg + `$`), Template: "/v1/accounts/:id"},
}

// NormalizePath returns the route template of path, so that account and post
// ids do not become label values. Query strings and a trailing slash are
// ignored. Paths that match no route are returned as "other" unless they are
// one of the fixed top-level routes.
//
//	NormalizePath("/v1/accounts/9b1d/feed")  // "/v1/accounts/:id/feed"
//	NormalizePath("/v1/accounts")            // "/v1/accounts"
//	NormalizePath("/wp-login.php")           // "other"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	if _, ok := staticPaths[path]; ok {
		return path
	}
	return "other"
}

var staticPaths = map[string]struct{}{
	"/":             {},
	"/health":       {},
	"/ready":        {},
	"/live":         {},
	"/metrics":      {},
	"/v1/providers": {},
	"/v1/accounts":  {},
}

// ExpectedCardinality is the number of distinct labels NormalizePath returns.
func ExpectedCardinality() int {
	return len(pathPatterns) + len(staticPaths) + 1
}
