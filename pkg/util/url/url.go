// Package url provides URL joining utilities for API endpoints.
package url

import "strings"

// JoinEndpoint joins a base URL and an endpoint path, normalizing the
// slash between them so "http://host/" + "/health" and
// "http://host" + "health" both yield "http://host/health".
func JoinEndpoint(baseURL, path string) string {
	base := strings.TrimSuffix(baseURL, "/")
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
