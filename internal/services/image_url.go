package services

import "strings"

// OptimizedImageParams is the transformation block appended to every gallery image URL
const OptimizedImageParams = "auto=format,compress&fit=crop&w=800&q=80"

// OptimizedImageURL rewrites an image URL to request the optimized rendition.
// Any existing query string is dropped first, so the result is stable when
// applied again. Nil or empty input yields nil.
func OptimizedImageURL(raw *string) *string {
	if raw == nil || *raw == "" {
		return nil
	}

	base := *raw
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}

	optimized := base + "?" + OptimizedImageParams
	return &optimized
}

// optimizeURL is the string form used for projected fields that are empty when absent
func optimizeURL(raw string) string {
	if out := OptimizedImageURL(&raw); out != nil {
		return *out
	}
	return ""
}
