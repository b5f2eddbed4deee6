package gh

import (
	"net/url"
	"strings"
)

// EncodePath percent-encodes a repository-relative path one segment at
// a time. `.`/`..`/empty segments are dropped first so a crafted path
// can never escape onto an unintended endpoint.
func EncodePath(path string) string {
	segments := strings.Split(path, "/")
	encoded := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		encoded = append(encoded, url.PathEscape(seg))
	}
	return strings.Join(encoded, "/")
}

// encodeSegment encodes a single owner/repo/branch value.
func encodeSegment(s string) string {
	return url.PathEscape(s)
}
