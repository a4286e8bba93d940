// Package urlutil provides URL normalization for the supported video URL
// shapes and filename sanitizing for download responses.
package urlutil

import (
	"strings"

	"ytgrab-go/pkg/types"
)

// The two accepted URL shapes. A watch-page URL carries the ID in the v query
// parameter; a short link carries it as the first path segment.
const (
	watchMarker = "v="
	shortMarker = "youtu.be/"
)

// ExtractVideoID returns the canonical video identifier embedded in rawURL.
// Both accepted shapes for the same video normalize to the same ID. The ID is
// the substring after the marker up to the next '&', '?', or end of string.
func ExtractVideoID(rawURL string) (string, error) {
	var rest string
	if i := strings.Index(rawURL, watchMarker); i >= 0 {
		rest = rawURL[i+len(watchMarker):]
	} else if i := strings.Index(rawURL, shortMarker); i >= 0 {
		rest = rawURL[i+len(shortMarker):]
	} else {
		return "", types.NewError(types.ErrInvalidURL, "unrecognized video URL: %s", rawURL)
	}

	if j := strings.IndexByte(rest, '&'); j >= 0 {
		rest = rest[:j]
	}
	if j := strings.IndexByte(rest, '?'); j >= 0 {
		rest = rest[:j]
	}
	if rest == "" {
		return "", types.NewError(types.ErrInvalidURL, "empty video id in URL: %s", rawURL)
	}
	return rest, nil
}

// SanitizeFilename strips characters that break Content-Disposition headers
// or filesystem paths from a display title.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"\"", "'",
		"\n", " ",
		"\r", " ",
		"\x00", "",
	)
	cleaned := strings.TrimSpace(replacer.Replace(name))
	if cleaned == "" {
		return "download"
	}
	return cleaned
}
