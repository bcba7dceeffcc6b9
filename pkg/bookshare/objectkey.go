package bookshare

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

// Blob folder prefixes. Keys are "<folder>/<name>" with no extension so
// that BlobKeyFromURL can reconstruct them from a durable URL.
const (
	documentFolder = "library_pdfs"
	coverFolder    = "library_covers"
)

// documentKey builds the storage key for a book's document blob. The
// millisecond timestamp plus the sanitized title keeps collisions
// unlikely without coordinating with the store.
func documentKey(title string, now time.Time) string {
	return fmt.Sprintf("%s/pdf_%d_%s", documentFolder, now.UnixMilli(), sanitizeTitle(title))
}

// coverKey builds the storage key for a book's cover image blob.
func coverKey(title string, now time.Time) string {
	return fmt.Sprintf("%s/cover_%d_%s", coverFolder, now.UnixMilli(), sanitizeTitle(title))
}

// sanitizeTitle replaces every non-alphanumeric character with an
// underscore so the title is safe inside a storage key.
func sanitizeTitle(title string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, title)
}

// BlobKeyFromURL derives the storage key for a blob from its durable
// URL: the last two path segments form folder plus filename, with any
// extension stripped. It returns "" when the URL has fewer than two
// path segments or cannot be parsed.
func BlobKeyFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return ""
	}
	folder := segments[len(segments)-2]
	name := segments[len(segments)-1]
	name = strings.TrimSuffix(name, path.Ext(name))
	if folder == "" || name == "" {
		return ""
	}
	return folder + "/" + name
}
