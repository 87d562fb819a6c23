package httputil

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrStatusNotFound marks a well-formed 404 response, distinct from
// transport failures.
var ErrStatusNotFound = errors.New("resource not found")

var (
	// videoIDPattern matches YouTube-style 11-character video ids.
	videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

	// channelIDPattern matches channel ids and handles as both backends
	// format them (UC..., @handle, plain slugs).
	channelIDPattern = regexp.MustCompile(`^[a-zA-Z0-9@._-]+$`)
)

// ValidateURL checks that a URL is well-formed and uses HTTPS.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// ValidateVideoID checks that an id has the upstream 11-character shape.
func ValidateVideoID(id string) error {
	if id == "" {
		return fmt.Errorf("video ID cannot be empty")
	}
	if !videoIDPattern.MatchString(id) {
		return fmt.Errorf("invalid video ID %q", id)
	}
	return nil
}

// ValidateChannelID checks that a channel id contains only safe characters.
func ValidateChannelID(id string) error {
	if id == "" {
		return fmt.Errorf("channel ID cannot be empty")
	}
	if len(id) > 128 {
		return fmt.Errorf("channel ID too long: %d characters", len(id))
	}
	if !channelIDPattern.MatchString(id) {
		return fmt.Errorf("channel ID contains invalid characters: %q", id)
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("channel ID contains path traversal: %q", id)
	}
	return nil
}

// SanitizeFilename removes path traversal and dangerous characters from a
// filename. Returns just the base name, stripped of directory components.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)

	replacer := strings.NewReplacer(
		"..", "_",
		"/", "_",
		"\\", "_",
		"\x00", "",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = replacer.Replace(name)

	if name == "" || name == "." || name == ".." {
		return "untitled"
	}
	return name
}

// BuildURL constructs a URL from base and path components, encoding each
// path segment.
func BuildURL(base string, pathSegments ...string) string {
	u := strings.TrimRight(base, "/")
	for _, seg := range pathSegments {
		u += "/" + url.PathEscape(seg)
	}
	return u
}
