// Package subtitle handles caption-track selection and secure temp file
// management. Uses os.MkdirTemp with random suffixes instead of
// predictable /tmp paths.
package subtitle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"urchin/internal/httputil"
	"urchin/internal/media"
)

// Filter returns caption tracks matching the preferred language, by code
// or label (case-insensitive).
func Filter(captions []media.Caption, language string) []media.Caption {
	if language == "" {
		return captions
	}

	lang := strings.ToLower(language)
	var matched []media.Caption

	for _, c := range captions {
		if strings.EqualFold(c.Code, lang) ||
			strings.Contains(strings.ToLower(c.Label), lang) {
			matched = append(matched, c)
		}
	}

	return matched
}

// BestMatch returns the best caption track for the given language.
// Prefers an exact language-code match over label matches, and manually
// authored tracks over auto-generated ones.
func BestMatch(captions []media.Caption, language string) *media.Caption {
	filtered := Filter(captions, language)
	if len(filtered) == 0 {
		return nil
	}

	for _, c := range filtered {
		if strings.EqualFold(c.Code, language) &&
			!strings.Contains(strings.ToLower(c.Label), "auto-generated") {
			return &c
		}
	}

	// Fall back to first match
	return &filtered[0]
}

// TempDir manages a secure temporary directory for subtitle files.
type TempDir struct {
	path string
}

// NewTempDir creates a randomized temporary directory for subtitle files.
func NewTempDir() (*TempDir, error) {
	dir, err := os.MkdirTemp("", "urchin-subs-*")
	if err != nil {
		return nil, fmt.Errorf("creating subtitle temp dir: %w", err)
	}
	return &TempDir{path: dir}, nil
}

// Cleanup removes the temporary directory and all contents.
func (t *TempDir) Cleanup() {
	if t.path != "" {
		os.RemoveAll(t.path)
	}
}

// Download fetches a caption track to the temp directory and returns the
// local path.
func (t *TempDir) Download(ctx context.Context, client *httputil.Client, c media.Caption) (string, error) {
	if err := httputil.ValidateURL(c.URL); err != nil {
		return "", fmt.Errorf("invalid subtitle URL: %w", err)
	}

	// Determine filename from URL
	filename := "subtitle.vtt"
	if parts := strings.Split(c.URL, "/"); len(parts) > 0 {
		last := parts[len(parts)-1]
		if idx := strings.Index(last, "?"); idx != -1 {
			last = last[:idx]
		}
		if last != "" {
			filename = httputil.SanitizeFilename(last)
		}
	}

	localPath := filepath.Join(t.path, filename)

	resp, err := client.Get(ctx, c.URL)
	if err != nil {
		return "", fmt.Errorf("downloading subtitle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("subtitle download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("creating subtitle file: %w", err)
	}
	defer f.Close()

	// Limit subtitle file size to 10MB
	if _, err := io.Copy(f, io.LimitReader(resp.Body, 10*1024*1024)); err != nil {
		return "", fmt.Errorf("writing subtitle file: %w", err)
	}

	return localPath, nil
}
