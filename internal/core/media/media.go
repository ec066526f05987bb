// Package media abstracts the remote blob store that holds attachment content.
package media

import (
	"context"
	"encoding/base64"
	"net/url"
	"path"
	"strings"
)

// Locator addresses an uploaded blob
type Locator struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Store is a remote media store.
// Upload either returns a usable locator or an *UploadError, never both.
// Delete of an id the provider does not know is a success.
type Store interface {
	Upload(ctx context.Context, data []byte) (*Locator, error)
	Delete(ctx context.Context, publicID string) error
}

// PublicIDFromURL derives the provider id from a blob URL: the trailing path
// segment with its last extension removed. Returns "" when nothing can be derived.
func PublicIDFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	} else if idx == 0 {
		return ""
	}
	return base
}

// DeleteByURL deletes the blob addressed by rawURL.
// It is a no-op when no id can be derived from the URL.
func DeleteByURL(ctx context.Context, store Store, rawURL string) error {
	id := PublicIDFromURL(rawURL)
	if id == "" {
		return nil
	}
	return store.Delete(ctx, id)
}

// DecodeContent decodes base64 attachment content.
// An optional "data:<mime>;base64," prefix is stripped first.
func DecodeContent(content string) ([]byte, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "data:") {
		if idx := strings.Index(content, ","); idx >= 0 {
			content = content[idx+1:]
		}
	}
	if content == "" {
		return nil, ErrEmptyContent
	}
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, ErrInvalidContent
	}
	if len(data) == 0 {
		return nil, ErrEmptyContent
	}
	return data, nil
}
