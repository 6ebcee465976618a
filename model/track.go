package model

import "strings"

// Track is a playable item produced by a provider.
// The ID always carries the owning provider's scheme, e.g. "local:/music/a.mp3" or "tidal:123".
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ArtistName string `json:"artistName"`
	AlbumName  string `json:"albumName"`
	DurationMs int64  `json:"durationMs"` // 0 when unknown
	ArtworkURL string `json:"artworkUrl,omitempty"`
	Explicit   bool   `json:"explicit,omitempty"`
	ProviderID string `json:"providerId"`
}

// Scheme returns the part of the ID before the first ':' or "" if there is none.
func (t Track) Scheme() string {
	return SchemeOf(t.ID)
}

// SchemeOf returns the scheme prefix of a descriptor, or "" for a bare path.
func SchemeOf(descriptor string) string {
	i := strings.IndexByte(descriptor, ':')
	if i < 0 {
		return ""
	}
	return descriptor[:i]
}

// StreamType describes how the bytes behind a PlaybackSource are delivered.
type StreamType string

const (
	StreamTypeFile StreamType = "file"
	StreamTypeHTTP StreamType = "http"
	StreamTypeHLS  StreamType = "hls"
)

// DRM is an opaque licence descriptor; nothing in this module acquires licences.
type DRM struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// PlaybackSource is resolved per track and per load.
// It is only valid until the next load and must not be cached across track changes.
type PlaybackSource struct {
	URL        string            `json:"url"`
	MIME       string            `json:"mime,omitempty"`
	StreamType StreamType        `json:"streamType"`
	Headers    map[string]string `json:"headers,omitempty"`
	DRM        *DRM              `json:"drm,omitempty"`
}

// SearchResult is one page of a cursor-paginated catalog search.
// An empty NextCursor marks the last page.
type SearchResult struct {
	Tracks     []Track `json:"tracks"`
	NextCursor string  `json:"nextCursor,omitempty"`
}
