// Package provider resolves content descriptors into tracks and tracks into
// playable sources, across heterogeneous backends.
package provider

import (
	"context"
	"strings"

	"TemplePlayer/model"
)

// Provider 音乐来源接口
//
// The optional operations (auth, local paths, search, artwork) are part of the
// method set of every provider. Callers check Capabilities before invoking one;
// a provider that does not support an operation fails it with not_supported.
type Provider interface {
	// ID is the provider id and the descriptor scheme it owns.
	ID() string
	Name() string

	// Initialize must be called exactly once before any other operation.
	Initialize(ctx context.Context) (model.Capabilities, error)
	// Shutdown releases held resources. Nothing may be called afterwards.
	Shutdown(ctx context.Context) error

	Capabilities() model.Capabilities
	AuthState() model.AuthState

	// BeginAuth and EndAuth require CanAuth.
	BeginAuth(ctx context.Context) error
	EndAuth(ctx context.Context) error

	// ResolveFromLocalPaths requires CanLocalFiles.
	ResolveFromLocalPaths(ctx context.Context, paths []string) ([]model.Track, error)

	// PlaybackSource resolves a track id into a source. Ids of another scheme
	// fail with not_supported.
	PlaybackSource(ctx context.Context, trackID string) (model.PlaybackSource, error)

	// SearchTracks requires CanSearch. An empty cursor requests the first page.
	SearchTracks(ctx context.Context, query, cursor string) (model.SearchResult, error)

	// ArtworkURL requires CanGetArtwork. size <= 0 selects the provider default.
	ArtworkURL(ctx context.Context, trackID string, size int) (string, error)
}

// NotSupported implements every optional operation as a not_supported failure.
// Providers embed it and override what their capabilities declare.
type NotSupported struct{}

func (NotSupported) BeginAuth(context.Context) error {
	return NewError(KindNotSupported, "authentication is not supported")
}

func (NotSupported) EndAuth(context.Context) error {
	return NewError(KindNotSupported, "authentication is not supported")
}

func (NotSupported) ResolveFromLocalPaths(context.Context, []string) ([]model.Track, error) {
	return nil, NewError(KindNotSupported, "local files are not supported")
}

func (NotSupported) SearchTracks(context.Context, string, string) (model.SearchResult, error) {
	return model.SearchResult{}, NewError(KindNotSupported, "search is not supported")
}

func (NotSupported) ArtworkURL(context.Context, string, int) (string, error) {
	return "", NewError(KindNotSupported, "artwork is not supported")
}

// trimScheme strips "<scheme>:" from id. ok is false when id belongs to another scheme.
func trimScheme(id, scheme string) (rest string, ok bool) {
	prefix := scheme + ":"
	if !strings.HasPrefix(id, prefix) {
		return "", false
	}
	return id[len(prefix):], true
}
