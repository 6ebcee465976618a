package provider

import (
	"context"
	"fmt"
	"sync"

	"TemplePlayer/model"
)

const (
	TidalProviderID     = "tidal"
	defaultArtworkSize  = 640
	tidalArtworkBaseURL = "https://resources.tidal.com/images"
)

var tidalCapabilities = model.Capabilities{
	CanSearch:       true,
	CanGetArtwork:   true,
	CanAuth:         true,
	CanStreamHTTP:   true,
	SupportsHLS:     true,
	SupportsHeaders: true,
	SupportsDRM:     true,
}

// TidalProvider is the TIDAL catalog backend.
// Authentication is not implemented yet, so playback and search always
// report auth_required.
type TidalProvider struct {
	mu   sync.RWMutex
	auth model.AuthState
}

// NewTidalProvider creates the TIDAL provider.
func NewTidalProvider() *TidalProvider {
	return &TidalProvider{auth: model.AuthState{Status: model.AuthUnauthenticated}}
}

func (p *TidalProvider) ID() string   { return TidalProviderID }
func (p *TidalProvider) Name() string { return "TIDAL" }

func (p *TidalProvider) Initialize(context.Context) (model.Capabilities, error) {
	return tidalCapabilities, nil
}

func (p *TidalProvider) Shutdown(context.Context) error { return nil }

func (p *TidalProvider) Capabilities() model.Capabilities { return tidalCapabilities }

func (p *TidalProvider) AuthState() model.AuthState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.auth
}

func (p *TidalProvider) BeginAuth(context.Context) error {
	return NewError(KindNotSupported, "TIDAL authentication not yet implemented")
}

func (p *TidalProvider) EndAuth(context.Context) error {
	p.mu.Lock()
	p.auth = model.AuthState{Status: model.AuthUnauthenticated}
	p.mu.Unlock()
	return nil
}

func (p *TidalProvider) ResolveFromLocalPaths(context.Context, []string) ([]model.Track, error) {
	return nil, NewError(KindNotSupported, "TIDAL does not resolve local files")
}

func (p *TidalProvider) PlaybackSource(_ context.Context, trackID string) (model.PlaybackSource, error) {
	if _, ok := trimScheme(trackID, TidalProviderID); !ok {
		return model.PlaybackSource{}, NewError(KindNotSupported, "track %q is not from TIDAL", trackID)
	}
	return model.PlaybackSource{}, NewError(KindAuthRequired, "TIDAL playback requires authentication")
}

func (p *TidalProvider) SearchTracks(context.Context, string, string) (model.SearchResult, error) {
	return model.SearchResult{}, NewError(KindAuthRequired, "TIDAL search requires authentication")
}

// ArtworkURL builds the image URL for a TIDAL track id.
// The image service only has the 640 rendition wired up; other sizes are ignored.
func (p *TidalProvider) ArtworkURL(_ context.Context, trackID string, size int) (string, error) {
	id, ok := trimScheme(trackID, TidalProviderID)
	if !ok {
		return "", NewError(KindNotSupported, "track %q is not from TIDAL", trackID)
	}
	return fmt.Sprintf("%s/%s/%dx%d.jpg", tidalArtworkBaseURL, id, defaultArtworkSize, defaultArtworkSize), nil
}
