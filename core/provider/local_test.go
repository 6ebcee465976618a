package provider

import (
	"context"
	"errors"
	"testing"

	"TemplePlayer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileName(t *testing.T) {
	tests := []struct {
		path   string
		artist string
		title  string
	}{
		{"/music/Artist - Title.mp3", "Artist", "Title"},
		{"/music/A - B - C.flac", "A", "B - C"},
		{"/music/JustTitle.wav", "Unknown Artist", "JustTitle"},
		{`C:\Music\Band - Song.mp3`, "Band", "Song"},
		{"/music/.hidden", "Unknown Artist", ".hidden"},
		{"/music/archive.tar.gz", "Unknown Artist", "archive.tar"},
		{"noext", "Unknown Artist", "noext"},
		{"/music/Artist-Title.mp3", "Unknown Artist", "Artist-Title"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			artist, title := ParseFileName(tt.path)
			assert.Equal(t, tt.artist, artist)
			assert.Equal(t, tt.title, title)
		})
	}
}

func TestLocalProvider_ResolveFromLocalPaths(t *testing.T) {
	p := NewLocalProvider()
	tracks, err := p.ResolveFromLocalPaths(context.Background(), []string{
		"/music/Artist - Title.mp3",
		"/music/JustTitle.wav",
	})
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	assert.Equal(t, model.Track{
		ID:         "local:/music/Artist - Title.mp3",
		Title:      "Title",
		ArtistName: "Artist",
		AlbumName:  "Local Files",
		ProviderID: "local",
	}, tracks[0])
	assert.Equal(t, "Unknown Artist", tracks[1].ArtistName)
	assert.Equal(t, "JustTitle", tracks[1].Title)
	assert.Zero(t, tracks[1].DurationMs)
}

func TestLocalProvider_ResolveEmpty(t *testing.T) {
	tracks, err := NewLocalProvider().ResolveFromLocalPaths(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestLocalProvider_PlaybackSource(t *testing.T) {
	p := NewLocalProvider()

	src, err := p.PlaybackSource(context.Background(), "local:/x.mp3")
	require.NoError(t, err)
	assert.Equal(t, model.PlaybackSource{URL: "file:///x.mp3", StreamType: model.StreamTypeFile}, src)

	_, err = p.PlaybackSource(context.Background(), "tidal:123")
	assert.True(t, errors.Is(err, ErrNotSupported))
}

func TestLocalProvider_Capabilities(t *testing.T) {
	p := NewLocalProvider()
	caps, err := p.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Capabilities{CanLocalFiles: true}, caps)
	assert.Equal(t, model.AuthUnauthenticated, p.AuthState().Status)

	_, err = p.SearchTracks(context.Background(), "q", "")
	assert.Equal(t, KindNotSupported, KindOf(err))
	assert.Equal(t, KindNotSupported, KindOf(p.BeginAuth(context.Background())))
}
