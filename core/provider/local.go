package provider

import (
	"context"
	"strings"

	"TemplePlayer/logger"
	"TemplePlayer/model"
)

const (
	unknownArtist   = "Unknown Artist"
	localAlbumName  = "Local Files"
	artistSeparator = " - "
)

var localCapabilities = model.Capabilities{CanLocalFiles: true}

// LocalProvider 本地文件来源
//
// Track ids are "local:" + the path exactly as given. Paths are not
// normalized, so two spellings of the same file are two different tracks.
type LocalProvider struct {
	NotSupported
}

// NewLocalProvider creates the local-files provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (p *LocalProvider) ID() string   { return LocalProviderID }
func (p *LocalProvider) Name() string { return "Local Files" }

func (p *LocalProvider) Initialize(context.Context) (model.Capabilities, error) {
	return localCapabilities, nil
}

func (p *LocalProvider) Shutdown(context.Context) error { return nil }

func (p *LocalProvider) Capabilities() model.Capabilities { return localCapabilities }

func (p *LocalProvider) AuthState() model.AuthState {
	return model.AuthState{Status: model.AuthUnauthenticated}
}

// ResolveFromLocalPaths builds tracks from file names only; nothing is read from disk.
func (p *LocalProvider) ResolveFromLocalPaths(_ context.Context, paths []string) ([]model.Track, error) {
	tracks := make([]model.Track, 0, len(paths))
	for _, path := range paths {
		artist, title := ParseFileName(path)
		tracks = append(tracks, model.Track{
			ID:         LocalProviderID + ":" + path,
			Title:      title,
			ArtistName: artist,
			AlbumName:  localAlbumName,
			DurationMs: 0,
			ProviderID: LocalProviderID,
		})
	}
	logger.Debug("[LocalProvider] resolved paths", logger.Int("count", len(tracks)))
	return tracks, nil
}

// PlaybackSource returns a file source for the path behind a "local:" id.
// The file is not checked; a missing file fails later at the playback device.
func (p *LocalProvider) PlaybackSource(_ context.Context, trackID string) (model.PlaybackSource, error) {
	path, ok := trimScheme(trackID, LocalProviderID)
	if !ok {
		return model.PlaybackSource{}, NewError(KindNotSupported, "track %q is not a local file", trackID)
	}
	return model.PlaybackSource{
		URL:        "file://" + path,
		StreamType: model.StreamTypeFile,
	}, nil
}

// ParseFileName derives artist and title from a path's file name.
// "Artist - Title.mp3" gives ("Artist", "Title"); further " - " stay in the
// title. Without a separator the artist is "Unknown Artist" and the title is
// the file name without its extension.
func ParseFileName(path string) (artist, title string) {
	name := baseName(path)
	if dot := strings.LastIndexByte(name, '.'); dot > 0 {
		name = name[:dot]
	}

	parts := strings.Split(name, artistSeparator)
	if len(parts) > 1 {
		return parts[0], strings.Join(parts[1:], artistSeparator)
	}
	return unknownArtist, name
}

// baseName splits on both separators so Windows paths parse the same on every OS.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
