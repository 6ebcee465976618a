package provider

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"TemplePlayer/core/netease"
	"TemplePlayer/logger"
	"TemplePlayer/model"
)

const NeteaseProviderID = "netease"

var neteaseCapabilities = model.Capabilities{
	CanSearch:       true,
	CanGetArtwork:   true,
	CanStreamHTTP:   true,
	SupportsHeaders: true,
}

// neteaseReferer is sent with stream requests; the CDN rejects some files without it.
const neteaseReferer = "https://music.163.com/"

// SearchCache stores search pages. Implemented by the redis cache.
type SearchCache interface {
	GetSearch(ctx context.Context, key string) (model.SearchResult, bool, error)
	SetSearch(ctx context.Context, key string, res model.SearchResult, ttl time.Duration) error
}

// NeteaseConfig configures the NetEase provider.
type NeteaseConfig struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int
	Cache    SearchCache // optional
	CacheTTL time.Duration
}

// NeteaseProvider 网易云音乐来源
// Searches use offset cursors: the cursor is the decimal offset of the next page.
type NeteaseProvider struct {
	NotSupported
	client   *netease.Client
	pageSize int
	cache    SearchCache
	cacheTTL time.Duration
}

// NewNeteaseProvider creates the NetEase provider.
func NewNeteaseProvider(cfg NeteaseConfig) *NeteaseProvider {
	client := netease.NewClient()
	if cfg.BaseURL != "" {
		client.SetBaseURL(cfg.BaseURL)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return &NeteaseProvider{
		client:   client,
		pageSize: pageSize,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
	}
}

func (p *NeteaseProvider) ID() string   { return NeteaseProviderID }
func (p *NeteaseProvider) Name() string { return "NetEase Cloud Music" }

func (p *NeteaseProvider) Initialize(context.Context) (model.Capabilities, error) {
	if p.client.BaseURL == "" {
		return model.Capabilities{}, NewError(KindNetworkError, "netease api url is not configured")
	}
	logger.Info("[NeteaseProvider] using api", logger.String("baseURL", p.client.BaseURL))
	return neteaseCapabilities, nil
}

func (p *NeteaseProvider) Shutdown(context.Context) error {
	p.client.HTTPClient.CloseIdleConnections()
	return nil
}

func (p *NeteaseProvider) Capabilities() model.Capabilities { return neteaseCapabilities }

// AuthState is always unauthenticated; the API is used anonymously.
func (p *NeteaseProvider) AuthState() model.AuthState {
	return model.AuthState{Status: model.AuthUnauthenticated}
}

func (p *NeteaseProvider) songID(trackID string) (string, error) {
	id, ok := trimScheme(trackID, NeteaseProviderID)
	if !ok {
		return "", NewError(KindNotSupported, "track %q is not from NetEase", trackID)
	}
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return "", NewError(KindContentUnavailable, "invalid NetEase song id %q", id)
	}
	return id, nil
}

// PlaybackSource resolves the current stream URL. The URL expires after a
// while, which is fine since sources are never reused across loads.
func (p *NeteaseProvider) PlaybackSource(ctx context.Context, trackID string) (model.PlaybackSource, error) {
	id, err := p.songID(trackID)
	if err != nil {
		return model.PlaybackSource{}, err
	}

	u, err := p.client.GetSongURL(ctx, id)
	if err != nil {
		return model.PlaybackSource{}, mapNeteaseError(err, "resolve stream for %s", id)
	}

	return model.PlaybackSource{
		URL:        u,
		MIME:       mimeFromName(u),
		StreamType: model.StreamTypeHTTP,
		Headers:    map[string]string{"Referer": neteaseReferer},
	}, nil
}

// SearchTracks 搜索歌曲
func (p *NeteaseProvider) SearchTracks(ctx context.Context, query, cursor string) (model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.SearchResult{}, nil
	}

	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return model.SearchResult{}, NewError(KindContentUnavailable, "invalid search cursor %q", cursor)
		}
		offset = n
	}

	key := fmt.Sprintf("search:%s:%d:%d:%s", NeteaseProviderID, p.pageSize, offset, strings.ToLower(query))
	if p.cache != nil {
		if res, ok, err := p.cache.GetSearch(ctx, key); err != nil {
			logger.Warn("[NeteaseProvider] search cache read failed", logger.String("key", key), logger.ErrorField(err))
		} else if ok {
			logger.Debug("[NeteaseProvider] search cache hit", logger.String("key", key))
			return res, nil
		}
	}

	raw, err := p.client.SearchSongs(ctx, query, p.pageSize, offset)
	if err != nil {
		return model.SearchResult{}, mapNeteaseError(err, "search %q", query)
	}

	res := model.SearchResult{Tracks: make([]model.Track, 0, len(raw.Songs))}
	for _, song := range raw.Songs {
		res.Tracks = append(res.Tracks, neteaseTrack(song))
	}
	if next := offset + len(raw.Songs); len(raw.Songs) > 0 && next < raw.Total {
		res.NextCursor = strconv.Itoa(next)
	}

	if p.cache != nil {
		if err := p.cache.SetSearch(ctx, key, res, p.cacheTTL); err != nil {
			logger.Warn("[NeteaseProvider] search cache write failed", logger.String("key", key), logger.ErrorField(err))
		}
	}
	return res, nil
}

// ArtworkURL returns the album cover scaled to size x size.
func (p *NeteaseProvider) ArtworkURL(ctx context.Context, trackID string, size int) (string, error) {
	id, err := p.songID(trackID)
	if err != nil {
		return "", err
	}
	if size <= 0 {
		size = defaultArtworkSize
	}

	song, err := p.client.GetSongDetail(ctx, id)
	if err != nil {
		return "", mapNeteaseError(err, "song detail for %s", id)
	}
	if song.Album.PicURL == "" {
		return "", NewError(KindContentUnavailable, "song %s has no cover", id)
	}
	return fmt.Sprintf("%s?param=%dy%d", song.Album.PicURL, size, size), nil
}

func neteaseTrack(song model.NeteaseSong) model.Track {
	artists := make([]string, 0, len(song.Artists))
	for _, a := range song.Artists {
		artists = append(artists, a.Name)
	}
	artist := strings.Join(artists, ", ")
	if artist == "" {
		artist = unknownArtist
	}
	return model.Track{
		ID:         fmt.Sprintf("%s:%d", NeteaseProviderID, song.ID),
		Title:      song.Name,
		ArtistName: artist,
		AlbumName:  song.Album.Name,
		DurationMs: int64(song.Duration),
		ArtworkURL: song.Album.PicURL,
		ProviderID: NeteaseProviderID,
	}
}

// mapNeteaseError sorts client failures into the provider error kinds.
func mapNeteaseError(err error, format string, args ...any) error {
	var (
		apiErr       *netease.APIError
		transportErr *netease.TransportError
	)
	switch {
	case errors.As(err, &transportErr),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return WrapError(KindNetworkError, err, format, args...)
	case errors.As(err, &apiErr) && apiErr.Code == netease.CodeNeedLogin:
		return WrapError(KindAuthRequired, err, format, args...)
	default:
		return WrapError(KindContentUnavailable, err, format, args...)
	}
}

var mimeByExt = map[string]string{
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".m3u8": "application/vnd.apple.mpegurl",
}

// mimeFromName guesses a MIME type from the extension of a URL or object key.
func mimeFromName(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return mimeByExt[strings.ToLower(path.Ext(name))]
}
