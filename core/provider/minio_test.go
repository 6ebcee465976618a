package provider

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"TemplePlayer/model"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjectStore serves a fixed set of keys the way a bucket listing would.
type fakeObjectStore struct {
	keys       []string
	types      map[string]string
	statErr    error
	listErr    error
	bucketGone bool
}

func (f *fakeObjectStore) BucketExists(context.Context, string) (bool, error) {
	return !f.bucketGone, nil
}

func (f *fakeObjectStore) ListObjects(ctx context.Context, _ string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	keys := append([]string(nil), f.keys...)
	sort.Strings(keys)
	ch := make(chan minio.ObjectInfo)
	go func() {
		defer close(ch)
		if f.listErr != nil {
			ch <- minio.ObjectInfo{Err: f.listErr}
			return
		}
		for _, k := range keys {
			if !strings.HasPrefix(k, opts.Prefix) || k <= opts.StartAfter {
				continue
			}
			select {
			case ch <- minio.ObjectInfo{Key: k}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (f *fakeObjectStore) StatObject(_ context.Context, _, key string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	if f.statErr != nil {
		return minio.ObjectInfo{}, f.statErr
	}
	for _, k := range f.keys {
		if k == key {
			return minio.ObjectInfo{Key: k, ContentType: f.types[k]}, nil
		}
	}
	return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", Key: key}
}

func (f *fakeObjectStore) PresignedGetObject(_ context.Context, bucket, key string, _ time.Duration, _ url.Values) (*url.URL, error) {
	return &url.URL{Scheme: "http", Host: "minio.local", Path: "/" + bucket + "/" + key, RawQuery: "X-Amz-Signature=fake"}, nil
}

func newMinioTestProvider(store *fakeObjectStore, pageSize int) *MinioProvider {
	return NewMinioProvider(store, MinioConfig{Bucket: "tracks", Prefix: "music/", PageSize: pageSize, PresignExpiry: time.Minute})
}

func TestMinioProvider_Initialize(t *testing.T) {
	caps, err := newMinioTestProvider(&fakeObjectStore{}, 0).Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Capabilities{CanSearch: true, CanStreamHTTP: true}, caps)

	_, err = newMinioTestProvider(&fakeObjectStore{bucketGone: true}, 0).Initialize(context.Background())
	assert.Equal(t, KindContentUnavailable, KindOf(err))
}

func TestMinioProvider_SearchTracks(t *testing.T) {
	store := &fakeObjectStore{keys: []string{
		"music/Rock/Band - Love Song.mp3",
		"music/Rock/Band - Other.mp3",
		"music/Jazz/Trio - Lovely Day.flac",
		"music/Jazz/cover.jpg",
		"music/Pop/love.m3u8",
		"music/Pop/Singer - Glove.wav",
		"outside/Love.mp3",
	}}
	p := newMinioTestProvider(store, 2)
	ctx := context.Background()

	first, err := p.SearchTracks(ctx, "LOVE", "")
	require.NoError(t, err)
	require.Len(t, first.Tracks, 2)
	assert.Equal(t, model.Track{
		ID:         "minio:music/Jazz/Trio - Lovely Day.flac",
		Title:      "Lovely Day",
		ArtistName: "Trio",
		AlbumName:  "Jazz",
		ProviderID: "minio",
	}, first.Tracks[0])
	assert.Equal(t, "minio:music/Pop/Singer - Glove.wav", first.Tracks[1].ID)
	assert.Equal(t, "music/Pop/Singer - Glove.wav", first.NextCursor)

	second, err := p.SearchTracks(ctx, "love", first.NextCursor)
	require.NoError(t, err)
	require.Len(t, second.Tracks, 1)
	assert.Equal(t, "Love Song", second.Tracks[0].Title)
	assert.Empty(t, second.NextCursor)
}

func TestMinioProvider_SearchListError(t *testing.T) {
	p := newMinioTestProvider(&fakeObjectStore{listErr: errors.New("connection refused")}, 0)
	_, err := p.SearchTracks(context.Background(), "x", "")
	assert.Equal(t, KindNetworkError, KindOf(err))
}

func TestMinioProvider_PlaybackSource(t *testing.T) {
	store := &fakeObjectStore{
		keys:  []string{"music/A - B.mp3", "music/C - D.ogg"},
		types: map[string]string{"music/C - D.ogg": "audio/ogg; codecs=vorbis"},
	}
	p := newMinioTestProvider(store, 0)
	ctx := context.Background()

	src, err := p.PlaybackSource(ctx, "minio:music/A - B.mp3")
	require.NoError(t, err)
	assert.Equal(t, model.StreamTypeHTTP, src.StreamType)
	assert.Equal(t, "audio/mpeg", src.MIME)
	assert.True(t, strings.HasPrefix(src.URL, "http://minio.local/tracks/music/A"), src.URL)

	src, err = p.PlaybackSource(ctx, "minio:music/C - D.ogg")
	require.NoError(t, err)
	assert.Equal(t, "audio/ogg; codecs=vorbis", src.MIME)

	_, err = p.PlaybackSource(ctx, "minio:music/missing.mp3")
	assert.Equal(t, KindContentUnavailable, KindOf(err))

	_, err = p.PlaybackSource(ctx, "local:/a.mp3")
	assert.Equal(t, KindNotSupported, KindOf(err))

	store.statErr = minio.ErrorResponse{Code: "AccessDenied"}
	_, err = p.PlaybackSource(ctx, "minio:music/A - B.mp3")
	assert.Equal(t, KindAuthRequired, KindOf(err))

	store.statErr = errors.New("dial tcp: refused")
	_, err = p.PlaybackSource(ctx, "minio:music/A - B.mp3")
	assert.Equal(t, KindNetworkError, KindOf(err))
}
