package provider

import (
	"context"
	"net/url"
	"path"
	"strings"
	"time"

	"TemplePlayer/logger"
	"TemplePlayer/model"

	"github.com/minio/minio-go/v7"
)

const MinioProviderID = "minio"

var minioCapabilities = model.Capabilities{
	CanSearch:     true,
	CanStreamHTTP: true,
}

// ObjectStore is the part of *minio.Client the provider uses.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// MinioConfig configures the object storage provider.
type MinioConfig struct {
	Bucket        string
	Prefix        string
	PresignExpiry time.Duration
	PageSize      int
}

// MinioProvider serves tracks stored as objects in a MinIO/S3 bucket.
// Track ids are "minio:" + object key; search cursors are the last returned key.
type MinioProvider struct {
	NotSupported
	store ObjectStore
	cfg   MinioConfig
}

// NewMinioProvider creates the object storage provider.
func NewMinioProvider(store ObjectStore, cfg MinioConfig) *MinioProvider {
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = time.Hour
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	return &MinioProvider{store: store, cfg: cfg}
}

func (p *MinioProvider) ID() string   { return MinioProviderID }
func (p *MinioProvider) Name() string { return "MinIO Bucket" }

func (p *MinioProvider) Initialize(ctx context.Context) (model.Capabilities, error) {
	exists, err := p.store.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		return model.Capabilities{}, WrapError(KindNetworkError, err, "check bucket %s", p.cfg.Bucket)
	}
	if !exists {
		return model.Capabilities{}, NewError(KindContentUnavailable, "bucket %s does not exist", p.cfg.Bucket)
	}
	logger.Info("[MinioProvider] bucket ready",
		logger.String("bucket", p.cfg.Bucket),
		logger.String("prefix", p.cfg.Prefix))
	return minioCapabilities, nil
}

func (p *MinioProvider) Shutdown(context.Context) error { return nil }

func (p *MinioProvider) Capabilities() model.Capabilities { return minioCapabilities }

func (p *MinioProvider) AuthState() model.AuthState {
	return model.AuthState{Status: model.AuthAuthenticated, UserLabel: p.cfg.Bucket}
}

// PlaybackSource presigns a GET for the object behind trackID.
func (p *MinioProvider) PlaybackSource(ctx context.Context, trackID string) (model.PlaybackSource, error) {
	key, ok := trimScheme(trackID, MinioProviderID)
	if !ok {
		return model.PlaybackSource{}, NewError(KindNotSupported, "track %q is not a bucket object", trackID)
	}

	info, err := p.store.StatObject(ctx, p.cfg.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "NoSuchKey", "NoSuchBucket":
			return model.PlaybackSource{}, WrapError(KindContentUnavailable, err, "object %s", key)
		case "AccessDenied":
			return model.PlaybackSource{}, WrapError(KindAuthRequired, err, "object %s", key)
		}
		return model.PlaybackSource{}, WrapError(KindNetworkError, err, "stat object %s", key)
	}

	u, err := p.store.PresignedGetObject(ctx, p.cfg.Bucket, key, p.cfg.PresignExpiry, nil)
	if err != nil {
		return model.PlaybackSource{}, WrapError(KindNetworkError, err, "presign object %s", key)
	}

	mime := info.ContentType
	if mime == "" || mime == "application/octet-stream" {
		mime = mimeFromName(key)
	}
	return model.PlaybackSource{
		URL:        u.String(),
		MIME:       mime,
		StreamType: model.StreamTypeHTTP,
	}, nil
}

// SearchTracks lists audio objects under the prefix whose file name contains query.
func (p *MinioProvider) SearchTracks(ctx context.Context, query, cursor string) (model.SearchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel() // stops the listing goroutine

	needle := strings.ToLower(strings.TrimSpace(query))
	objects := p.store.ListObjects(ctx, p.cfg.Bucket, minio.ListObjectsOptions{
		Prefix:     p.cfg.Prefix,
		Recursive:  true,
		StartAfter: cursor,
	})

	var res model.SearchResult
	for obj := range objects {
		if obj.Err != nil {
			return model.SearchResult{}, WrapError(KindNetworkError, obj.Err, "list bucket %s", p.cfg.Bucket)
		}
		if mimeFromName(obj.Key) == "" || strings.HasSuffix(obj.Key, ".m3u8") {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(path.Base(obj.Key)), needle) {
			continue
		}
		if len(res.Tracks) == p.cfg.PageSize {
			// one more match exists, so there is a next page
			res.NextCursor = res.Tracks[len(res.Tracks)-1].ID[len(MinioProviderID)+1:]
			break
		}
		res.Tracks = append(res.Tracks, p.track(obj.Key))
	}
	return res, nil
}

func (p *MinioProvider) track(key string) model.Track {
	artist, title := ParseFileName(key)
	album := path.Base(path.Dir(key))
	if album == "." || album == "/" || album+"/" == p.cfg.Prefix {
		album = p.cfg.Bucket
	}
	return model.Track{
		ID:         MinioProviderID + ":" + key,
		Title:      title,
		ArtistName: artist,
		AlbumName:  album,
		ProviderID: MinioProviderID,
	}
}
