package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

var (
	ErrUnsupportedStream = errors.New("unsupported stream")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

type decodeFunc func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

func decodeWAV(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(rc) }

func decodeFLAC(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return flac.Decode(rc) }

var decodersByMIME = map[string]decodeFunc{
	"audio/mpeg":   mp3.Decode,
	"audio/mp3":    mp3.Decode,
	"audio/wav":    decodeWAV,
	"audio/wave":   decodeWAV,
	"audio/x-wav":  decodeWAV,
	"audio/flac":   decodeFLAC,
	"audio/x-flac": decodeFLAC,
	"audio/ogg":    vorbis.Decode,
	"audio/vorbis": vorbis.Decode,
}

var decodersByExt = map[string]decodeFunc{
	".mp3":  mp3.Decode,
	".wav":  decodeWAV,
	".flac": decodeFLAC,
	".ogg":  vorbis.Decode,
	".oga":  vorbis.Decode,
}

// decoderFor picks a decoder by MIME type, then by the extension of name.
// name is a filesystem path or an already parsed URL path, taken as is.
func decoderFor(mime, name string) (decodeFunc, error) {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	if dec, ok := decodersByMIME[mime]; ok {
		return dec, nil
	}

	ext := strings.ToLower(path.Ext(name))
	if dec, ok := decodersByExt[ext]; ok {
		return dec, nil
	}
	return nil, fmt.Errorf("%w: mime %q, extension %q", ErrUnsupportedFormat, mime, ext)
}

// memFile serves a downloaded body with seek support, which the decoders need
// for Seek and Len.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

// source is an opened, not yet decoded, playback source.
type source struct {
	body io.ReadCloser
	name string // path or URL path, used for extension sniffing
	mime string
}

// isHLS reports whether name (a file path or URL path) or mime marks an HLS playlist.
func isHLS(name, mime string) bool {
	return strings.EqualFold(path.Ext(name), ".m3u8") ||
		strings.Contains(strings.ToLower(mime), "mpegurl")
}

// openSource opens a file:// path from disk or fetches an http(s) URL with headers.
func openSource(ctx context.Context, client *http.Client, rawURL string, headers map[string]string) (*source, error) {
	switch {
	case strings.HasPrefix(rawURL, "file://"):
		// file URLs carry the path verbatim, including spaces and '#'
		p := strings.TrimPrefix(rawURL, "file://")
		if isHLS(p, "") {
			return nil, fmt.Errorf("%w: HLS playlists are not supported: %s", ErrUnsupportedStream, rawURL)
		}
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", p, err)
		}
		return &source{body: f, name: p}, nil

	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		// query and fragment are already split off by the URL parser
		if isHLS(req.URL.Path, "") {
			return nil, fmt.Errorf("%w: HLS playlists are not supported: %s", ErrUnsupportedStream, rawURL)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
		}
		mime := resp.Header.Get("Content-Type")
		if isHLS(req.URL.Path, mime) {
			return nil, fmt.Errorf("%w: HLS playlists are not supported: %s", ErrUnsupportedStream, rawURL)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rawURL, err)
		}
		return &source{body: memFile{bytes.NewReader(data)}, name: req.URL.Path, mime: mime}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStream, rawURL)
	}
}

func (s *source) decode() (beep.StreamSeekCloser, beep.Format, error) {
	dec, err := decoderFor(s.mime, s.name)
	if err != nil {
		s.body.Close()
		return nil, beep.Format{}, err
	}
	stream, format, err := dec(s.body)
	if err != nil {
		s.body.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", s.name, err)
	}
	return stream, format, nil
}
