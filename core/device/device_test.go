package device

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"TemplePlayer/core/player"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualOutput is an Output driven by the test instead of an audio thread.
type manualOutput struct {
	mu        sync.Mutex
	streamers []beep.Streamer
	closed    bool
}

func (o *manualOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	o.streamers = append(o.streamers, s)
	o.mu.Unlock()
}

func (o *manualOutput) Clear() {
	o.mu.Lock()
	o.streamers = nil
	o.mu.Unlock()
}

func (o *manualOutput) Lock()   { o.mu.Lock() }
func (o *manualOutput) Unlock() { o.mu.Unlock() }

func (o *manualOutput) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
}

// pull streams n samples from every active streamer and returns the mix.
func (o *manualOutput) pull(n int) [][2]float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	mix := make([][2]float64, n)
	buf := make([][2]float64, n)
	active := o.streamers[:0]
	for _, s := range o.streamers {
		got, ok := s.Stream(buf)
		for i := 0; i < got; i++ {
			mix[i][0] += buf[i][0]
			mix[i][1] += buf[i][1]
		}
		if ok {
			active = append(active, s)
		}
	}
	o.streamers = active
	return mix
}

func (o *manualOutput) active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.streamers)
}

// writeTone writes a mono-in-stereo sine wave file at 44.1kHz.
func writeTone(t *testing.T, dir string, d time.Duration) string {
	t.Helper()
	format := beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
	total := format.SampleRate.N(d)
	pos := 0
	tone := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for n < len(samples) && pos < total {
			v := 0.5 * math.Sin(2*math.Pi*440*float64(pos)/44100)
			samples[n] = [2]float64{v, v}
			n++
			pos++
		}
		return n, true
	})

	path := filepath.Join(dir, "Artist - Tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, wav.Encode(f, tone, format))
	return path
}

func nextEvent(t *testing.T, d *Device, kind player.DeviceEventKind) player.DeviceEvent {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-d.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", kind)
			return player.DeviceEvent{}
		}
	}
}

func newTestDevice(t *testing.T) (*Device, *manualOutput) {
	t.Helper()
	out := &manualOutput{}
	d := New(out, Config{SampleRate: 44100})
	t.Cleanup(func() { d.Close() })
	return d, out
}

func TestDevice_PlayFileToEnd(t *testing.T) {
	d, out := newTestDevice(t)
	path := writeTone(t, t.TempDir(), 200*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, d.Attach(ctx, "file://"+path, nil))
	meta := nextEvent(t, d, player.EventMetadataLoaded)
	assert.Equal(t, int64(200), meta.Ms)

	require.NoError(t, d.Play(ctx))
	nextEvent(t, d, player.EventStarted)
	require.Equal(t, 1, out.active())

	a, err := d.Analyse()
	require.NoError(t, err)

	for i := 0; i < 20 && out.active() > 0; i++ {
		out.pull(1024)
	}
	nextEvent(t, d, player.EventEnded)
	assert.Equal(t, 0, out.active())

	freqs := a.Frequencies()
	require.Len(t, freqs, 16)
}

func TestDevice_PauseSilencesOutput(t *testing.T) {
	d, out := newTestDevice(t)
	path := writeTone(t, t.TempDir(), time.Second)
	ctx := context.Background()

	require.NoError(t, d.Attach(ctx, "file://"+path, nil))
	require.NoError(t, d.Play(ctx))
	nextEvent(t, d, player.EventStarted)

	d.Pause()
	nextEvent(t, d, player.EventPaused)
	for _, s := range out.pull(512) {
		assert.Zero(t, s[0])
	}

	require.NoError(t, d.Play(ctx))
	nextEvent(t, d, player.EventStarted)
	assert.Equal(t, 1, out.active(), "resuming reuses the queued chain")
}

func TestDevice_VolumeAndMute(t *testing.T) {
	d, out := newTestDevice(t)
	path := writeTone(t, t.TempDir(), time.Second)
	ctx := context.Background()

	require.NoError(t, d.Attach(ctx, "file://"+path, nil))
	require.NoError(t, d.Play(ctx))

	loudest := func(samples [][2]float64) float64 {
		m := 0.0
		for _, s := range samples {
			m = math.Max(m, math.Abs(s[0]))
		}
		return m
	}

	full := loudest(out.pull(2048))
	d.SetVolume(0.5)
	half := loudest(out.pull(2048))
	assert.InDelta(t, full/2, half, 0.02)

	d.SetMuted(true)
	assert.Zero(t, loudest(out.pull(2048)))
	d.SetMuted(false)
	d.SetVolume(0)
	assert.Zero(t, loudest(out.pull(2048)))
}

func TestDevice_AttachReplacesPlayingSource(t *testing.T) {
	d, out := newTestDevice(t)
	dir := t.TempDir()
	path := writeTone(t, dir, time.Second)
	ctx := context.Background()

	require.NoError(t, d.Attach(ctx, "file://"+path, nil))
	require.NoError(t, d.Play(ctx))
	nextEvent(t, d, player.EventStarted)

	require.NoError(t, d.Attach(ctx, "file://"+path, nil))
	nextEvent(t, d, player.EventPaused)
	assert.Equal(t, 0, out.active(), "the previous chain is removed")
}

func TestDevice_SeekAndStop(t *testing.T) {
	d, _ := newTestDevice(t)
	path := writeTone(t, t.TempDir(), time.Second)
	ctx := context.Background()

	d.Seek(100) // nothing attached
	require.NoError(t, d.Attach(ctx, "file://"+path, nil))

	d.Seek(500)
	ev := nextEvent(t, d, player.EventTimeUpdate)
	assert.Equal(t, int64(500), ev.Ms)

	d.Stop()
	d.mu.Lock()
	pos := d.stream.Position()
	d.mu.Unlock()
	assert.Zero(t, pos)
}

func TestDevice_PlayWithoutSource(t *testing.T) {
	d, _ := newTestDevice(t)
	assert.ErrorIs(t, d.Play(context.Background()), ErrNoSource)
}

func TestDevice_HTTPSourceSendsHeaders(t *testing.T) {
	path := writeTone(t, t.TempDir(), 100*time.Millisecond)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != "https://music.163.com/" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(data)
	}))
	defer srv.Close()

	d, _ := newTestDevice(t)
	ctx := context.Background()

	err = d.Attach(ctx, srv.URL+"/stream", nil)
	assert.ErrorContains(t, err, "status 403")

	require.NoError(t, d.Attach(ctx, srv.URL+"/stream", map[string]string{"Referer": "https://music.163.com/"}))
	meta := nextEvent(t, d, player.EventMetadataLoaded)
	assert.Equal(t, int64(100), meta.Ms)
}

func TestDevice_RejectsUnsupportedSources(t *testing.T) {
	d, _ := newTestDevice(t)
	ctx := context.Background()

	assert.ErrorIs(t, d.Attach(ctx, "https://cdn.example/master.m3u8?token=1", nil), ErrUnsupportedStream)
	assert.ErrorIs(t, d.Attach(ctx, "spotify:track:1", nil), ErrUnsupportedStream)

	dir := t.TempDir()
	p := filepath.Join(dir, "song.m4a")
	require.NoError(t, os.WriteFile(p, []byte("not audio"), 0o644))
	assert.ErrorIs(t, d.Attach(ctx, "file://"+p, nil), ErrUnsupportedFormat)

	err := d.Attach(ctx, "file://"+filepath.Join(dir, "missing.mp3"), nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDevice_AttachFileWithURLCharsInName(t *testing.T) {
	d, _ := newTestDevice(t)
	ctx := context.Background()
	dir := t.TempDir()
	tone := writeTone(t, dir, 100*time.Millisecond)

	for _, name := range []string{"x #1.wav", "Who?.wav", "a?b#c.wav"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.Rename(tone, p))
		require.NoError(t, d.Attach(ctx, "file://"+p, nil), name)
		meta := nextEvent(t, d, player.EventMetadataLoaded)
		assert.Equal(t, int64(100), meta.Ms, name)
		tone = p
	}

	// a playlist extension still wins for local paths
	m3u := filepath.Join(dir, "list #2.m3u8")
	require.NoError(t, os.WriteFile(m3u, []byte("#EXTM3U\n"), 0o644))
	assert.ErrorIs(t, d.Attach(ctx, "file://"+m3u, nil), ErrUnsupportedStream)
}

func TestIsHLS(t *testing.T) {
	assert.True(t, isHLS("/live/master.m3u8", ""))
	assert.True(t, isHLS("/live/master", "application/vnd.apple.mpegurl"))
	assert.False(t, isHLS("/music/x.m3u8#1.wav", ""))
	assert.False(t, isHLS("/music/Who?.mp3", "audio/mpeg"))
}

func TestDevice_Close(t *testing.T) {
	out := &manualOutput{}
	d := New(out, Config{})
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	assert.True(t, out.closed)
	assert.ErrorIs(t, d.Attach(context.Background(), "file:///x.wav", nil), ErrClosed)
	_, err := d.Analyse()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDecoderFor(t *testing.T) {
	tests := []struct {
		mime, name string
		ok         bool
	}{
		{"audio/mpeg", "", true},
		{"audio/ogg; codecs=vorbis", "", true},
		{"", "/music/a.FLAC", true},
		{"", "/a.wav", true},
		{"", "/music/Artist - Track #1.mp3", true},
		{"", "/music/Who?.wav", true},
		{"", "/music/a.mp3#", false},
		{"application/octet-stream", "/music/a.mp3", true},
		{"", "/music/a.m4a", false},
		{"", "/music/a", false},
	}
	for _, tt := range tests {
		_, err := decoderFor(tt.mime, tt.name)
		if tt.ok {
			assert.NoError(t, err, "%q %q", tt.mime, tt.name)
		} else {
			assert.ErrorIs(t, err, ErrUnsupportedFormat, "%q %q", tt.mime, tt.name)
		}
	}
}
