package player

import (
	"context"
	"errors"
	"sync"

	"TemplePlayer/core/provider"
	"TemplePlayer/model"
)

// fakeDevice reports transport events the way a real device would, without audio.
type fakeDevice struct {
	mu        sync.Mutex
	events    chan DeviceEvent
	attached  []string
	headers   []map[string]string
	playing   bool
	playCalls int
	stops     int
	seeks     []int64
	volume    float64
	muted     bool
	closed    bool
	playErr   error
	attachErr error
	analyses  int
	analyser  *fakeAnalyser
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{events: make(chan DeviceEvent, 64)}
}

func (d *fakeDevice) send(ev DeviceEvent) {
	select {
	case d.events <- ev:
	default:
	}
}

func (d *fakeDevice) Attach(_ context.Context, url string, headers map[string]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.attachErr != nil {
		return d.attachErr
	}
	if d.playing {
		d.playing = false
		d.send(DeviceEvent{Kind: EventPaused})
	}
	d.attached = append(d.attached, url)
	d.headers = append(d.headers, headers)
	return nil
}

func (d *fakeDevice) Play(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playCalls++
	if d.playErr != nil {
		return d.playErr
	}
	if len(d.attached) == 0 {
		return errors.New("no source attached")
	}
	d.playing = true
	d.send(DeviceEvent{Kind: EventStarted})
	return nil
}

func (d *fakeDevice) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = false
	d.send(DeviceEvent{Kind: EventPaused})
}

func (d *fakeDevice) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = false
	d.stops++
}

func (d *fakeDevice) Seek(ms int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seeks = append(d.seeks, ms)
}

func (d *fakeDevice) SetVolume(v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volume = v
}

func (d *fakeDevice) SetMuted(muted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.muted = muted
}

func (d *fakeDevice) Analyse() (Analyser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.analyses++
	d.analyser = &fakeAnalyser{}
	return d.analyser, nil
}

func (d *fakeDevice) Events() <-chan DeviceEvent { return d.events }

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDevice) lastAttached() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.attached) == 0 {
		return ""
	}
	return d.attached[len(d.attached)-1]
}

type deviceSnapshot struct {
	attached  []string
	playCalls int
	stops     int
	seeks     []int64
	volume    float64
	muted     bool
	closed    bool
	analyses  int
	analyser  *fakeAnalyser
}

func (d *fakeDevice) snapshot() deviceSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return deviceSnapshot{
		attached:  append([]string(nil), d.attached...),
		playCalls: d.playCalls,
		stops:     d.stops,
		seeks:     append([]int64(nil), d.seeks...),
		volume:    d.volume,
		muted:     d.muted,
		closed:    d.closed,
		analyses:  d.analyses,
		analyser:  d.analyser,
	}
}

type fakeAnalyser struct {
	mu     sync.Mutex
	closed bool
}

func (a *fakeAnalyser) Frequencies() []float64 { return make([]float64, 16) }

func (a *fakeAnalyser) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

func (a *fakeAnalyser) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// gatedResolver holds resolution of selected track ids until their gate is closed.
type gatedResolver struct {
	inner SourceResolver
	gates map[string]chan struct{}
}

func (r *gatedResolver) PlaybackSource(ctx context.Context, id string) (model.PlaybackSource, error) {
	if gate, ok := r.gates[id]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return model.PlaybackSource{}, ctx.Err()
		}
	}
	return r.inner.PlaybackSource(ctx, id)
}

func newLocalRegistry() *provider.Registry {
	r := provider.NewRegistry()
	r.RegisterProvider(provider.NewLocalProvider())
	r.RegisterProvider(provider.NewTidalProvider())
	r.Initialize(context.Background())
	return r
}

func localTrack(path string, durationMs int64) model.Track {
	artist, title := provider.ParseFileName(path)
	return model.Track{
		ID:         "local:" + path,
		Title:      title,
		ArtistName: artist,
		AlbumName:  "Local Files",
		DurationMs: durationMs,
		ProviderID: "local",
	}
}
