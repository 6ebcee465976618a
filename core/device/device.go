// Package device plays sources through the system speaker with beep and
// exposes a frequency analysis tap on the output.
package device

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"time"

	"TemplePlayer/core/player"
	"TemplePlayer/logger"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

const (
	DefaultSampleRate = 44100
	timeUpdateEvery   = 250 * time.Millisecond
	resampleQuality   = 4
	eventBuffer       = 64
)

var (
	ErrNoSource = errors.New("no source attached")
	ErrClosed   = errors.New("device closed")
)

var _ player.Device = (*Device)(nil)

// Config configures a Device.
type Config struct {
	SampleRate int
	HTTPClient *http.Client // for http(s) sources; defaults to a 30s timeout client
}

// Device is a beep playback pipeline:
// source -> resampler -> pause control -> analyser tap -> volume -> output.
//
// Lock order is d.mu before the output lock. The audio goroutine only holds
// the output lock, so callbacks from it never take d.mu directly.
type Device struct {
	out        Output
	sampleRate beep.SampleRate
	client     *http.Client
	events     chan player.DeviceEvent
	analyser   *Analyser

	mu      sync.Mutex
	stream  beep.StreamSeekCloser
	format  beep.Format
	ctrl    *beep.Ctrl
	gain    *effects.Volume
	queued  bool // chain handed to the output and not drained yet
	playing bool
	gen     int
	volume  float64
	muted   bool
	closed  bool

	stop     chan struct{}
	tickDone chan struct{}
}

// New creates a device writing to out.
func New(out Output, cfg Config) *Device {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	d := &Device{
		out:        out,
		sampleRate: beep.SampleRate(cfg.SampleRate),
		client:     cfg.HTTPClient,
		events:     make(chan player.DeviceEvent, eventBuffer),
		analyser:   newAnalyser(),
		volume:     1,
		stop:       make(chan struct{}),
		tickDone:   make(chan struct{}),
	}
	go d.tick()
	return d
}

// NewSpeaker creates a device on the system speaker.
func NewSpeaker(cfg Config) (*Device, error) {
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	out, err := NewSpeakerOutput(beep.SampleRate(rate), 100*time.Millisecond)
	if err != nil {
		return nil, err
	}
	return New(out, cfg), nil
}

func (d *Device) send(ev player.DeviceEvent) {
	select {
	case d.events <- ev:
	default:
		logger.Warn("[Device] event dropped", logger.String("kind", ev.Kind.String()))
	}
}

func (d *Device) Events() <-chan player.DeviceEvent { return d.events }

// Attach opens and decodes url, replacing the current source.
func (d *Device) Attach(ctx context.Context, url string, headers map[string]string) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.teardownLocked()
	d.mu.Unlock()

	// decoding may hit the network; d.mu stays free meanwhile
	src, err := openSource(ctx, d.client, url, headers)
	if err != nil {
		return err
	}
	stream, format, err := src.decode()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		stream.Close()
		return ErrClosed
	}
	// a concurrent Attach may have won; the newest one keeps the device
	d.teardownLocked()
	d.stream = stream
	d.format = format

	durationMs := format.SampleRate.D(stream.Len()).Milliseconds()
	logger.Debug("[Device] source attached",
		logger.String("url", url),
		logger.Int("sampleRate", int(format.SampleRate)),
		logger.Int64("durationMs", durationMs))
	d.send(player.DeviceEvent{Kind: player.EventMetadataLoaded, Ms: durationMs})
	return nil
}

// teardownLocked drops the current source. A playing device reports paused.
func (d *Device) teardownLocked() {
	d.gen++
	if d.queued {
		d.out.Clear()
		d.queued = false
	}
	if d.stream != nil {
		d.out.Lock()
		err := d.stream.Close()
		d.out.Unlock()
		if err != nil {
			logger.Warn("[Device] close stream failed", logger.ErrorField(err))
		}
		d.stream = nil
	}
	d.ctrl = nil
	d.gain = nil
	if d.playing {
		d.playing = false
		d.send(player.DeviceEvent{Kind: player.EventPaused})
	}
}

func (d *Device) chainLocked() beep.Streamer {
	var src beep.Streamer = d.stream
	if d.format.SampleRate != d.sampleRate {
		src = beep.Resample(resampleQuality, d.format.SampleRate, d.sampleRate, src)
	}
	d.ctrl = &beep.Ctrl{Streamer: src, Paused: true}
	d.gain = &effects.Volume{Streamer: &tap{s: d.ctrl, a: d.analyser}, Base: 2}
	d.applyGainLocked()

	gen := d.gen
	return beep.Seq(d.gain, beep.Callback(func() {
		// runs on the audio goroutine with the output locked
		go d.ended(gen)
	}))
}

func (d *Device) ended(gen int) {
	d.mu.Lock()
	if d.gen != gen || d.closed {
		d.mu.Unlock()
		return
	}
	d.queued = false
	d.playing = false
	d.mu.Unlock()
	// a drained source is paused first, then ended
	d.send(player.DeviceEvent{Kind: player.EventPaused})
	d.send(player.DeviceEvent{Kind: player.EventEnded})
}

// Play starts or resumes the attached source.
func (d *Device) Play(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if d.stream == nil {
		return ErrNoSource
	}
	if d.playing {
		return nil
	}

	if d.queued {
		d.out.Lock()
		d.ctrl.Paused = false
		d.out.Unlock()
	} else {
		if d.stream.Position() >= d.stream.Len() {
			if err := d.stream.Seek(0); err != nil {
				return err
			}
		}
		chain := d.chainLocked()
		d.ctrl.Paused = false
		d.out.Play(chain)
		d.queued = true
	}
	d.playing = true
	d.send(player.DeviceEvent{Kind: player.EventStarted})
	return nil
}

func (d *Device) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.playing || d.ctrl == nil {
		return
	}
	d.out.Lock()
	d.ctrl.Paused = true
	d.out.Unlock()
	d.playing = false
	d.send(player.DeviceEvent{Kind: player.EventPaused})
}

// Stop pauses and rewinds without reporting an event. The source stays attached.
func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = false
	if d.stream == nil {
		return
	}
	d.out.Lock()
	if d.ctrl != nil {
		d.ctrl.Paused = true
	}
	if err := d.stream.Seek(0); err != nil {
		logger.Warn("[Device] rewind failed", logger.ErrorField(err))
	}
	d.out.Unlock()
}

func (d *Device) Seek(ms int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == nil {
		return
	}
	n := d.format.SampleRate.N(time.Duration(ms) * time.Millisecond)
	if n < 0 {
		n = 0
	}
	if n >= d.stream.Len() {
		n = d.stream.Len() - 1
	}
	d.out.Lock()
	err := d.stream.Seek(n)
	d.out.Unlock()
	if err != nil {
		d.send(player.DeviceEvent{Kind: player.EventError, Err: err})
		return
	}
	d.send(player.DeviceEvent{Kind: player.EventTimeUpdate, Ms: ms})
}

func (d *Device) SetVolume(v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.volume = v
	d.applyGainLocked()
}

func (d *Device) SetMuted(muted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.muted = muted
	d.applyGainLocked()
}

// applyGainLocked maps the linear volume onto a base-2 exponent.
func (d *Device) applyGainLocked() {
	if d.gain == nil {
		return
	}
	d.out.Lock()
	defer d.out.Unlock()
	d.gain.Silent = d.muted || d.volume <= 0
	if !d.gain.Silent {
		d.gain.Volume = math.Log2(d.volume)
	}
}

// Analyse engages the analysis tap.
func (d *Device) Analyse() (player.Analyser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	d.analyser.engage()
	return d.analyser, nil
}

func (d *Device) tick() {
	defer close(d.tickDone)
	ticker := time.NewTicker(timeUpdateEvery)
	defer ticker.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.mu.Lock()
			if !d.playing || d.stream == nil {
				d.mu.Unlock()
				continue
			}
			d.out.Lock()
			pos := d.format.SampleRate.D(d.stream.Position()).Milliseconds()
			d.out.Unlock()
			d.mu.Unlock()
			d.send(player.DeviceEvent{Kind: player.EventTimeUpdate, Ms: pos})
		}
	}
}

// Close releases the source and the output. The event channel stays open.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.playing = false
	d.teardownLocked()
	d.mu.Unlock()

	close(d.stop)
	<-d.tickDone
	d.analyser.Close()
	d.out.Close()
	return nil
}

// tap feeds everything that passes through it to the analyser.
type tap struct {
	s beep.Streamer
	a *Analyser
}

func (t *tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	t.a.push(samples[:n])
	return n, ok
}

func (t *tap) Err() error { return t.s.Err() }
