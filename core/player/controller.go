// Package player implements the playback controller: an ordered queue of
// tracks from any provider, played through a single playback device.
package player

import (
	"context"
	"math"
	"sync"

	"TemplePlayer/core/event"
	"TemplePlayer/logger"
	"TemplePlayer/model"
)

const (
	// DefaultVolume is the volume of a new controller.
	DefaultVolume = 0.7
	// restartThresholdMs: Previous restarts the current track past this position.
	restartThresholdMs = 3000
)

// ErrorType 错误类型
type ErrorType string

const (
	ErrorPlayback ErrorType = "playback"
	ErrorLoad     ErrorType = "load"
	ErrorPlay     ErrorType = "play"
)

// ErrorEvent is published when playback, loading or starting fails.
type ErrorEvent struct {
	Type ErrorType
	Err  error
}

func (e ErrorEvent) Error() string { return string(e.Type) + ": " + e.Err.Error() }

func (e ErrorEvent) Unwrap() error { return e.Err }

// Option configures a Controller.
type Option func(*Controller)

// WithVolume sets the initial volume, clamped to [0, 1].
func WithVolume(v float64) Option {
	return func(c *Controller) { c.state.Volume = clampVolume(v) }
}

// Controller 播放控制器
//
// State is guarded by mu, which is never held while a provider resolves a
// source or the device attaches one. Every load bumps the generation; a load
// whose generation is no longer current is dropped. Snapshots are published
// with mu held, so subscribers see them in order and must not call back into
// the controller.
type Controller struct {
	mu         sync.Mutex
	state      model.PlayerState
	generation uint64
	destroyed  bool

	// attachMu serializes Attach and guards analyser engagement.
	attachMu        sync.Mutex
	analyserEngaged bool
	analyser        Analyser

	resolver SourceResolver
	device   Device

	stateBus event.Bus[model.PlayerState]
	errorBus event.Bus[ErrorEvent]

	ctx         context.Context
	cancel      context.CancelFunc
	pumpDone    chan struct{}
	destroyOnce sync.Once
}

// New creates a controller playing through device and starts consuming its events.
func New(resolver SourceResolver, device Device, opts ...Option) *Controller {
	c := &Controller{
		state: model.PlayerState{
			Status:     model.StatusStopped,
			QueueIndex: -1,
			Volume:     DefaultVolume,
		},
		resolver: resolver,
		device:   device,
		pumpDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	device.SetVolume(c.state.Volume)
	go c.pump(device.Events())
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() model.PlayerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// SubscribeState registers fn for every state snapshot.
func (c *Controller) SubscribeState(fn func(model.PlayerState)) (unsubscribe func()) {
	return c.stateBus.Subscribe(fn)
}

// SubscribeError registers fn for playback, load and play failures.
func (c *Controller) SubscribeError(fn func(ErrorEvent)) (unsubscribe func()) {
	return c.errorBus.Subscribe(fn)
}

func (c *Controller) publishLocked() {
	c.stateBus.Publish(c.state.Clone())
}

func (c *Controller) emitErrorLocked(typ ErrorType, err error) {
	logger.Warn("[Controller] "+string(typ)+" error", logger.ErrorField(err))
	c.errorBus.Publish(ErrorEvent{Type: typ, Err: err})
}

func (c *Controller) alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.destroyed
}

// LoadQueue replaces the queue and loads its first track. It does not start playback.
func (c *Controller) LoadQueue(ctx context.Context, tracks []model.Track) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.state.Queue = append([]model.Track(nil), tracks...)
	if len(tracks) == 0 {
		// supersede any load still resolving for the old queue
		c.generation++
		c.state.QueueIndex = -1
		c.state.CurrentTrack = nil
		c.state.CurrentTimeMs = 0
		c.state.DurationMs = 0
		c.publishLocked()
		c.mu.Unlock()
		return
	}
	gen, track, _ := c.beginLoadLocked(0)
	c.publishLocked()
	c.mu.Unlock()

	logger.Info("[Controller] queue loaded", logger.Int("tracks", len(tracks)))
	c.finishLoad(ctx, gen, track)
}

// beginLoadLocked makes queue[index] current and opens a new load
// generation. finishLoad completes it outside the lock.
func (c *Controller) beginLoadLocked(index int) (uint64, model.Track, bool) {
	if c.destroyed || index < 0 || index >= len(c.state.Queue) {
		return 0, model.Track{}, false
	}
	c.generation++
	track := c.state.Queue[index]
	current := track
	c.state.CurrentTrack = &current
	c.state.QueueIndex = index
	c.state.CurrentTimeMs = 0
	c.state.DurationMs = track.DurationMs
	return c.generation, track, true
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.destroyed && c.generation == gen
}

func (c *Controller) finishLoad(ctx context.Context, gen uint64, track model.Track) bool {
	src, err := c.resolver.PlaybackSource(ctx, track.ID)

	c.mu.Lock()
	if c.destroyed || c.generation != gen {
		c.mu.Unlock()
		logger.Debug("[Controller] dropping superseded load", logger.String("track", track.ID))
		return false
	}
	if err != nil {
		c.emitErrorLocked(ErrorLoad, err)
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	c.attachMu.Lock()
	defer c.attachMu.Unlock()

	// a newer load may have been requested while this one waited for the device
	if !c.current(gen) {
		return false
	}
	if err := c.device.Attach(ctx, src.URL, src.Headers); err != nil {
		c.mu.Lock()
		if !c.destroyed && c.generation == gen {
			c.emitErrorLocked(ErrorLoad, err)
		}
		c.mu.Unlock()
		return false
	}

	var analyser Analyser
	if !c.analyserEngaged {
		c.analyserEngaged = true
		a, err := c.device.Analyse()
		if err != nil {
			logger.Warn("[Controller] analyser unavailable", logger.ErrorField(err))
		}
		analyser = a
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if analyser != nil {
		if c.destroyed {
			analyser.Close()
		} else {
			c.analyser = analyser
			c.state.Analyser = analyser
		}
	}
	if c.destroyed || c.generation != gen {
		return false
	}
	logger.Info("[Controller] track loaded",
		logger.String("track", track.ID),
		logger.String("streamType", string(src.StreamType)))
	c.publishLocked()
	return true
}

// Play asks the device to start. It is a no-op while playing; the device's
// started event moves the status to playing.
func (c *Controller) Play(ctx context.Context) {
	c.mu.Lock()
	if c.destroyed || c.state.Status == model.StatusPlaying {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.start(ctx)
}

// start requests playback without the status check. A freshly attached
// source is idle whatever the last reported status was.
func (c *Controller) start(ctx context.Context) {
	if err := c.device.Play(ctx); err != nil {
		c.mu.Lock()
		if !c.destroyed {
			c.emitErrorLocked(ErrorPlay, err)
		}
		c.mu.Unlock()
	}
}

// Pause asks the device to pause; its paused event moves the status.
func (c *Controller) Pause() {
	if !c.alive() {
		return
	}
	c.device.Pause()
}

// Toggle pauses while playing and plays otherwise.
func (c *Controller) Toggle(ctx context.Context) {
	c.mu.Lock()
	playing := c.state.Status == model.StatusPlaying
	c.mu.Unlock()

	if playing {
		c.Pause()
	} else {
		c.Play(ctx)
	}
}

// Next loads and plays the following track. At the end of the queue it stops
// the device and keeps the current track and position in the queue.
func (c *Controller) Next(ctx context.Context) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	// the target is claimed under the same lock that reads the index, so
	// back-to-back calls advance once each
	if gen, track, ok := c.beginLoadLocked(c.state.QueueIndex + 1); ok {
		c.publishLocked()
		c.mu.Unlock()
		if c.finishLoad(ctx, gen, track) {
			c.start(ctx)
		}
		return
	}
	c.mu.Unlock()

	c.device.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.state.Status = model.StatusStopped
	logger.Info("[Controller] end of queue")
	c.publishLocked()
}

// Previous restarts the current track when more than three seconds in,
// otherwise loads and plays the track before it. At index 0 it does nothing.
func (c *Controller) Previous(ctx context.Context) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	if c.state.CurrentTimeMs > restartThresholdMs {
		c.mu.Unlock()
		c.Seek(0)
		return
	}
	gen, track, ok := c.beginLoadLocked(c.state.QueueIndex - 1)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.publishLocked()
	c.mu.Unlock()

	if c.finishLoad(ctx, gen, track) {
		c.start(ctx)
	}
}

// Seek moves the playback position. Negative positions clamp to 0.
func (c *Controller) Seek(ms int64) {
	if ms < 0 {
		ms = 0
	}
	if !c.alive() {
		return
	}
	c.device.Seek(ms)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.CurrentTimeMs = ms
	c.publishLocked()
}

// SetVolume sets the volume clamped to [0, 1]; NaN is treated as 0.
func (c *Controller) SetVolume(v float64) {
	v = clampVolume(v)
	if !c.alive() {
		return
	}
	c.device.SetVolume(v)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Volume = v
	c.publishLocked()
}

// SetMuted mutes or unmutes the output.
func (c *Controller) SetMuted(muted bool) {
	if !c.alive() {
		return
	}
	c.device.SetMuted(muted)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Muted = muted
	c.publishLocked()
}

func clampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func (c *Controller) pump(events <-chan DeviceEvent) {
	defer close(c.pumpDone)
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleDeviceEvent(ev)
		}
	}
}

func (c *Controller) handleDeviceEvent(ev DeviceEvent) {
	if ev.Kind == EventEnded {
		logger.Debug("[Controller] track ended")
		c.Next(c.ctx)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	switch ev.Kind {
	case EventStarted:
		c.state.Status = model.StatusPlaying
	case EventPaused:
		c.state.Status = model.StatusPaused
	case EventTimeUpdate:
		c.state.CurrentTimeMs = ev.Ms
	case EventMetadataLoaded:
		c.state.DurationMs = ev.Ms
	case EventError:
		c.state.Status = model.StatusStopped
		c.publishLocked()
		c.emitErrorLocked(ErrorPlayback, ev.Err)
		return
	default:
		return
	}
	c.publishLocked()
}

// Destroy stops the device, releases the analyser, detaches every subscriber
// and closes the device. It is safe to call more than once and on a
// controller that was never fully constructed.
func (c *Controller) Destroy() {
	if c == nil {
		return
	}
	c.destroyOnce.Do(func() {
		c.mu.Lock()
		c.destroyed = true
		c.generation++
		analyser := c.analyser
		c.analyser = nil
		c.state.Analyser = nil
		c.mu.Unlock()

		if c.device != nil {
			c.device.Stop()
		}
		if analyser != nil {
			analyser.Close()
		}
		c.stateBus.Clear()
		c.errorBus.Clear()

		if c.cancel != nil {
			c.cancel()
			<-c.pumpDone
		}
		if c.device != nil {
			if err := c.device.Close(); err != nil {
				logger.Warn("[Controller] device close failed", logger.ErrorField(err))
			}
		}
		logger.Info("[Controller] destroyed")
	})
}
