package player

import (
	"context"
	"fmt"

	"TemplePlayer/model"
)

// DeviceEventKind 设备事件类型
type DeviceEventKind int

const (
	EventStarted DeviceEventKind = iota
	EventPaused
	EventEnded
	EventTimeUpdate
	EventMetadataLoaded
	EventError
)

func (k DeviceEventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	case EventTimeUpdate:
		return "time-update"
	case EventMetadataLoaded:
		return "metadata-loaded"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("DeviceEventKind(%d)", int(k))
	}
}

// DeviceEvent is a transport notification from the playback device.
// Ms carries the position for time updates and the duration for metadata.
type DeviceEvent struct {
	Kind DeviceEventKind
	Ms   int64
	Err  error
}

// Device is a single decode/render pipeline.
//
// Attach replaces whatever source was attached before; a device that was
// playing stops and reports EventPaused. Events are delivered on the channel
// returned by Events, which must stay the same for the device's lifetime.
type Device interface {
	Attach(ctx context.Context, url string, headers map[string]string) error
	Play(ctx context.Context) error
	Pause()
	Stop()
	Seek(ms int64)
	SetVolume(v float64)
	SetMuted(muted bool)
	// Analyse engages the frequency analysis tap on the device output.
	Analyse() (Analyser, error)
	Events() <-chan DeviceEvent
	Close() error
}

// Analyser exposes periodic frequency-magnitude snapshots of the device output.
type Analyser interface {
	model.FrequencySource
	Close()
}

// SourceResolver turns a track id into a playable source.
// *provider.Registry implements it.
type SourceResolver interface {
	PlaybackSource(ctx context.Context, descriptor string) (model.PlaybackSource, error)
}
