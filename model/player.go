package model

// PlayerStatus 播放状态
type PlayerStatus string

const (
	StatusPlaying PlayerStatus = "playing"
	StatusPaused  PlayerStatus = "paused"
	StatusStopped PlayerStatus = "stopped"
)

// FrequencySource is the live audio-analysis tap exposed to the UI layer.
type FrequencySource interface {
	Frequencies() []float64
}

// PlayerState is the controller's externally observable snapshot.
// QueueIndex is -1 exactly when CurrentTrack is nil.
type PlayerState struct {
	Status        PlayerStatus    `json:"status"`
	CurrentTimeMs int64           `json:"currentTimeMs"`
	DurationMs    int64           `json:"durationMs"`
	CurrentTrack  *Track          `json:"currentTrack"`
	Queue         []Track         `json:"queue"`
	QueueIndex    int             `json:"queueIndex"`
	Volume        float64         `json:"volume"`
	Muted         bool            `json:"muted"`
	Analyser      FrequencySource `json:"-"`
}

// Clone returns a copy that shares no mutable memory with s.
func (s PlayerState) Clone() PlayerState {
	out := s
	if s.Queue != nil {
		out.Queue = make([]Track, len(s.Queue))
		copy(out.Queue, s.Queue)
	}
	if s.CurrentTrack != nil {
		t := *s.CurrentTrack
		out.CurrentTrack = &t
	}
	return out
}
