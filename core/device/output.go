package device

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Output is where the device sends its mixed stream. Lock/Unlock guard
// streamer state against the audio goroutine.
type Output interface {
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
	Close()
}

type speakerOutput struct{}

// NewSpeakerOutput initializes the system speaker at sampleRate.
// The speaker is process wide, so only one speaker output may exist.
func NewSpeakerOutput(sampleRate beep.SampleRate, buffer time.Duration) (Output, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(buffer)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return speakerOutput{}, nil
}

func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Clear()               { speaker.Clear() }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }
func (speakerOutput) Close()               { speaker.Close() }
