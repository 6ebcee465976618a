package device

import (
	"math"
	"sync"
)

const (
	// fftSize samples per analysis window; yields fftSize/2 frequency bins.
	fftSize = 32
	// smoothing is the weight of the previous value when averaging bins over time.
	smoothing = 0.8
)

// Analyser is the frequency analysis tap on the device output.
// It keeps the most recent fftSize mono samples and turns them into
// fftSize/2 smoothed magnitudes on demand.
type Analyser struct {
	mu       sync.Mutex
	engaged  bool
	window   [fftSize]float64
	pos      int
	smoothed [fftSize / 2]float64
}

func newAnalyser() *Analyser {
	return &Analyser{}
}

func (a *Analyser) engage() {
	a.mu.Lock()
	a.engaged = true
	a.mu.Unlock()
}

// push runs on the audio goroutine.
func (a *Analyser) push(samples [][2]float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.engaged {
		return
	}
	if len(samples) > fftSize {
		samples = samples[len(samples)-fftSize:]
	}
	for _, s := range samples {
		a.window[a.pos] = (s[0] + s[1]) / 2
		a.pos = (a.pos + 1) % fftSize
	}
}

// Frequencies returns fftSize/2 magnitudes, lowest frequency first, each in
// [0, 1] for full scale input. Every call advances the time smoothing.
func (a *Analyser) Frequencies() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	var ordered [fftSize]float64
	for i := range ordered {
		ordered[i] = a.window[(a.pos+i)%fftSize] * blackman[i]
	}

	out := make([]float64, len(a.smoothed))
	for k := range a.smoothed {
		var re, im float64
		for n, x := range ordered {
			angle := 2 * math.Pi * float64(k*n) / fftSize
			re += x * math.Cos(angle)
			im -= x * math.Sin(angle)
		}
		mag := 2 * math.Hypot(re, im) / blackmanSum
		a.smoothed[k] = smoothing*a.smoothed[k] + (1-smoothing)*mag
		out[k] = a.smoothed[k]
	}
	return out
}

// Close disengages the tap and clears its history.
func (a *Analyser) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engaged = false
	a.window = [fftSize]float64{}
	a.smoothed = [fftSize / 2]float64{}
	a.pos = 0
}

var blackman, blackmanSum = blackmanWindow()

func blackmanWindow() ([fftSize]float64, float64) {
	const alpha = 0.16
	a0, a1, a2 := (1-alpha)/2, 0.5, alpha/2
	var w [fftSize]float64
	var sum float64
	for i := range w {
		x := 2 * math.Pi * float64(i) / fftSize
		w[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
		sum += w[i]
	}
	return w, sum
}
