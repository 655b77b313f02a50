// Package engine turns raw audio blocks into a smoothed, activity-gated
// vector of eight indicator channels.
package engine

import "time"

// Scoring constants. The tick cadence, floor bounds and smoothing rates
// together shape how the indicators rise and fall on screen.
const (
	// TickInterval is the fixed evaluation step, decoupled from the audio frame rate.
	TickInterval = 200 * time.Millisecond

	// Per-frame loudness smoothing
	frameSmoothing = 0.25 // exponential factor toward instantaneous RMS

	// Adaptive noise floor
	noiseFloorInit = 0.015  // starting floor
	noiseFloorMin  = 0.008  // quietest room we track down to
	noiseFloorMax  = 0.05   // loudest ambient level absorbed into the floor
	noiseFloorFall = 0.002  // per-tick step when the room gets quieter
	noiseFloorRise = 0.0002 // per-tick step when ambient noise creeps up
	activityMargin = 0.010  // loudness above floor+margin counts as active

	// Continuity
	continuityDecay      = 0.30 // fraction of the tick removed per quiet tick
	continuitySaturation = 12.0 // seconds of activity for a full continuity factor

	// Energy normalisation
	energySpan = 0.12 // loudness above the floor that maps to energy 1.0

	// Stability estimator
	stabilitySmoothing = 0.08  // exponential factor for running mean/variance
	stabilityScale     = 900.0 // variance scale in 1/(1+var*K)

	// Indicator integration
	AttackRate  = 0.20  // exponential approach toward target while active
	ReleaseRate = 0.055 // linear decay per tick while quiet
)

// Snapshot is the observable state of an Engine after a tick.
type Snapshot struct {
	Final    Indicators // current clamped indicator vector
	Averaged Indicators // running mean of Final over all ticks since reset
	Peak     Indicators // per-channel maximum of Final since reset

	Active     bool
	Loudness   float64
	NoiseFloor float64
	Stability  float64
	Continuity float64 // seconds
	Ticks      int
}

// Engine is the per-capture activity state. The audio callback may call
// Observe concurrently with Tick; every other method belongs to the
// goroutine that drives ticks.
type Engine struct {
	detector  *Detector
	stability Stability
	scorer    Scorer

	lastActive    bool
	lastStability float64

	ticks int
	sum   Indicators
	peak  Indicators
}

// New returns an Engine in its initial quiet state.
func New() *Engine {
	return &Engine{detector: NewDetector()}
}

// Observe feeds the instantaneous RMS of one audio block.
func (e *Engine) Observe(rms float64) {
	e.detector.ObserveFrame(rms)
}

// Tick advances the engine by one TickInterval.
func (e *Engine) Tick() Snapshot {
	active := e.detector.Tick(TickInterval)
	loudness := e.detector.Loudness()
	stab := e.stability.Update(loudness)

	e.scorer.Step(Inputs{
		Active:     active,
		Loudness:   loudness,
		NoiseFloor: e.detector.NoiseFloor(),
		Stability:  stab,
		Continuity: e.detector.Continuity(),
	})

	e.lastActive = active
	e.lastStability = stab

	cur := e.scorer.Current()
	e.ticks++
	for i, v := range cur {
		e.sum[i] += v
		if v > e.peak[i] {
			e.peak[i] = v
		}
	}

	return e.Snapshot()
}

// Snapshot returns the state as of the last tick without advancing it.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Final:      e.scorer.Current(),
		Peak:       e.peak.Clamped(),
		Active:     e.lastActive,
		Loudness:   e.detector.Loudness(),
		NoiseFloor: e.detector.NoiseFloor(),
		Stability:  e.lastStability,
		Continuity: e.detector.Continuity(),
		Ticks:      e.ticks,
	}
	if e.ticks > 0 {
		for i := range e.sum {
			s.Averaged[i] = e.sum[i] / float64(e.ticks)
		}
		s.Averaged = s.Averaged.Clamped()
	}
	return s
}

// Reset returns the engine to its initial state.
func (e *Engine) Reset() {
	e.detector.Reset()
	e.stability = Stability{}
	e.scorer = Scorer{}
	e.lastActive = false
	e.lastStability = 0
	e.ticks = 0
	e.sum = Indicators{}
	e.peak = Indicators{}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
