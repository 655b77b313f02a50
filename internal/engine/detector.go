package engine

import (
	"time"

	"go.uber.org/atomic"
)

// Detector tracks an adaptive noise floor and classifies each tick as
// active or quiet.
//
// The smoothed loudness is the only value shared with the audio callback.
// ObserveFrame has a single producer, so a plain load/store pair is enough:
// the tick side reads the last complete write.
type Detector struct {
	loudness   *atomic.Float64
	noiseFloor float64
	continuity float64 // seconds
}

// NewDetector returns a Detector with the initial floor.
func NewDetector() *Detector {
	return &Detector{
		loudness:   atomic.NewFloat64(0),
		noiseFloor: noiseFloorInit,
	}
}

// ObserveFrame smooths the instantaneous RMS of one audio block.
func (d *Detector) ObserveFrame(rms float64) {
	cur := d.loudness.Load()
	d.loudness.Store(cur + (rms-cur)*frameSmoothing)
}

// Tick adapts the floor, classifies activity and updates continuity.
// It returns true when the tick is active.
func (d *Detector) Tick(dt time.Duration) bool {
	loudness := d.loudness.Load()

	// Fall fast in a quieter room, rise slowly so speech is not absorbed.
	if loudness < d.noiseFloor {
		d.noiseFloor = max(noiseFloorMin, d.noiseFloor-noiseFloorFall)
	} else {
		d.noiseFloor = min(noiseFloorMax, d.noiseFloor+noiseFloorRise)
	}

	active := loudness > d.noiseFloor+activityMargin

	secs := dt.Seconds()
	if active {
		d.continuity += secs
	} else {
		d.continuity = max(0, d.continuity-secs*continuityDecay)
	}
	return active
}

// Loudness returns the smoothed loudness.
func (d *Detector) Loudness() float64 { return d.loudness.Load() }

// NoiseFloor returns the current adaptive floor.
func (d *Detector) NoiseFloor() float64 { return d.noiseFloor }

// Continuity returns accumulated recent speaking time in seconds.
func (d *Detector) Continuity() float64 { return d.continuity }

// Reset restores the initial floor and clears loudness and continuity.
func (d *Detector) Reset() {
	d.loudness.Store(0)
	d.noiseFloor = noiseFloorInit
	d.continuity = 0
}
