package session

import (
	"time"

	"github.com/elayon/psiq/internal/capture"
	"github.com/elayon/psiq/internal/engine"
)

// Analysis is the outcome of replaying a recording through the engine.
type Analysis struct {
	Snapshot    engine.Snapshot
	Duration    time.Duration
	Series      []engine.Indicators // Final after every tick
	ActiveTicks int
}

// Analyse scores pcm offline at the live tick cadence, feeding it in
// blocks of blockSize samples exactly as a capture source would.
func Analyse(pcm capture.PCM, humHz float64, blockSize int) Analysis {
	eng := engine.New()
	var a Analysis
	if pcm.SampleRate <= 0 || len(pcm.Samples) == 0 {
		a.Snapshot = eng.Snapshot()
		return a
	}
	if blockSize <= 0 {
		blockSize = 1024
	}

	var notch *engine.Notch
	if humHz > 0 {
		notch = engine.NewNotch(humHz, pcm.SampleRate)
	}
	observe := func(block []int16) {
		if notch != nil {
			eng.Observe(engine.RMS(notch.Filter(block), 0, 1))
		} else {
			eng.Observe(engine.RMSInt16(block))
		}
	}

	perTick := max(1, int(float64(pcm.SampleRate)*engine.TickInterval.Seconds()))
	for off := 0; off < len(pcm.Samples); off += perTick {
		chunk := pcm.Samples[off:min(off+perTick, len(pcm.Samples))]
		for b := 0; b < len(chunk); b += blockSize {
			observe(chunk[b:min(b+blockSize, len(chunk))])
		}
		s := eng.Tick()
		a.Series = append(a.Series, s.Final)
		if s.Active {
			a.ActiveTicks++
		}
	}

	a.Snapshot = eng.Snapshot()
	a.Duration = time.Duration(pcm.Duration() * float64(time.Second))
	return a
}
