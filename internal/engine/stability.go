package engine

// Stability keeps an exponential running mean and variance of loudness.
type Stability struct {
	mean     float64
	variance float64
}

// Update folds one loudness value in and returns the stability score:
// near 1 for steady loudness, near 0 for volatile loudness.
func (s *Stability) Update(loudness float64) float64 {
	s.mean += (loudness - s.mean) * stabilitySmoothing
	diff := loudness - s.mean
	s.variance += (diff*diff - s.variance) * stabilitySmoothing
	return clamp01(1 / (1 + s.variance*stabilityScale))
}

// Mean returns the running mean.
func (s *Stability) Mean() float64 { return s.mean }

// Variance returns the running variance.
func (s *Stability) Variance() float64 { return s.variance }
