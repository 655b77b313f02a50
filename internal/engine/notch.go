package engine

import "math"

// humQ is the notch quality factor: narrow enough to leave the voice
// fundamental untouched.
const humQ = 30.0

// Notch is a second-order band-reject filter used to strip mains hum from
// the loudness measurement. It keeps its state across blocks.
type Notch struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
	buf                []float64
}

// NewNotch returns a notch centred at freq Hz for the given sample rate.
// It returns nil when freq is not below Nyquist.
func NewNotch(freq float64, sampleRate int) *Notch {
	if freq <= 0 || sampleRate <= 0 || freq >= float64(sampleRate)/2 {
		return nil
	}
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * humQ)
	cosw := math.Cos(w0)
	a0 := 1 + alpha
	return &Notch{
		b0: 1 / a0,
		b1: -2 * cosw / a0,
		b2: 1 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

// Filter returns block filtered and normalised to [-1,1]. The returned
// slice is reused by the next call.
func (n *Notch) Filter(block []int16) []float64 {
	if cap(n.buf) < len(block) {
		n.buf = make([]float64, len(block))
	}
	out := n.buf[:len(block)]
	for i, s := range block {
		x := float64(s) / 32768
		y := n.b0*x + n.b1*n.x1 + n.b2*n.x2 - n.a1*n.y1 - n.a2*n.y2
		n.x2, n.x1 = n.x1, x
		n.y2, n.y1 = n.y1, y
		out[i] = y
	}
	return out
}

// Reset clears the filter history.
func (n *Notch) Reset() {
	n.x1, n.x2, n.y1, n.y2 = 0, 0, 0, 0
}
