package engine

import "math"

// Sample is any PCM sample type the envelope can measure.
type Sample interface {
	~uint8 | ~int16 | ~float32 | ~float64
}

// RMS returns sqrt(mean(((s-center)/scale)^2)) over block.
// An empty block measures as silence.
func RMS[S Sample](block []S, center, scale float64) float64 {
	if len(block) == 0 || scale == 0 {
		return 0
	}
	var sum float64
	for _, s := range block {
		v := (float64(s) - center) / scale
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(block)))
}

// RMSUint8 measures unsigned 8-bit samples centred at 128.
func RMSUint8(block []uint8) float64 {
	return RMS(block, 128, 128)
}

// RMSInt16 measures signed 16-bit PCM.
func RMSInt16(block []int16) float64 {
	return RMS(block, 0, 32768)
}
