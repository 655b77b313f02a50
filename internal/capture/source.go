// Package capture provides microphone input, the recorded WAV payload and
// playback of stored recordings.
package capture

import (
	"encoding/binary"
	"errors"
)

// ErrCaptureUnavailable is returned when the microphone cannot be opened:
// permission denied, no device, or an audio backend failure.
var ErrCaptureUnavailable = errors.New("capture unavailable")

// Format describes the PCM blocks a Source delivers.
type Format struct {
	SampleRate int
	Channels   int
	BlockSize  int // samples per block
}

// Source delivers fixed-size blocks of mono signed 16-bit PCM.
// onBlock is called from the source's own goroutine and must not retain
// the slice.
type Source interface {
	Start(onBlock func(block []int16)) error
	Stop() error
	Format() Format
}

// blocker regroups arbitrary little-endian S16 byte chunks into blocks of
// a fixed number of samples.
type blocker struct {
	block []int16
	n     int
	odd   []byte // trailing half sample
}

func newBlocker(size int) *blocker {
	return &blocker{block: make([]int16, size)}
}

func (b *blocker) push(p []byte, emit func([]int16)) {
	if len(b.odd) > 0 {
		p = append(b.odd, p...)
		b.odd = nil
	}
	for len(p) >= 2 {
		b.block[b.n] = int16(binary.LittleEndian.Uint16(p))
		b.n++
		p = p[2:]
		if b.n == len(b.block) {
			emit(b.block)
			b.n = 0
		}
	}
	if len(p) == 1 {
		b.odd = []byte{p[0]}
	}
}

func (b *blocker) reset() {
	b.n = 0
	b.odd = nil
}
