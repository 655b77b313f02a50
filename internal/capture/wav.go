package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// MediaTypeWAV is the media type of recorded payloads.
const MediaTypeWAV = "audio/wav"

// WAVRecorder accumulates mono 16-bit PCM and finalizes it into a WAV file.
// Write is safe to call from the capture goroutine while another goroutine
// finalizes; writes after Finalize are dropped.
type WAVRecorder struct {
	mu         sync.Mutex
	sampleRate int
	samples    []int
	closed     bool
}

// NewWAVRecorder returns a closed recorder; call Reset to begin.
func NewWAVRecorder() *WAVRecorder {
	return &WAVRecorder{closed: true}
}

// Reset discards any samples and opens the recorder at sampleRate.
func (r *WAVRecorder) Reset(sampleRate int) {
	r.mu.Lock()
	r.sampleRate = sampleRate
	r.samples = r.samples[:0]
	r.closed = false
	r.mu.Unlock()
}

// Write appends one block.
func (r *WAVRecorder) Write(pcm []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	for _, s := range pcm {
		r.samples = append(r.samples, int(s))
	}
}

// Samples returns the number of samples written since Reset.
func (r *WAVRecorder) Samples() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Finalize closes the recorder and returns the WAV bytes.
func (r *WAVRecorder) Finalize() ([]byte, error) {
	r.mu.Lock()
	r.closed = true
	data := make([]int, len(r.samples))
	copy(data, r.samples)
	rate := r.sampleRate
	r.mu.Unlock()

	return EncodeWAV(data, rate)
}

// EncodeWAV writes mono 16-bit samples as a WAV file.
func EncodeWAV(samples []int, sampleRate int) ([]byte, error) {
	ws := &writeSeeker{}
	enc := wav.NewEncoder(ws, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav: %w", err)
	}
	return ws.buf, nil
}

// PCM is decoded mono audio.
type PCM struct {
	Samples    []int16
	SampleRate int
}

// Duration returns the length in seconds.
func (p PCM) Duration() float64 {
	if p.SampleRate == 0 {
		return 0
	}
	return float64(len(p.Samples)) / float64(p.SampleRate)
}

// DecodeWAV reads a WAV file and downmixes it to mono 16-bit PCM.
func DecodeWAV(r io.ReadSeeker) (PCM, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return PCM{}, errors.New("not a valid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("read PCM: %w", err)
	}

	depth := int(dec.BitDepth)
	var shift func(int) int
	switch depth {
	case 16:
		shift = func(v int) int { return v }
	case 24:
		shift = func(v int) int { return v >> 8 }
	case 32:
		shift = func(v int) int { return v >> 16 }
	default:
		return PCM{}, fmt.Errorf("unsupported bit depth %d", depth)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	frames := len(buf.Data) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += shift(buf.Data[i*channels+c])
		}
		out[i] = int16(sum / channels)
	}
	return PCM{Samples: out, SampleRate: buf.Format.SampleRate}, nil
}

// DecodeWAVBytes decodes an in-memory WAV payload.
func DecodeWAVBytes(data []byte) (PCM, error) {
	return DecodeWAV(bytes.NewReader(data))
}

// writeSeeker is an in-memory io.WriteSeeker; the WAV encoder seeks back
// to patch chunk sizes on Close.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	end := w.pos + len(p)
	if end > len(w.buf) {
		w.buf = append(w.buf, make([]byte, end-len(w.buf))...)
	}
	copy(w.buf[w.pos:], p)
	w.pos = end
	return len(p), nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(w.pos) + offset
	case io.SeekEnd:
		abs = int64(len(w.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	w.pos = int(abs)
	return abs, nil
}
