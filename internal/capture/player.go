package capture

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Play decodes a WAV payload and plays it on the default output device,
// returning when playback ends or ctx is cancelled.
func Play(ctx context.Context, wavData []byte) error {
	pcm, err := DecodeWAVBytes(wavData)
	if err != nil {
		return err
	}
	if len(pcm.Samples) == 0 {
		return nil
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   pcm.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	<-ready

	raw := make([]byte, len(pcm.Samples)*2)
	for i, s := range pcm.Samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}

	player := otoCtx.NewPlayer(bytes.NewReader(raw))
	defer player.Close()
	player.Play()

	t := time.NewTicker(50 * time.Millisecond)
	defer t.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}
