package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/elayon/psiq/internal/capture"
	"github.com/elayon/psiq/internal/logging"
	"github.com/elayon/psiq/internal/session"
)

// Analyse scores a WAV file offline with the live engine.
type Analyse struct {
	Path      string
	HumHz     float64
	BlockSize int
	WriteLog  bool // also write <input>-psiq.log
	Out       io.Writer
	Logger    *slog.Logger
}

func (a *Analyse) Kind() Kind { return KindAnalyse }

func (a *Analyse) Run(ctx context.Context) error {
	start := time.Now()

	f, err := os.Open(a.Path)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	pcm, err := capture.DecodeWAV(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", a.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	res := session.Analyse(pcm, a.HumHz, a.BlockSize)
	logging.DisplayAnalysis(a.Out, a.Path, pcm.SampleRate, res)

	if a.WriteLog {
		path, err := logging.GenerateAnalysisLog(logging.LogData{
			InputPath:  a.Path,
			StartTime:  start,
			EndTime:    time.Now(),
			SampleRate: pcm.SampleRate,
			HumHz:      a.HumHz,
			Analysis:   res,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "\nLog written to %s\n", path)
	}
	if a.Logger != nil {
		a.Logger.Info("analysed", "path", a.Path, "ticks", res.Snapshot.Ticks, "active", res.ActiveTicks)
	}
	return nil
}
