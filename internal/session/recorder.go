// Package session binds a capture source to the scoring engine and turns
// a bounded recording into a persisted store.Session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/elayon/psiq/internal/capture"
	"github.com/elayon/psiq/internal/engine"
	"github.com/elayon/psiq/internal/store"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// DefaultMaxDuration caps a recording when Options.MaxDuration is zero.
const DefaultMaxDuration = 120 * time.Second

var (
	// ErrMicOff is returned by Start when the microphone is not on.
	ErrMicOff = errors.New("microphone is off")

	// ErrRecordingActive is returned when turning the microphone off or
	// resetting while a recording is in progress.
	ErrRecordingActive = errors.New("recording in progress")
)

// State is the recorder lifecycle: idle → recording → stopped.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Persister saves a finished session asynchronously. *store.Async
// satisfies it.
type Persister interface {
	Put(s store.Session) *store.Future[struct{}]
}

// Update is published after every tick.
type Update struct {
	Snapshot  engine.Snapshot
	State     State
	SessionID string
	Elapsed   time.Duration // zero unless recording
}

type Options struct {
	Source      capture.Source
	Persister   Persister
	MaxDuration time.Duration
	HumHz       float64 // mains notch frequency, 0 disables
	Logger      *slog.Logger

	// OnTick and OnStop run on the tick goroutine (OnStop also on the
	// caller of Stop). They must not call back into the Recorder.
	OnTick func(Update)
	OnStop func(s store.Session, err error)
}

// Recorder owns one capture pipeline. The audio callback only writes the
// engine's smoothed loudness and the WAV buffer; all other state changes
// happen under mu.
type Recorder struct {
	opts Options
	log  *slog.Logger

	eng       *engine.Engine
	notch     *engine.Notch
	wav       *capture.WAVRecorder
	recording *atomic.Bool

	mu         sync.Mutex
	micOn      bool
	state      State
	id         string
	subject    string
	location   string
	startedAt  time.Time
	cancelLoop context.CancelFunc
	loopDone   chan struct{}

	now       func() time.Time
	newID     func() string
	newTicker func(time.Duration) (<-chan time.Time, func())
}

// New returns an idle Recorder with the microphone off.
func New(opts Options) *Recorder {
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Recorder{
		opts:      opts,
		log:       log,
		eng:       engine.New(),
		wav:       capture.NewWAVRecorder(),
		recording: atomic.NewBool(false),
		now:       time.Now,
		newID:     uuid.NewString,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// MicOn starts the capture source and the tick loop.
func (r *Recorder) MicOn() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.micOn {
		return nil
	}

	r.notch = nil
	if r.opts.HumHz > 0 {
		r.notch = engine.NewNotch(r.opts.HumHz, r.opts.Source.Format().SampleRate)
	}
	r.eng.Reset()

	if err := r.opts.Source.Start(r.onBlock); err != nil {
		r.state = StateIdle
		if !errors.Is(err, capture.ErrCaptureUnavailable) {
			err = fmt.Errorf("%w: %w", capture.ErrCaptureUnavailable, err)
		}
		r.log.Warn("microphone unavailable", "err", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	ticks, stop := r.newTicker(engine.TickInterval)
	done := make(chan struct{})
	r.micOn = true
	r.cancelLoop, r.loopDone = cancel, done
	go r.loop(ctx, ticks, stop, done)

	r.log.Info("microphone on", "sample_rate", r.opts.Source.Format().SampleRate, "hum_hz", r.opts.HumHz)
	return nil
}

// MicOff stops the source and clears the indicators. It is rejected while
// recording so a session never ends with a truncated payload.
func (r *Recorder) MicOff() error {
	r.mu.Lock()
	if !r.micOn {
		r.mu.Unlock()
		return nil
	}
	if r.state == StateRecording {
		r.mu.Unlock()
		return ErrRecordingActive
	}
	r.micOn = false
	cancel, done := r.cancelLoop, r.loopDone
	r.cancelLoop, r.loopDone = nil, nil
	r.mu.Unlock()

	cancel()
	<-done
	err := r.opts.Source.Stop()

	r.mu.Lock()
	r.eng.Reset()
	r.mu.Unlock()

	r.log.Info("microphone off")
	if err != nil {
		return fmt.Errorf("stop capture: %w", err)
	}
	return nil
}

// Start begins a recording and returns its session id. Calling Start while
// already recording returns the current id.
func (r *Recorder) Start(subjectRef, locationRef string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording {
		return r.id, nil
	}
	if !r.micOn {
		return "", ErrMicOff
	}

	r.id = r.newID()
	r.subject = strings.TrimSpace(subjectRef)
	r.location = strings.TrimSpace(locationRef)
	r.startedAt = r.now()
	r.eng.Reset()
	r.wav.Reset(r.opts.Source.Format().SampleRate)
	r.recording.Store(true)
	r.state = StateRecording

	r.log.Info("recording started", "session", r.id, "max_duration", r.opts.MaxDuration)
	return r.id, nil
}

// Stop finalizes the recording and persists it. It returns nil, nil when
// nothing is recording. On a persistence failure the session is still
// returned together with an error wrapping store.ErrPersistence.
func (r *Recorder) Stop(ctx context.Context) (*store.Session, error) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return nil, nil
	}
	s := r.finishLocked()
	r.mu.Unlock()

	err := r.persist(ctx, s)
	return &s, err
}

// Reset clears the indicators outside of a recording.
func (r *Recorder) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRecording {
		return ErrRecordingActive
	}
	r.eng.Reset()
	r.state = StateIdle
	return nil
}

// Close stops any recording and turns the microphone off.
func (r *Recorder) Close(ctx context.Context) error {
	_, stopErr := r.Stop(ctx)
	return errors.Join(stopErr, r.MicOff())
}

// State returns the lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// MicIsOn reports whether the source is running.
func (r *Recorder) MicIsOn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.micOn
}

// Snapshot returns the engine state as of the last tick.
func (r *Recorder) Snapshot() engine.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.eng.Snapshot()
}

// MaxDuration returns the recording cap.
func (r *Recorder) MaxDuration() time.Duration {
	return r.opts.MaxDuration
}

// onBlock runs on the capture goroutine.
func (r *Recorder) onBlock(block []int16) {
	var rms float64
	if r.notch != nil {
		rms = engine.RMS(r.notch.Filter(block), 0, 1)
	} else {
		rms = engine.RMSInt16(block)
	}
	r.eng.Observe(rms)

	if r.recording.Load() {
		r.wav.Write(block)
	}
}

func (r *Recorder) loop(ctx context.Context, ticks <-chan time.Time, stop func(), done chan struct{}) {
	defer close(done)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			r.tick()
		}
	}
}

// tick advances the engine and auto-stops once the cap is reached.
func (r *Recorder) tick() {
	r.mu.Lock()
	if !r.micOn {
		r.mu.Unlock()
		return
	}
	u := Update{
		Snapshot:  r.eng.Tick(),
		State:     r.state,
		SessionID: r.id,
	}

	var finished *store.Session
	if r.state == StateRecording {
		u.Elapsed = r.now().Sub(r.startedAt)
		if u.Elapsed >= r.opts.MaxDuration {
			r.log.Info("recording reached cap", "session", r.id)
			s := r.finishLocked()
			finished = &s
			u.State = r.state
		}
	}
	r.mu.Unlock()

	if r.opts.OnTick != nil {
		r.opts.OnTick(u)
	}
	if finished != nil {
		r.persist(context.Background(), *finished)
	}
}

// finishLocked builds the session record and moves to StateStopped.
func (r *Recorder) finishLocked() store.Session {
	r.recording.Store(false)
	now := r.now()

	dur := int(now.Sub(r.startedAt) / time.Second)
	dur = max(0, min(dur, int(r.opts.MaxDuration/time.Second)))

	audio, err := r.wav.Finalize()
	if err != nil {
		r.log.Error("finalize audio", "session", r.id, "err", err)
		audio = nil
	}

	snap := r.eng.Snapshot()
	r.state = StateStopped

	return store.Session{
		ID:                 r.id,
		CreatedAt:          now.Truncate(time.Millisecond),
		SubjectRef:         r.subject,
		LocationRef:        r.location,
		DurationSeconds:    dur,
		FinalIndicators:    snap.Final,
		AveragedIndicators: snap.Averaged,
		PeakIndicators:     snap.Peak,
		Audio:              audio,
		AudioType:          capture.MediaTypeWAV,
	}
}

func (r *Recorder) persist(ctx context.Context, s store.Session) error {
	var err error
	if r.opts.Persister == nil {
		err = fmt.Errorf("%w: no storage configured", store.ErrPersistence)
	} else if _, err = r.opts.Persister.Put(s).Wait(ctx); err != nil && !errors.Is(err, store.ErrPersistence) {
		err = fmt.Errorf("%w: %w", store.ErrPersistence, err)
	}

	if err != nil {
		r.log.Error("session may be lost", "session", s.ID, "err", err)
	} else {
		r.log.Info("session saved", "session", s.ID, "duration_s", s.DurationSeconds, "audio_bytes", len(s.Audio))
	}
	if r.opts.OnStop != nil {
		r.opts.OnStop(s, err)
	}
	return err
}
