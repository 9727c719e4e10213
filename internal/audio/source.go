// Package audio turns captured or recorded speech into utterances for the
// listener.
package audio

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"voxhr/internal/listener"
)

const SampleRate = 16000

var ErrNoSpeech = errors.New("no speech before timeout")

// PhraseRecorder captures one phrase of mono 16 kHz PCM. It returns
// ErrNoSpeech when nothing louder than silence starts within timeout.
type PhraseRecorder interface {
	RecordPhrase(timeout, limit time.Duration) ([]float32, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, pcm16k []float32) (string, error)
}

// Cue is played right before a capture starts.
type Cue interface {
	Play() error
}

// blanks are what whisper emits for silence or noise.
var blanks = []string{"[BLANK_AUDIO]", "[ Silence ]", "(silence)", "[MUSIC]", "[NOISE]"}

// transcribe maps transcriber failures onto listener capture errors.
func transcribe(ctx context.Context, tr Transcriber, pcm []float32) (string, error) {
	if len(pcm) == 0 {
		return "", listener.ErrTimeout
	}

	text, err := tr.Transcribe(ctx, pcm)
	if err != nil {
		return "", fmt.Errorf("%w: %v", listener.ErrService, err)
	}

	for _, b := range blanks {
		text = strings.ReplaceAll(text, b, "")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", listener.ErrUnintelligible
	}
	return text, nil
}

// Mic captures from a live recorder.
type Mic struct {
	rec    PhraseRecorder
	tr     Transcriber
	cue    Cue
	ducker *Ducker
}

func NewMic(rec PhraseRecorder, tr Transcriber) *Mic {
	return &Mic{rec: rec, tr: tr}
}

func (m *Mic) WithCue(c Cue) *Mic {
	m.cue = c
	return m
}

// WithDucker lowers other applications' volume while recording.
func (m *Mic) WithDucker(d *Ducker) *Mic {
	m.ducker = d
	return m
}

func (m *Mic) Capture(ctx context.Context, w listener.Window) (string, error) {
	if m.cue != nil {
		if err := m.cue.Play(); err != nil {
			log.Warn("Failed to play cue", "err", err)
		}
	}

	if m.ducker != nil {
		if err := m.ducker.Duck(ctx); err != nil {
			log.Warn("Failed to duck", "err", err)
		}
		defer func() {
			if err := m.ducker.Restore(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to restore volume", "err", err)
			}
		}()
	}

	pcm, err := m.rec.RecordPhrase(w.Timeout, w.PhraseLimit)
	if errors.Is(err, ErrNoSpeech) {
		return "", listener.ErrTimeout
	}
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}

	log.Debug("Recorded", "samples", len(pcm))
	return transcribe(ctx, m.tr, pcm)
}

// Decoder loads an audio file as mono 16 kHz PCM, keeping at most
// maxSamples (0 = all).
type Decoder func(ctx context.Context, path string, maxSamples int) ([]float32, error)

// Replay feeds recorded files through the transcriber one per capture.
// Once they run out every capture waits out its timeout, like a silent
// room.
type Replay struct {
	dec Decoder
	tr  Transcriber

	mu    sync.Mutex
	paths []string
}

func NewReplay(paths []string, dec Decoder, tr Transcriber) *Replay {
	return &Replay{
		dec:   dec,
		tr:    tr,
		paths: append([]string(nil), paths...),
	}
}

func (r *Replay) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func (r *Replay) next() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.paths) == 0 {
		return "", false
	}
	p := r.paths[0]
	r.paths = r.paths[1:]
	return p, true
}

func (r *Replay) Capture(ctx context.Context, w listener.Window) (string, error) {
	path, ok := r.next()
	if !ok {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(w.Timeout):
		}
		return "", listener.ErrTimeout
	}

	maxSamples := int(w.PhraseLimit.Seconds() * SampleRate)
	pcm, err := r.dec(ctx, path, maxSamples)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}

	log.Debug("Replaying", "file", path, "samples", len(pcm))
	return transcribe(ctx, r.tr, pcm)
}
