// Package voice assembles the capture source and reply speaker described
// by config.Voice.
package voice

import (
	"fmt"
	log "log/slog"

	"voxhr/internal/audio"
	"voxhr/internal/audio/mic"
	"voxhr/internal/config"
	"voxhr/internal/listener"
	"voxhr/internal/notify"
	"voxhr/internal/tts"
	"voxhr/pkg/audioconv"
	"voxhr/pkg/stt"
)

// Open returns nil when voice is disabled. The returned close func is never
// nil.
func Open(cfg config.Voice, prompt string) (listener.Source, func(), error) {
	noop := func() {}
	if cfg.Disabled {
		log.Info("Voice capture disabled")
		return nil, noop, nil
	}

	tr, err := stt.NewTranscriber(cfg.WhisperModel, stt.Options{
		Language:      cfg.Language,
		InitialPrompt: prompt,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("init whisper: %w", err)
	}
	log.Debug("Loaded whisper", "model", cfg.WhisperModel)

	if len(cfg.Replay) > 0 {
		log.Info("Replaying audio files", "count", len(cfg.Replay))
		return audio.NewReplay(cfg.Replay, audioconv.DecodeFile, tr), func() { tr.Close() }, nil
	}

	rec := mic.NewRecorder()
	if err := rec.Init(); err != nil {
		tr.Close()
		return nil, noop, fmt.Errorf("init audio: %w", err)
	}
	log.Debug("Loaded recorder")

	src := audio.NewMic(rec, tr)
	if cfg.Cue != "" {
		src.WithCue(notify.NewBeeper(cfg.Cue))
	}
	if cfg.Duck {
		src.WithDucker(audio.NewDucker("vox", "ALSA plug-in [vox]"))
	}

	return src, func() {
		rec.Close()
		tr.Close()
	}, nil
}

// Speaker returns a reply hook for the listener, or nil when replies stay
// silent.
func Speaker(cfg config.Voice) func(string) {
	if !cfg.Speak {
		return nil
	}
	sp := tts.NewSpeaker(cfg.Language)
	return func(reply string) {
		if err := sp.Speak(reply); err != nil {
			log.Error("Failed to voice out", "err", err)
		}
	}
}
