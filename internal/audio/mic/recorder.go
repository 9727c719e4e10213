// Package mic records phrases from the default input device.
package mic

import (
	"fmt"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"

	"voxhr/internal/audio"
)

const frameSize = 320 // 20ms at 16 kHz

type Recorder struct {
	SilenceRMS float64       // frames below this count as silence
	Pause      time.Duration // trailing silence that ends a phrase
}

func NewRecorder() *Recorder {
	return &Recorder{
		SilenceRMS: 0.015,
		Pause:      time.Second,
	}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// RecordPhrase waits up to timeout for speech, then records until a pause
// or until limit is reached.
func (r *Recorder) RecordPhrase(timeout, limit time.Duration) ([]float32, error) {
	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, audio.SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	var (
		frameDur     = time.Second * frameSize / audio.SampleRate
		waitFrames   = int(timeout / frameDur)
		maxFrames    = int(limit / frameDur)
		pauseFrames  = int(r.Pause / frameDur)
		out          = make([]float32, 0, audio.SampleRate*3)
		speaking     bool
		silentFrames int
		spoken       int
	)

	for i := 0; ; i++ {
		if !speaking && i >= waitFrames {
			return nil, audio.ErrNoSpeech
		}
		if speaking && spoken >= maxFrames {
			break
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read stream: %w", err)
		}

		loud := frameRMS(buf) > r.SilenceRMS
		if !speaking && !loud {
			continue
		}

		speaking = true
		spoken++
		out = append(out, buf...)

		if loud {
			silentFrames = 0
			continue
		}
		silentFrames++
		if silentFrames >= pauseFrames {
			break
		}
	}

	return out, nil
}

func frameRMS(f []float32) float64 {
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
