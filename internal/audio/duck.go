package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	ID     int
	Volume int
	App    string
}

// Ducker fades every PulseAudio sink input, except the ones owned by skip
// applications, down while the microphone is open and back afterwards.
type Ducker struct {
	Factor  float64       // target = current * Factor
	Floor   int           // never below this percent
	Fade    time.Duration // 0 = jump
	skip    []string
	pactl   func(ctx context.Context, args ...string) ([]byte, error)
	mu      sync.Mutex
	ducked  bool
	restore map[int]int // sink input id -> original percent
}

func NewDucker(skip ...string) *Ducker {
	return &Ducker{
		Factor: 0.3,
		Floor:  10,
		Fade:   150 * time.Millisecond,
		skip:   skip,
		pactl: func(ctx context.Context, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, "pactl", args...).Output()
		},
	}
}

func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ducked {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	d.restore = make(map[int]int, len(inputs))
	var fades []fade
	for _, in := range inputs {
		to := int(math.Round(float64(in.Volume) * d.Factor))
		if to < d.Floor {
			to = d.Floor
		}
		if to >= in.Volume {
			continue
		}
		d.restore[in.ID] = in.Volume
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: to})
	}

	d.ducked = true
	return d.fade(ctx, fades)
}

// Restore returns ducked inputs to their original volume. Inputs that
// appeared after Duck are left alone.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ducked {
		return nil
	}
	d.ducked = false

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, in := range inputs {
		if orig, ok := d.restore[in.ID]; ok {
			fades = append(fades, fade{id: in.ID, from: in.Volume, to: orig})
		}
	}
	d.restore = nil

	return d.fade(ctx, fades)
}

type fade struct {
	id, from, to int
}

func (d *Ducker) fade(ctx context.Context, fades []fade) error {
	if len(fades) == 0 {
		return nil
	}

	const step = 10 * time.Millisecond
	steps := int(d.Fade / step)
	if steps < 1 {
		steps = 1
	}

	for i := 1; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		for _, f := range fades {
			v := f.from + int(math.Round(float64(f.to-f.from)*frac))
			if err := d.setVolume(ctx, f.id, v); err != nil {
				return err
			}
		}
		if i < steps {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(step):
			}
		}
	}
	return nil
}

func (d *Ducker) setVolume(ctx context.Context, id, percent int) error {
	percent = max(0, min(percent, 150))
	if _, err := d.pactl(ctx, "set-sink-input-volume", strconv.Itoa(id), fmt.Sprintf("%d%%", percent)); err != nil {
		return fmt.Errorf("set volume of sink input %d: %w", id, err)
	}
	return nil
}

func (d *Ducker) list(ctx context.Context) ([]sinkInput, error) {
	out, err := d.pactl(ctx, "list", "sink-inputs")
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}

	var res []sinkInput
	for _, in := range parseSinkInputs(string(out)) {
		if !d.skipped(in.App) {
			res = append(res, in)
		}
	}
	return res, nil
}

func (d *Ducker) skipped(app string) bool {
	for _, s := range d.skip {
		if s == app {
			return true
		}
	}
	return false
}

func parseSinkInputs(text string) []sinkInput {
	blocks := strings.Split(text, "Sink Input #")
	var res []sinkInput

	for _, block := range blocks[1:] {
		head, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(head))
		if err != nil {
			continue
		}

		in := sinkInput{ID: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "Volume:") && in.Volume == 0:
				if m := percentRe.FindStringSubmatch(line); m != nil {
					in.Volume, _ = strconv.Atoi(m[1])
				}
			case strings.HasPrefix(line, "application.name =") && in.App == "":
				in.App = strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "application.name =")), `"`)
			}
		}

		if in.Volume > 0 {
			res = append(res, in)
		}
	}
	return res
}
