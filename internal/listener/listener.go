// Package listener runs the voice loop: while listening it captures one
// utterance at a time, hands it to a Responder and publishes the exchange.
package listener

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"voxhr/internal/event"
)

// DisabledNotice is published when a toggle arrives without a capture source.
const DisabledNotice = "Voice capture is disabled."

var (
	ErrTimeout        = errors.New("no speech detected before timeout")
	ErrUnintelligible = errors.New("speech not recognized")
	ErrService        = errors.New("recognition service error")
)

// Window bounds a single capture.
type Window struct {
	Timeout     time.Duration // wait for speech to start
	PhraseLimit time.Duration // max length of the phrase
}

type Source interface {
	Capture(ctx context.Context, w Window) (string, error)
}

type Responder interface {
	Respond(ctx context.Context, utterance string) (string, error)
}

type ResponderFunc func(ctx context.Context, utterance string) (string, error)

func (f ResponderFunc) Respond(ctx context.Context, utterance string) (string, error) {
	return f(ctx, utterance)
}

type Config struct {
	ListenTimeout   time.Duration
	PhraseTimeLimit time.Duration
	IdleInterval    time.Duration
}

func DefaultConfig() Config {
	return Config{
		ListenTimeout:   5 * time.Second,
		PhraseTimeLimit: 10 * time.Second,
		IdleInterval:    100 * time.Millisecond,
	}
}

type Controller struct {
	cfg  Config
	src  Source
	resp Responder
	out  event.Publisher

	toggleMu  sync.Mutex
	listening atomic.Bool

	onReply func(string)
}

func New(cfg Config, src Source, resp Responder, out event.Publisher) *Controller {
	def := DefaultConfig()
	if cfg.ListenTimeout <= 0 {
		cfg.ListenTimeout = def.ListenTimeout
	}
	if cfg.PhraseTimeLimit <= 0 {
		cfg.PhraseTimeLimit = def.PhraseTimeLimit
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = def.IdleInterval
	}

	return &Controller{
		cfg:  cfg,
		src:  src,
		resp: resp,
		out:  out,
	}
}

// OnReply installs a hook called with every reply after it is published.
// Must be set before Run.
func (c *Controller) OnReply(f func(reply string)) {
	c.onReply = f
}

// CanCapture reports whether the controller has a capture source. Without
// one Toggle never leaves IDLE.
func (c *Controller) CanCapture() bool {
	return c.src != nil
}

func (c *Controller) Listening() bool {
	return c.listening.Load()
}

// Toggle flips IDLE <-> LISTENING and publishes the new state. A capture in
// flight is not interrupted; the loop sees the change before its next
// capture.
func (c *Controller) Toggle() {
	c.toggleMu.Lock()
	defer c.toggleMu.Unlock()

	if c.src == nil {
		log.Warn("Voice capture disabled, ignoring toggle")
		c.out.Publish(event.NewSystem(DisabledNotice))
		return
	}

	now := !c.listening.Load()
	c.listening.Store(now)

	if now {
		log.Info("Voice recognition activated")
	} else {
		log.Info("Voice recognition deactivated")
	}
	c.out.Publish(event.NewStatus(now))
}

// Run blocks until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	idle := time.NewTicker(c.cfg.IdleInterval)
	defer idle.Stop()

	for {
		if ctx.Err() != nil {
			return
		}

		if !c.listening.Load() {
			select {
			case <-ctx.Done():
				return
			case <-idle.C:
			}
			continue
		}

		c.listenOnce(ctx)
	}
}

func (c *Controller) listenOnce(ctx context.Context) {
	c.out.Publish(event.NewSystem("Listening..."))

	text, err := c.src.Capture(ctx, Window{
		Timeout:     c.cfg.ListenTimeout,
		PhraseLimit: c.cfg.PhraseTimeLimit,
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrUnintelligible
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Debug("Capture failed", "err", err)
		c.out.Publish(event.NewSystem(Diagnose(err)))
		return
	}

	text = strings.TrimSpace(text)
	log.Info("Recognized", "text", text)
	c.out.Publish(event.NewUser(text))

	reply, err := c.resp.Respond(ctx, text)
	if err != nil {
		log.Error("Failed to respond", "err", err)
		c.out.Publish(event.NewSystem(fmt.Sprintf("Error: %v", err)))
		return
	}

	c.out.Publish(event.NewAssistant(reply))
	if c.onReply != nil {
		c.onReply(reply)
	}
}

// Diagnose turns a capture failure into the text shown to the user.
func Diagnose(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "Listening timed out. No speech detected."
	case errors.Is(err, ErrUnintelligible):
		return "Sorry, I could not understand the audio."
	case errors.Is(err, ErrService):
		return fmt.Sprintf("Speech recognition service error: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
