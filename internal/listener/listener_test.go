package listener

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxhr/internal/event"
)

type capture struct {
	text string
	err  error
}

// scriptSource plays back captures in order, then times out forever.
type scriptSource struct {
	mu      sync.Mutex
	script  []capture
	calls   int
	windows []Window
}

func (s *scriptSource) Capture(_ context.Context, w Window) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.windows = append(s.windows, w)
	if len(s.script) == 0 {
		time.Sleep(5 * time.Millisecond)
		return "", ErrTimeout
	}
	c := s.script[0]
	s.script = s.script[1:]
	return c.text, c.err
}

func echo() Responder {
	return ResponderFunc(func(_ context.Context, u string) (string, error) {
		return "echo: " + u, nil
	})
}

func testConfig() Config {
	return Config{
		ListenTimeout:   time.Second,
		PhraseTimeLimit: 2 * time.Second,
		IdleInterval:    time.Millisecond,
	}
}

func TestToggleAlternates(t *testing.T) {
	t.Parallel()

	q := event.NewQueue()
	c := New(testConfig(), &scriptSource{}, echo(), q)

	require.False(t, c.Listening())
	c.Toggle()
	assert.True(t, c.Listening())
	c.Toggle()
	assert.False(t, c.Listening())

	got := q.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, event.Status, got[0].Kind)
	assert.True(t, got[0].Listening)
	assert.Equal(t, event.Status, got[1].Kind)
	assert.False(t, got[1].Listening)
}

func TestToggleWithoutSource(t *testing.T) {
	t.Parallel()

	q := event.NewQueue()
	c := New(testConfig(), nil, echo(), q)

	assert.False(t, c.CanCapture())
	c.Toggle()
	assert.False(t, c.Listening())

	got := q.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, event.System, got[0].Kind)
	assert.Equal(t, DisabledNotice, got[0].Text)
}

func TestIdleDoesNotCapture(t *testing.T) {
	t.Parallel()

	src := &scriptSource{}
	q := event.NewQueue()
	c := New(testConfig(), src, echo(), q)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	c.Run(ctx)

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Zero(t, src.calls)
	assert.Zero(t, q.Len())
}

func TestListenPublishesExchange(t *testing.T) {
	t.Parallel()

	src := &scriptSource{script: []capture{
		{text: "hello"},
		{err: ErrUnintelligible},
		{err: fmt.Errorf("%w: quota exceeded", ErrService)},
		{text: "   "},
		{text: "help"},
	}}
	q := event.NewQueue()
	c := New(testConfig(), src, echo(), q)

	var replies []string
	c.OnReply(func(r string) { replies = append(replies, r) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	c.Toggle()

	var got []event.Event
	require.Eventually(t, func() bool {
		got = append(got, q.Drain()...)
		assistants := 0
		for _, e := range got {
			if e.Kind == event.Assistant {
				assistants++
			}
		}
		return assistants == 2
	}, time.Second, time.Millisecond)

	c.Toggle()
	cancel()
	<-done

	got = append(got, q.Drain()...)

	want := []struct {
		kind event.Kind
		text string
	}{
		{event.Status, ""},
		{event.System, "Listening..."},
		{event.User, "hello"},
		{event.Assistant, "echo: hello"},
		{event.System, "Listening..."},
		{event.System, "Sorry, I could not understand the audio."},
		{event.System, "Listening..."},
		{event.System, "Speech recognition service error: recognition service error: quota exceeded"},
		{event.System, "Listening..."},
		{event.System, "Sorry, I could not understand the audio."},
		{event.System, "Listening..."},
		{event.User, "help"},
		{event.Assistant, "echo: help"},
	}
	require.GreaterOrEqual(t, len(got), len(want))
	for i, w := range want {
		assert.Equal(t, w.kind, got[i].Kind, "event %d", i)
		if w.text != "" {
			assert.Equal(t, w.text, got[i].Text, "event %d", i)
		}
	}
	assert.Equal(t, []string{"echo: hello", "echo: help"}, replies)

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, Window{Timeout: time.Second, PhraseLimit: 2 * time.Second}, src.windows[0])
}

func TestStaysListeningAcrossTimeouts(t *testing.T) {
	t.Parallel()

	src := &scriptSource{}
	q := event.NewQueue()
	c := New(testConfig(), src, echo(), q)
	c.Toggle()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls >= 3
	}, time.Second, time.Millisecond)

	cancel()
	<-done

	assert.True(t, c.Listening())
	for _, e := range q.Drain() {
		if e.Kind == event.System && e.Text != "Listening..." {
			assert.Equal(t, "Listening timed out. No speech detected.", e.Text)
		}
	}
}

func TestResponderErrorIsReported(t *testing.T) {
	t.Parallel()

	src := &scriptSource{script: []capture{{text: "boom"}}}
	q := event.NewQueue()
	fail := ResponderFunc(func(context.Context, string) (string, error) {
		return "", fmt.Errorf("backend down")
	})
	c := New(testConfig(), src, fail, q)
	c.Toggle()
	q.Drain()

	c.listenOnce(context.Background())

	got := q.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, event.User, got[1].Kind)
	assert.Equal(t, "Error: backend down", got[2].Text)
}

func TestDiagnose(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Listening timed out. No speech detected.", Diagnose(fmt.Errorf("wrap: %w", ErrTimeout)))
	assert.Equal(t, "Error: mic unplugged", Diagnose(fmt.Errorf("mic unplugged")))
}
