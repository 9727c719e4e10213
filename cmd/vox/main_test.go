package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxhr/pkg/protocol"
)

type fakeSender struct {
	connected bool
	sent      []protocol.Message
}

func (f *fakeSender) Send(m protocol.Message) error {
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeSender) Connected() bool { return f.connected }

func TestChat(t *testing.T) {
	t.Parallel()

	s := &fakeSender{connected: true}
	var out bytes.Buffer
	chat(context.Background(), s, strings.NewReader("hello\n\n/toggle\n/quit\nignored\n"), &out)

	require.Len(t, s.sent, 2)
	assert.Equal(t, protocol.TypeMessage, s.sent[0].Type)
	assert.Equal(t, "hello", s.sent[0].Content)
	assert.Equal(t, protocol.TypeCommand, s.sent[1].Type)
	assert.Equal(t, protocol.CommandToggle, s.sent[1].Command)
	assert.Contains(t, out.String(), "User [")
}

func TestChatWhileDisconnected(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	var out bytes.Buffer
	chat(context.Background(), s, strings.NewReader("hello\n"), &out)

	assert.Empty(t, s.sent)
	assert.Contains(t, out.String(), "Not connected")
}

func TestDisplay(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 4, 17, 9, 30, 5, 0, time.UTC)
	var out bytes.Buffer

	m := protocol.Chat(protocol.RoleAssistant, "Hi!", at)
	display(&out, &m)
	st := protocol.Status(true, at)
	display(&out, &st)

	assert.Equal(t, "Assistant [09:30:05]:\nHi!\n\n-- Voice Recognition: ON\n", out.String())
}
