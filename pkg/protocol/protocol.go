// Package protocol is the JSON wire format spoken between the relay server
// and its clients, plus a reconnecting websocket client.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	TypeMessage = "message"
	TypeStatus  = "status"
	TypeCommand = "command"

	CommandToggle = "toggle_listening"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrInvalid = errors.New("invalid message")

// Message covers every frame on the wire. Which fields are set depends on
// Type:
//
//	message: role, content, timestamp
//	status:  listening, timestamp
//	command: command
type Message struct {
	Type      string `json:"type"`
	Role      string `json:"role,omitempty"`
	Content   string `json:"content,omitempty"`
	Listening *bool  `json:"listening,omitempty"`
	Command   string `json:"command,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func Chat(role, content string, at time.Time) Message {
	return Message{
		Type:      TypeMessage,
		Role:      role,
		Content:   content,
		Timestamp: Timestamp(at),
	}
}

func Status(listening bool, at time.Time) Message {
	return Message{
		Type:      TypeStatus,
		Listening: &listening,
		Timestamp: Timestamp(at),
	}
}

func Command(cmd string) Message {
	return Message{
		Type:      TypeCommand,
		Command:   cmd,
		Timestamp: Timestamp(time.Now()),
	}
}

// IsListening reports the status flag; false for non-status frames.
func (m *Message) IsListening() bool {
	return m.Listening != nil && *m.Listening
}

// Time parses Timestamp, falling back to now.
func (m *Message) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		return time.Now()
	}
	return t
}

func (m *Message) Validate() error {
	switch m.Type {
	case TypeMessage:
		if m.Content == "" {
			return fmt.Errorf("%w: empty content", ErrInvalid)
		}
	case TypeStatus:
		if m.Listening == nil {
			return fmt.Errorf("%w: status without listening flag", ErrInvalid)
		}
	case TypeCommand:
		if m.Command == "" {
			return fmt.Errorf("%w: empty command", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalid, m.Type)
	}
	return nil
}

func Parse(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode renders m as one JSON text frame.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
