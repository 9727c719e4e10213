package relay

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"

	"voxhr/internal/assistant"
)

const Greeting = "Hello! I'm Vox. How can I help you today?"

// Conversation is the single transcript shared by every session. It grows
// without bound.
type Conversation struct {
	client assistant.Client

	askMu sync.Mutex // one round trip at a time keeps turns paired
	mu    sync.RWMutex
	turns []assistant.Turn
}

func NewConversation(client assistant.Client, greeting string) *Conversation {
	c := &Conversation{client: client}
	if greeting != "" {
		c.turns = append(c.turns, assistant.Turn{Role: assistant.RoleAssistant, Content: greeting})
	}
	return c
}

// Ask appends text, sends the full history to the assistant and appends its
// reply. API failures come back as the reply text and are not recorded.
func (c *Conversation) Ask(ctx context.Context, text string) string {
	c.askMu.Lock()
	defer c.askMu.Unlock()

	c.append(assistant.Turn{Role: assistant.RoleUser, Content: text})

	reply, err := c.client.Reply(ctx, c.Turns())
	if err != nil {
		log.Error("Assistant call failed", "err", err)
		return fmt.Sprintf("Error communicating with assistant: %v", err)
	}

	c.append(assistant.Turn{Role: assistant.RoleAssistant, Content: reply})
	return reply
}

// Respond lets the conversation answer the voice loop.
func (c *Conversation) Respond(ctx context.Context, utterance string) (string, error) {
	return c.Ask(ctx, utterance), nil
}

func (c *Conversation) Turns() []assistant.Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]assistant.Turn(nil), c.turns...)
}

// AssistantTurns returns the assistant side of the transcript, oldest first.
func (c *Conversation) AssistantTurns() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []string
	for _, t := range c.turns {
		if t.Role == assistant.RoleAssistant {
			out = append(out, t.Content)
		}
	}
	return out
}

func (c *Conversation) append(t assistant.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, t)
}
