// Package assistant talks to the external chat completion API.
package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const DefaultModel = openai.ChatModelGPT5Nano

const systemPrompt = `You are Vox, a friendly voice assistant.
Answers are read aloud and shown in a chat window, so keep them short and plain.`

var ErrEmptyReply = errors.New("empty reply")

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Client interface {
	Reply(ctx context.Context, history []Turn) (string, error)
}

type OpenAI struct {
	client    openai.Client
	model     string
	maxTokens int64
}

func NewOpenAI(client openai.Client, model string) *OpenAI {
	if model == "" {
		model = string(DefaultModel)
	}
	return &OpenAI{
		client:    client,
		model:     model,
		maxTokens: 1000,
	}
}

func (o *OpenAI) Reply(ctx context.Context, history []Turn) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	msgs = append(msgs, openai.SystemMessage(systemPrompt))
	for _, t := range history {
		switch t.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(t.Content))
		default:
			msgs = append(msgs, openai.UserMessage(t.Content))
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            msgs,
		Model:               openai.ChatModel(o.model),
		MaxCompletionTokens: openai.Int(o.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response: %w", ErrEmptyReply)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty message content: %w", ErrEmptyReply)
	}

	log.Debug("Assistant replied", "model", o.model, "chars", len(content))
	return content, nil
}
