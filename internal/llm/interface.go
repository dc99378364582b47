package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/llm-smoke/internal/config"
	"github.com/comigor/llm-smoke/internal/state"
)

// Client is minimal subset of openai.Client used by the providers; it is easy to mock in tests.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Provider sends a conversation to a chat-completion endpoint and returns the reply as an AI message.
type Provider interface {
	Name() config.Provider
	Model() string
	Call(ctx context.Context, messages []state.Message) (state.Message, error)
}
