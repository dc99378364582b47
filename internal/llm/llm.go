package llm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/comigor/llm-smoke/internal/config"
	"github.com/comigor/llm-smoke/internal/logger"
	"github.com/comigor/llm-smoke/internal/state"
)

// New returns the provider variant selected by cfg.Provider.
func New(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case config.ProviderAzure:
		return NewAzure(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// OpenAI talks to an OpenAI-compatible /chat/completions endpoint (OpenAI, vLLM, gateways).
type OpenAI struct {
	chat
}

// NewOpenAI creates an OpenAI-compatible provider rooted at cfg.Endpoint.
func NewOpenAI(cfg config.LLMConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	}
	return &OpenAI{chat: newChat(config.ProviderOpenAI, openai.NewClientWithConfig(clientCfg), cfg.Model, cfg)}
}

// Azure talks to an Azure OpenAI deployment. Requests are routed by deployment name and
// carry the api-version query parameter.
type Azure struct {
	chat
}

// NewAzure creates an Azure OpenAI provider for cfg.DeploymentName.
func NewAzure(cfg config.LLMConfig) *Azure {
	clientCfg := openai.DefaultAzureConfig(cfg.APIKey, strings.TrimRight(cfg.Endpoint, "/"))
	clientCfg.APIVersion = cfg.APIVersion
	deployment := cfg.DeploymentName
	// The default mapper strips dots and colons from model names; deployment names are used verbatim.
	clientCfg.AzureModelMapperFunc = func(string) string { return deployment }
	return &Azure{chat: newChat(config.ProviderAzure, openai.NewClientWithConfig(clientCfg), deployment, cfg)}
}

// chat holds the request parameters shared by both variants.
type chat struct {
	provider    config.Provider
	client      Client
	model       string
	temperature float32
	maxTokens   int
}

func newChat(p config.Provider, client Client, model string, cfg config.LLMConfig) chat {
	return chat{
		provider:    p,
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Name returns the provider identifier.
func (c *chat) Name() config.Provider { return c.provider }

// Model returns the model (openai) or deployment (azure) the provider targets.
func (c *chat) Model() string { return c.model }

// Call performs a single chat completion. There is no retry.
func (c *chat) Call(ctx context.Context, messages []state.Message) (state.Message, error) {
	temperature := c.temperature
	if temperature == 0 {
		// Temperature is omitempty in the request; a literal 0 would fall back to the server default.
		temperature = math.SmallestNonzeroFloat32
	}
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		callErr := newCallError(c.provider, err)
		logger.L.Error("LLM call failed", "provider", c.provider, "model", c.model, "status", callErr.StatusCode, "error", err)
		return state.Message{}, callErr
	}

	if len(resp.Choices) == 0 {
		return state.Message{}, &CallError{Provider: c.provider, Message: "malformed response: no choices"}
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return state.Message{}, &CallError{Provider: c.provider, Message: "malformed response: empty content"}
	}

	logger.L.Info("LLM call completed",
		"provider", c.provider,
		"model", c.model,
		"duration", time.Since(start),
		"finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", resp.Usage.TotalTokens,
	)
	return state.AI(content), nil
}

func toOpenAIMessages(msgs []state.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		if m.Role == state.RoleAI {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
