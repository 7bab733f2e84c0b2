// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm structures archive records through a locally hosted language
// model behind an OpenAI-compatible chat-completions API.
package llm

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pdiddy/sra-harvest/pkg/types"
)

// Backend is the completion interface the gateway depends on. Tests provide
// scripted implementations.
type Backend interface {
	// Complete sends one system+user exchange and returns the assistant text.
	Complete(ctx context.Context, system, user string) (string, error)

	// HealthCheck verifies the inference endpoint is reachable and serving.
	HealthCheck(ctx context.Context) error
}

// client is the production Backend over go-openai. Local endpoints such as
// Ollama expose the same chat-completions surface under their /v1 root.
type client struct {
	api   *openai.Client
	model string
}

func newClient(cfg types.LLMConfig) *client {
	oc := openai.DefaultConfig("unused")
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &client{api: openai.NewClientWithConfig(oc), model: cfg.Model}
}

func (c *client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *client) HealthCheck(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("inference endpoint unreachable: %w", err)
	}
	return nil
}

// Gateway wraps a Backend with the two structured operations the pipeline
// needs, plus the synthesis audit channel.
type Gateway struct {
	backend  Backend
	auditDir string
	log      *zap.Logger
}

// NewGateway builds a Gateway over the configured inference endpoint.
func NewGateway(cfg types.LLMConfig, log *zap.Logger) *Gateway {
	return &Gateway{backend: newClient(cfg), auditDir: cfg.AuditDir, log: log}
}

// NewGatewayWithBackend builds a Gateway over an explicit Backend.
func NewGatewayWithBackend(b Backend, auditDir string, log *zap.Logger) *Gateway {
	return &Gateway{backend: b, auditDir: auditDir, log: log}
}

// HealthCheck verifies the endpoint before a run starts. Callers treat a
// failure as fatal to the whole run.
func (g *Gateway) HealthCheck(ctx context.Context) error {
	return g.backend.HealthCheck(ctx)
}
