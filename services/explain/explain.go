// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package explain turns a classified action report into a short plain
// language narrative using an OpenAI-compatible backend.
//
// The feature is optional and metered. Without an API key the
// constructor returns ErrNotConfigured and the report pipeline omits
// the narrative. The key itself lives in a memguard enclave so it
// never sits in swappable memory between requests.
package explain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/awnumar/memguard"
	openai "github.com/sashabaranov/go-openai"

	"github.com/AleutianAI/ParcelFOSS/services/actions"
)

// ErrNotConfigured means no API key is available; the explanation
// feature is off.
var ErrNotConfigured = errors.New("explanations not configured")

// ErrEmptyCompletion means the backend answered without content.
var ErrEmptyCompletion = errors.New("backend returned no completion")

const (
	defaultModel  = "gpt-4o-mini"
	keySecretPath = "/run/secrets/openai_api_key"

	systemPrompt = "You are a property development consultant summarizing a " +
		"zoning feasibility report for a homeowner. Use plain language, keep " +
		"to five sentences, lead with what the owner can do today, and never " +
		"state anything the report does not contain. This is not legal advice " +
		"and you must not present it as such."
)

// ChatClient is the completion surface of the OpenAI SDK, split out so
// tests can answer without a network.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures an Explainer.
type Config struct {
	// APIKey authenticates against the backend. Sealed into an
	// enclave by NewExplainer; the original should not be retained.
	APIKey string

	// BaseURL points at an OpenAI-compatible backend. Empty uses the
	// SDK default.
	BaseURL string

	// Model is the completion model. Empty uses gpt-4o-mini.
	Model string

	// Client overrides the SDK client. When set, APIKey and BaseURL
	// are ignored. For tests.
	Client ChatClient

	Logger *slog.Logger
}

// Explainer produces report narratives.
//
// # Thread Safety
//
//	Explainer is safe for concurrent use.
type Explainer struct {
	model   string
	baseURL string
	key     *memguard.Enclave
	client  ChatClient
	logger  *slog.Logger
}

// NewExplainer creates an explainer. Returns ErrNotConfigured when
// neither an API key nor an injected client is available.
func NewExplainer(cfg Config) (*Explainer, error) {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	e := &Explainer{
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
		client:  cfg.Client,
		logger:  cfg.Logger,
	}
	if e.client != nil {
		return e, nil
	}
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	e.key = memguard.NewEnclave([]byte(cfg.APIKey))
	return e, nil
}

// NewExplainerFromEnv reads OPENAI_API_KEY (or the container secret
// file) and OPENAI_MODEL, mirroring how the backend key reaches other
// deployments of this stack.
func NewExplainerFromEnv(logger *slog.Logger) (*Explainer, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		raw, err := os.ReadFile(keySecretPath)
		if err != nil {
			return nil, ErrNotConfigured
		}
		apiKey = strings.TrimSpace(string(raw))
	}
	return NewExplainer(Config{
		APIKey:  apiKey,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("OPENAI_MODEL"),
		Logger:  logger,
	})
}

// Explain summarizes classified action items for one property.
func (e *Explainer) Explain(ctx context.Context, address string, items []actions.ActionItem) (string, error) {
	if len(items) == 0 {
		return "", errors.New("nothing to explain: no action items")
	}

	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(address, items)},
		},
		Temperature: 0.2,
	}

	client, cleanup, err := e.chatClient()
	if err != nil {
		return "", err
	}
	defer cleanup()

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}

	e.logger.Debug("explanation generated",
		"address", address,
		"finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// chatClient returns the injected client, or builds one around the
// enclave-held key for the duration of a single call.
func (e *Explainer) chatClient() (ChatClient, func(), error) {
	if e.client != nil {
		return e.client, func() {}, nil
	}

	buf, err := e.key.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open key enclave: %w", err)
	}
	cfg := openai.DefaultConfig(buf.String())
	if e.baseURL != "" {
		cfg.BaseURL = e.baseURL
	}
	return openai.NewClientWithConfig(cfg), func() { buf.Destroy() }, nil
}

// buildPrompt renders the report in a stable, compact form. Items
// keep their catalog order so repeated runs produce the same prompt.
func buildPrompt(address string, items []actions.ActionItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Property: %s\n\nClassified actions:\n", address)

	for _, it := range items {
		fmt.Fprintf(&b, "- %s: %s", it.ActionName, it.Status)
		if it.Summary != "" {
			fmt.Fprintf(&b, " (%s)", it.Summary)
		}
		b.WriteString("\n")
		for _, blocker := range it.BlockingFactors {
			fmt.Fprintf(&b, "    blocked by: %s\n", blocker)
		}
		for _, cond := range it.Conditions {
			fmt.Fprintf(&b, "    condition: %s\n", cond)
		}
		for _, gap := range it.DataGaps {
			fmt.Fprintf(&b, "    missing data: %s\n", gap)
		}
	}

	b.WriteString("\nSummarize what the owner can build now, what needs conditions resolved, and what is blocked.")
	return b.String()
}
