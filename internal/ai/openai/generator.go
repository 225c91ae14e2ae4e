// Package openai implements ai.Generator against any OpenAI-compatible
// chat completion API (OpenAI, Ollama, vLLM, proxies).
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"contentapi/internal/ai"
	"contentapi/internal/config"
	"contentapi/internal/model"
)

// chatModel is the subset of llms.Model the generator needs; narrowed so
// tests can supply a fake.
type chatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Generator produces content metadata through an OpenAI-compatible chat
// model. Safe for concurrent use.
type Generator struct {
	model  string
	client chatModel
	logger *slog.Logger
}

// New creates a Generator from configuration. BaseURL may point at any
// OpenAI-compatible endpoint; an empty token is replaced with a placeholder
// for local services that skip authentication.
func New(cfg config.AIConfig) (*Generator, error) {
	if cfg.Model == "" {
		return nil, errors.New("ai model is required")
	}

	opts := []openai.Option{openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	token := cfg.Token
	if token == "" {
		token = "none"
	}
	opts = append(opts, openai.WithToken(token))

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create model client: %w", err)
	}

	return &Generator{
		model:  cfg.Model,
		client: client,
		logger: slog.Default().With("component", "metadata-generator"),
	}, nil
}

var _ ai.Generator = (*Generator)(nil)

// GenerateMetadata builds a category-specific prompt for the blob at
// filePath, invokes the model, and parses its JSON output. contentText, when
// non-empty, is used instead of reading the file. Failures degrade to an
// error payload; this method never reports an error to the caller.
func (g *Generator) GenerateMetadata(ctx context.Context, filePath, contentText string) model.Metadata {
	messages := g.buildMessages(filePath, contentText)

	resp, err := g.client.GenerateContent(ctx, messages, llms.WithTemperature(0.0))
	if err != nil {
		g.logger.Error("model invocation failed", "path", filePath, "err", err)
		return ai.Degraded(err)
	}
	if len(resp.Choices) == 0 {
		g.logger.Error("model returned no choices", "path", filePath)
		return ai.Degraded(errors.New("model returned no choices"))
	}

	raw := extractJSON(resp.Choices[0].Content)
	var meta model.Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		g.logger.Warn("unparseable model output", "path", filePath, "output", raw, "err", err)
		return ai.Degraded(fmt.Errorf("parse model output: %w", err))
	}
	return meta
}

func (g *Generator) buildMessages(filePath, contentText string) []llms.MessageContent {
	category := categoryFor(filePath)

	if category == categoryImage {
		if msgs, ok := g.imageMessages(filePath); ok {
			return msgs
		}
		// Unreadable image: fall back to a text-only prompt carrying just
		// the filename. Never surfaces to the caller.
		category = categoryDefault
		contentText = filepath.Base(filePath)
	}

	content := contentText
	if content == "" {
		content = readTextContent(filePath)
	}
	prompt := buildPrompt(category)
	content = truncateContent(g.model, prompt, content)

	return []llms.MessageContent{{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.TextPart(prompt + "\n\nContent:\n" + content),
		},
	}}
}

// imageMessages pairs the image prompt with the inline base64 payload.
// ok is false when the file cannot be read.
func (g *Generator) imageMessages(filePath string) ([]llms.MessageContent, bool) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		g.logger.Warn("image unreadable, using filename-only prompt", "path", filePath, "err", err)
		return nil, false
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filePath)))
	if mimeType == "" {
		mimeType = "image/png"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)

	return []llms.MessageContent{{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.TextPart(buildPrompt(categoryImage)),
			llms.ImageURLPart(dataURL),
		},
	}}, true
}

// readTextContent reads the blob as UTF-8 text, dropping invalid byte
// sequences. When the file cannot be read at all, the filename stands in
// for the content.
func readTextContent(filePath string) string {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return filepath.Base(filePath)
	}
	return strings.ToValidUTF8(string(data), "")
}
