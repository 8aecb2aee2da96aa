// Package llm is the optional model-assisted category tagger. When an
// API key is configured it refines the keyword-vote category on detected
// tickets; any failure falls back to the keyword vote.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"

	"pixelwatch/internal/detect"
)

const defaultModel = "claude-3-5-haiku-latest"

const maxBodyChars = 2000

type Tagger struct {
	client anthropic.Client
	model  string
}

func NewTagger(apiKey, model string) *Tagger {
	if model == "" {
		model = defaultModel
	}
	return &Tagger{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Tag asks the model to pick one category from the fixed list. The
// keyword-vote category is returned unchanged when the call fails or the
// answer is not a known category.
func (t *Tagger) Tag(ctx context.Context, title, body string, fallback detect.Category) detect.Category {
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}

	names := make([]string, 0, len(detect.Categories()))
	for _, c := range detect.Categories() {
		names = append(names, string(c))
	}

	system := fmt.Sprintf(
		"You classify pixel-tracking support tickets. Answer with exactly one of: %s. No other text.",
		strings.Join(names, ", "))
	prompt := fmt.Sprintf("Title: %s\n\nDescription: %s", title, body)

	message, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(t.model),
		MaxTokens: 16,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("llm tagger call failed, keeping keyword category")
		return fallback
	}

	var answer string
	for _, block := range message.Content {
		if block.Type == "text" {
			answer = strings.TrimSpace(strings.ToLower(block.Text))
			break
		}
	}

	for _, c := range detect.Categories() {
		if answer == string(c) {
			return c
		}
	}
	log.Warn().Str("answer", answer).Msg("llm tagger returned unknown category, keeping keyword category")
	return fallback
}
