package llm_client

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

type openaiProvider struct {
	model       llms.Model
	modelName   string
	temperature float64
}

const openaiDefault = "gpt-4o-mini"

func (p *openaiProvider) Init(cfg Config) error {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	name := strings.TrimSpace(cfg.Model)
	if name == "" {
		name = openaiDefault
	}
	m, err := openai.New(openai.WithModel(name))
	if err != nil {
		return fmt.Errorf("openai client init: %w", err)
	}
	p.model = m
	p.modelName = name
	p.temperature = cfg.Temperature
	return nil
}

func (p *openaiProvider) DefaultModel() string { return openaiDefault }

func (p *openaiProvider) AllowedModelOrDefault(model string) string {
	m := strings.TrimSpace(model)
	if m == "" {
		return p.modelName
	}
	if !strings.HasPrefix(strings.ToLower(m), "gpt-") && !strings.HasPrefix(strings.ToLower(m), "o") {
		return p.modelName
	}
	return m
}

func (p *openaiProvider) Generate(ctx context.Context, prompt, model string) (string, error) {
	if p.model == nil {
		return "", ErrNotInitialized
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, p.model, prompt,
		llms.WithModel(p.AllowedModelOrDefault(model)),
		llms.WithTemperature(p.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	return out, nil
}

func (p *openaiProvider) GenerateJSON(ctx context.Context, prompt, model string, schema any) (string, error) {
	if p.model == nil {
		return "", ErrNotInitialized
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, p.model,
		prompt+"\n\nReturn ONLY strict JSON. No extra text.",
		llms.WithModel(p.AllowedModelOrDefault(model)),
		llms.WithTemperature(p.temperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		return "", fmt.Errorf("openai generate json: %w", err)
	}
	return strings.TrimSpace(out), nil
}
