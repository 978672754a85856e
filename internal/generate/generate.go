// Package generate provides the content-generation collaborators injected
// into the pathway and shard services: a Google GenAI backed generator, an
// offline generator, and a timeout wrapper.
package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/dyluth/lattice/pkg/pathway"
)

// DefaultModel is used when Options.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// Options configures a GenAI generator.
type Options struct {
	APIKey      string
	Model       string
	Temperature float32
	TopK        float32
}

// GenAI generates text with Google's Gemini API.
type GenAI struct {
	client      *genai.Client
	model       string
	temperature float32
	topK        float32
}

// NewGenAI creates a GenAI generator. An empty API key is an error; callers
// that want to run without a model use Offline instead.
func NewGenAI(ctx context.Context, opts Options) (*GenAI, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAI{
		client:      client,
		model:       model,
		temperature: opts.Temperature,
		topK:        opts.TopK,
	}, nil
}

// Generate implements pathway.Generator.
func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", pathway.ErrOffline
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if g.topK > 0 {
		cfg.TopK = genai.Ptr(g.topK)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("GenAI returned no text")
	}
	return text, nil
}

// Name returns the generator name.
func (g *GenAI) Name() string {
	return fmt.Sprintf("genai:%s", g.model)
}

// Offline is the generator used when no model is configured. Every call
// fails with pathway.ErrOffline, which curriculum steps record as skipped.
type Offline struct{}

// Generate implements pathway.Generator.
func (Offline) Generate(context.Context, string) (string, error) {
	return "", pathway.ErrOffline
}

// Func adapts a plain function to pathway.Generator.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate implements pathway.Generator.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// WithTimeout bounds every call to gen by d. When the deadline passes the
// call returns context.DeadlineExceeded even if gen ignores its context; gen
// still sees the cancelled context and is expected to return soon after.
// A non-positive d returns gen unchanged.
func WithTimeout(gen pathway.Generator, d time.Duration) pathway.Generator {
	if d <= 0 || gen == nil {
		return gen
	}
	return &timeoutGenerator{inner: gen, timeout: d}
}

type timeoutGenerator struct {
	inner   pathway.Generator
	timeout time.Duration
}

type result struct {
	text string
	err  error
}

func (t *timeoutGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	// Buffered so the worker never blocks after the caller has given up.
	done := make(chan result, 1)
	go func() {
		text, err := t.inner.Generate(ctx, prompt)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("generation timed out after %s: %w", t.timeout, ctx.Err())
	}
}
