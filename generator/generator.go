package generator

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/liamcoop/wardline/internal/logger"
)

// ErrMissingAPIKey is a configuration error: no Gemini key is set.
// No vendor call is attempted and nothing is retried.
var ErrMissingAPIKey = errors.New("missing GEMINI_API_KEY")

// VendorError wraps a failed call to the generation service
type VendorError struct {
	Model string
	Err   error
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("generation with %s failed: %v", e.Model, e.Err)
}

func (e *VendorError) Unwrap() error {
	return e.Err
}

// ContentGenerator is the part of the genai client the generator calls.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ClientFactory builds a ContentGenerator for an API key
type ClientFactory func(ctx context.Context, apiKey string) (ContentGenerator, error)

// GenAIClientFactory creates a Gemini client through google.golang.org/genai
func GenAIClientFactory(ctx context.Context, apiKey string) (ContentGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client.Models, nil
}

// Config selects the key and models
type Config struct {
	APIKey string
	// Model serves free-form prompts
	Model string
	// RequestModel writes request letters
	RequestModel string
}

// Generator turns prompts into text with a single synchronous vendor call.
// A client is created per call; there is no retry, backoff or timeout beyond ctx.
type Generator struct {
	cfg       Config
	newClient ClientFactory
}

// New creates a Generator. A nil factory means GenAIClientFactory.
func New(cfg Config, factory ClientFactory) *Generator {
	if factory == nil {
		factory = GenAIClientFactory
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.RequestModel == "" {
		cfg.RequestModel = "gemini-1.5-flash"
	}
	return &Generator{cfg: cfg, newClient: factory}
}

// Configured reports whether an API key is present
func (g *Generator) Configured() bool {
	return g.cfg.APIKey != ""
}

// Generate sends prompt verbatim and returns the generated text verbatim
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, g.cfg.Model, prompt)
}

// GenerateRequestLetter writes a letter to the alderman from the request fields
func (g *Generator) GenerateRequestLetter(ctx context.Context, l Letter) (string, error) {
	return g.generate(ctx, g.cfg.RequestModel, l.Prompt())
}

func (g *Generator) generate(ctx context.Context, model, prompt string) (string, error) {
	if !g.Configured() {
		logger.Error("Text generation requested without an API key", "model", model)
		return "", ErrMissingAPIKey
	}

	client, err := g.newClient(ctx, g.cfg.APIKey)
	if err != nil {
		logger.ErrorVendor()
		logger.Error("Error creating generation client", "model", model, "error", err)
		return "", &VendorError{Model: model, Err: err}
	}

	resp, err := client.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		logger.ErrorVendor()
		logger.Error("Error generating text", "model", model, "error", err)
		return "", &VendorError{Model: model, Err: err}
	}

	return responseText(resp), nil
}

// responseText returns the generated text, or "" for an empty response
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	return resp.Text()
}
