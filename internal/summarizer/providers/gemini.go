package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

const (
	// DefaultGeminiModel is used for a bare "gemini" chain entry
	DefaultGeminiModel = "gemini-2.5-flash"

	geminiMaxOutputTokens = 256
	geminiTemperature     = 0.3
)

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// BaseURL overrides the API endpoint; used by tests.
	BaseURL string
}

// GeminiProvider calls Google Gemini through the genai SDK.
type GeminiProvider struct {
	config GeminiConfig

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiProvider creates a Gemini provider. The SDK client is created
// lazily on the first call.
func NewGeminiProvider(config GeminiConfig) *GeminiProvider {
	if config.Model == "" {
		config.Model = DefaultGeminiModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &GeminiProvider{config: config}
}

// Name returns the model name
func (p *GeminiProvider) Name() string {
	return p.config.Model
}

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	opts := genai.HTTPOptions{
		Timeout: genai.Ptr(p.config.Timeout),
	}
	if p.config.BaseURL != "" {
		opts.BaseURL = p.config.BaseURL
	}

	client, err := genai.NewClient(context.WithoutCancel(ctx), &genai.ClientConfig{
		APIKey:      p.config.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	p.client = client
	return client, nil
}

// Call sends one GenerateContent request.
func (p *GeminiProvider) Call(ctx context.Context, prompt string) (*Response, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, p.fail(KindTransportError, 0, err)
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(geminiTemperature)),
		MaxOutputTokens: geminiMaxOutputTokens,
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, p.config.Model, contents, config)
	if err != nil {
		return nil, p.classify(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, p.fail(KindHTTPError, 200, errors.New("empty response from Gemini"))
	}
	return &Response{Text: text}, nil
}

func (p *GeminiProvider) classify(err error) error {
	if isTimeout(err) {
		return p.fail(KindTimeout, 0, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return p.fail(KindHTTPError, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return p.fail(KindHTTPError, apiErrPtr.Code, err)
	}

	return p.fail(KindTransportError, 0, err)
}

func (p *GeminiProvider) fail(kind ErrorKind, status int, err error) *ProviderError {
	return &ProviderError{
		Kind:       kind,
		Backend:    p.config.Model,
		StatusCode: status,
		Err:        err,
	}
}
