package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	// DefaultHuggingFaceURL is the Inference API root; the model name is appended.
	DefaultHuggingFaceURL = "https://api-inference.huggingface.co/models"

	maxResponseBytes = 1 << 20
)

// Shape is the request/response convention of a Hugging Face model.
type Shape string

const (
	ShapeSummarization  Shape = "summarization"
	ShapeTextGeneration Shape = "text-generation"
)

// HuggingFaceConfig configures one Hugging Face backend.
type HuggingFaceConfig struct {
	APIKey  string
	Model   string
	Shape   Shape
	BaseURL string
	Timeout time.Duration
}

// HuggingFaceProvider calls the Hugging Face Inference API for one model.
type HuggingFaceProvider struct {
	config     HuggingFaceConfig
	httpClient *http.Client
}

type hfRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters"`
}

// hfLoading is the body of a 503 while the model is being loaded.
type hfLoading struct {
	Error         string   `json:"error"`
	EstimatedTime *float64 `json:"estimated_time"`
}

// NewHuggingFaceProvider creates a provider for config.Model.
func NewHuggingFaceProvider(config HuggingFaceConfig) *HuggingFaceProvider {
	if config.BaseURL == "" {
		config.BaseURL = DefaultHuggingFaceURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Shape == "" {
		config.Shape = ShapeTextGeneration
	}
	return &HuggingFaceProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the model name
func (p *HuggingFaceProvider) Name() string {
	return p.config.Model
}

// Shape returns the request convention used for this model
func (p *HuggingFaceProvider) Shape() Shape {
	return p.config.Shape
}

func (p *HuggingFaceProvider) parameters() map[string]any {
	if p.config.Shape == ShapeSummarization {
		return map[string]any{
			"max_length": 150,
			"min_length": 50,
			"do_sample":  true,
		}
	}
	return map[string]any{
		"max_new_tokens":   100,
		"temperature":      0.7,
		"return_full_text": false,
	}
}

// Call sends one inference request.
func (p *HuggingFaceProvider) Call(ctx context.Context, prompt string) (*Response, error) {
	reqJSON, err := json.Marshal(hfRequest{Inputs: prompt, Parameters: p.parameters()})
	if err != nil {
		return nil, p.fail(KindTransportError, 0, fmt.Errorf("error marshaling request: %w", err))
	}

	url := strings.TrimRight(p.config.BaseURL, "/") + "/" + p.config.Model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, p.fail(KindTransportError, 0, fmt.Errorf("error creating request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, p.classifyDoError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, p.fail(KindTimeout, resp.StatusCode, err)
		}
		return nil, p.fail(KindHTTPError, resp.StatusCode, fmt.Errorf("error reading response body: %w", err))
	}

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, p.coldStart(body)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, p.fail(KindHTTPError, resp.StatusCode, fmt.Errorf("unexpected status: %s", snippet(body)))
	}

	text, err := ExtractText(body, p.config.Shape)
	if err != nil {
		return nil, p.fail(KindHTTPError, resp.StatusCode, err)
	}

	return &Response{Text: text, Raw: body}, nil
}

func (p *HuggingFaceProvider) coldStart(body []byte) error {
	wait := DefaultColdStartWait
	var loading hfLoading
	if err := json.Unmarshal(body, &loading); err == nil && loading.EstimatedTime != nil && *loading.EstimatedTime > 0 {
		wait = time.Duration(*loading.EstimatedTime * float64(time.Second))
	}
	perr := p.fail(KindColdStart, http.StatusServiceUnavailable, errors.New("model is loading"))
	perr.RetryAfter = wait
	return perr
}

func (p *HuggingFaceProvider) classifyDoError(err error) error {
	if isTimeout(err) {
		return p.fail(KindTimeout, 0, err)
	}
	// Cancellation, connection refused and DNS failures never reached the model.
	return p.fail(KindTransportError, 0, err)
}

func (p *HuggingFaceProvider) fail(kind ErrorKind, status int, err error) *ProviderError {
	return &ProviderError{
		Kind:       kind,
		Backend:    p.config.Model,
		StatusCode: status,
		Err:        err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// ExtractText decodes an Inference API body, which is either a list of
// result objects or a single object, and returns the first non-empty text
// field in the order preferred for shape.
func ExtractText(body []byte, shape Shape) (string, error) {
	keys := []string{"generated_text", "summary_text", "text"}
	if shape == ShapeSummarization {
		keys = []string{"summary_text", "generated_text", "text"}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", errors.New("empty response body")
	}

	var objects []map[string]any
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &objects); err != nil {
			return "", fmt.Errorf("error unmarshaling response list: %w", err)
		}
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return "", fmt.Errorf("error unmarshaling response: %w", err)
		}
		if msg, ok := obj["error"].(string); ok && msg != "" {
			return "", fmt.Errorf("api error: %s", msg)
		}
		objects = []map[string]any{obj}
	default:
		return "", fmt.Errorf("unexpected response: %s", snippet(trimmed))
	}

	if len(objects) == 0 {
		return "", errors.New("empty result list")
	}

	first := objects[0]
	for _, key := range keys {
		if text, ok := first[key].(string); ok && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	return "", errors.New("no text field in response")
}
