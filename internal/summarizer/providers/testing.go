package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

// MockResponseConfig holds configuration for mock API responses
type MockResponseConfig struct {
	StatusCode   int
	ResponseBody interface{}
	Headers      map[string]string
}

// MockServer creates a test server that answers each request with the next
// configured response. The last response repeats once the list is used up.
// The returned counter reports how many requests were served.
func MockServer(t *testing.T, responses ...MockResponseConfig) (*httptest.Server, func() int) {
	t.Helper()

	var (
		mu    sync.Mutex
		count int
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		idx := count
		count++
		mu.Unlock()

		if len(responses) == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if idx >= len(responses) {
			idx = len(responses) - 1
		}
		config := responses[idx]

		for k, v := range config.Headers {
			w.Header().Set(k, v)
		}
		if _, exists := config.Headers["Content-Type"]; !exists {
			w.Header().Set("Content-Type", "application/json")
		}

		w.WriteHeader(config.StatusCode)

		if config.ResponseBody != nil {
			var respBytes []byte
			var err error

			switch body := config.ResponseBody.(type) {
			case string:
				respBytes = []byte(body)
			case []byte:
				respBytes = body
			default:
				respBytes, err = json.Marshal(body)
				if err != nil {
					t.Errorf("Failed to marshal mock response: %v", err)
					return
				}
			}

			if _, err := w.Write(respBytes); err != nil {
				t.Errorf("Failed to write response body: %v", err)
			}
		}
	}))
	t.Cleanup(srv.Close)

	return srv, func() int {
		mu.Lock()
		defer mu.Unlock()
		return count
	}
}

// Step is one scripted outcome of a ScriptedProvider call.
type Step struct {
	Text string
	Err  error
}

// ScriptedProvider returns its steps in order and repeats the last one.
// It records every prompt it receives.
type ScriptedProvider struct {
	name  string
	steps []Step

	mu      sync.Mutex
	prompts []string
}

// NewScriptedProvider creates a ScriptedProvider
func NewScriptedProvider(name string, steps ...Step) *ScriptedProvider {
	return &ScriptedProvider{name: name, steps: steps}
}

// NewTestProvider creates a provider that always returns the same outcome
func NewTestProvider(name, text string, err error) *ScriptedProvider {
	return NewScriptedProvider(name, Step{Text: text, Err: err})
}

// Name returns the provider name
func (p *ScriptedProvider) Name() string {
	return p.name
}

// Call returns the next scripted outcome
func (p *ScriptedProvider) Call(_ context.Context, prompt string) (*Response, error) {
	p.mu.Lock()
	idx := len(p.prompts)
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()

	if len(p.steps) == 0 {
		return &Response{}, nil
	}
	if idx >= len(p.steps) {
		idx = len(p.steps) - 1
	}
	step := p.steps[idx]
	if step.Err != nil {
		return nil, step.Err
	}
	return &Response{Text: step.Text}, nil
}

// Calls returns how many times Call was invoked
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

// Prompts returns the prompts passed to Call
func (p *ScriptedProvider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.prompts))
	copy(out, p.prompts)
	return out
}

// Failure builds a ProviderError of kind for backend.
func Failure(backend string, kind ErrorKind, status int) *ProviderError {
	return &ProviderError{Kind: kind, Backend: backend, StatusCode: status}
}
