package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func newTestHF(baseURL string, shape Shape) *HuggingFaceProvider {
	return NewHuggingFaceProvider(HuggingFaceConfig{
		APIKey:  "hf_test",
		Model:   "facebook/bart-large-cnn",
		Shape:   shape,
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
	})
}

func TestHuggingFaceSummarizationRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"summary_text":"A Python library for parsing configuration files."}]`))
	}))
	defer srv.Close()

	resp, err := newTestHF(srv.URL, ShapeSummarization).Call(context.Background(), "describe me")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.Text != "A Python library for parsing configuration files." {
		t.Errorf("Call() text = %q", resp.Text)
	}
	if gotPath != "/facebook/bart-large-cnn" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotAuth != "Bearer hf_test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["inputs"] != "describe me" {
		t.Errorf("inputs = %v", gotBody["inputs"])
	}
	params, _ := gotBody["parameters"].(map[string]any)
	if params["max_length"] != float64(150) || params["min_length"] != float64(50) || params["do_sample"] != true {
		t.Errorf("summarization parameters = %v", params)
	}
}

func TestHuggingFaceTextGenerationParameters(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"generated_text":"Generated words go here."}`))
	}))
	defer srv.Close()

	resp, err := newTestHF(srv.URL, ShapeTextGeneration).Call(context.Background(), "p")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.Text != "Generated words go here." {
		t.Errorf("Call() text = %q", resp.Text)
	}
	params, _ := gotBody["parameters"].(map[string]any)
	if params["max_new_tokens"] != float64(100) || params["temperature"] != 0.7 || params["return_full_text"] != false {
		t.Errorf("text-generation parameters = %v", params)
	}
}

func TestHuggingFaceColdStart(t *testing.T) {
	tests := []struct {
		name     string
		body     interface{}
		wantWait time.Duration
	}{
		{"with estimate", map[string]any{"error": "Model is loading", "estimated_time": 12.5}, 12500 * time.Millisecond},
		{"without estimate", map[string]any{"error": "Model is loading"}, DefaultColdStartWait},
		{"non json body", "Service Unavailable", DefaultColdStartWait},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := MockServer(t, MockResponseConfig{StatusCode: http.StatusServiceUnavailable, ResponseBody: tt.body})

			_, err := newTestHF(srv.URL, ShapeSummarization).Call(context.Background(), "p")
			perr, ok := AsProviderError(err)
			if !ok {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if perr.Kind != KindColdStart {
				t.Errorf("Kind = %v, want %v", perr.Kind, KindColdStart)
			}
			if perr.RetryAfter != tt.wantWait {
				t.Errorf("RetryAfter = %v, want %v", perr.RetryAfter, tt.wantWait)
			}
			if !perr.ReachedNetwork() {
				t.Error("cold start must count as a network call")
			}
		})
	}
}

func TestHuggingFaceErrorKinds(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		srv, _ := MockServer(t, MockResponseConfig{StatusCode: http.StatusUnauthorized, ResponseBody: `{"error":"bad token"}`})
		_, err := newTestHF(srv.URL, ShapeTextGeneration).Call(context.Background(), "p")
		perr, ok := AsProviderError(err)
		if !ok || perr.Kind != KindHTTPError || perr.StatusCode != http.StatusUnauthorized {
			t.Fatalf("got %v, want HTTPError 401", err)
		}
	})

	t.Run("undecodable body", func(t *testing.T) {
		srv, _ := MockServer(t, MockResponseConfig{StatusCode: http.StatusOK, ResponseBody: `[]`})
		_, err := newTestHF(srv.URL, ShapeTextGeneration).Call(context.Background(), "p")
		perr, ok := AsProviderError(err)
		if !ok || perr.Kind != KindHTTPError {
			t.Fatalf("got %v, want HTTPError", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		p := NewHuggingFaceProvider(HuggingFaceConfig{APIKey: "k", Model: "m", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
		_, err := p.Call(context.Background(), "p")
		perr, ok := AsProviderError(err)
		if !ok || perr.Kind != KindTimeout {
			t.Fatalf("got %v, want Timeout", err)
		}
		if !perr.ReachedNetwork() {
			t.Error("timeout must count as a network call")
		}
	})

	t.Run("transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := newTestHF(url, ShapeTextGeneration).Call(context.Background(), "p")
		perr, ok := AsProviderError(err)
		if !ok || perr.Kind != KindTransportError {
			t.Fatalf("got %v, want TransportError", err)
		}
		if perr.ReachedNetwork() {
			t.Error("transport errors must not count as network calls")
		}
	})
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		shape   Shape
		want    string
		wantErr bool
	}{
		{"list summary", `[{"summary_text":"s"}]`, ShapeSummarization, "s", false},
		{"list generated", `[{"generated_text":"g"}]`, ShapeTextGeneration, "g", false},
		{"object generated", `{"generated_text":"g"}`, ShapeTextGeneration, "g", false},
		{"summarization prefers summary_text", `[{"generated_text":"g","summary_text":"s"}]`, ShapeSummarization, "s", false},
		{"generation prefers generated_text", `[{"generated_text":"g","summary_text":"s"}]`, ShapeTextGeneration, "g", false},
		{"text key", `{"text":"t"}`, ShapeSummarization, "t", false},
		{"blank values skipped", `[{"summary_text":"  ","text":"t"}]`, ShapeSummarization, "t", false},
		{"error object", `{"error":"boom"}`, ShapeSummarization, "", true},
		{"empty list", `[]`, ShapeSummarization, "", true},
		{"no text", `[{"score":1}]`, ShapeSummarization, "", true},
		{"scalar", `"hello"`, ShapeSummarization, "", true},
		{"empty", ``, ShapeSummarization, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText([]byte(tt.body), tt.shape)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Kind: KindHTTPError, Backend: "gpt2", StatusCode: 500, Err: errors.New("boom")}
	if !strings.Contains(err.Error(), "gpt2") || !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, err.Err) {
		t.Error("Unwrap should expose the underlying error")
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 1},
		{"abc", 1},
		{"abcd", 1},
		{"abcdefgh", 2},
		{strings.Repeat("x", 401), 100},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.in); got != tt.want {
			t.Errorf("EstimateTokens(len %d) = %d, want %d", len(tt.in), got, tt.want)
		}
	}
}
