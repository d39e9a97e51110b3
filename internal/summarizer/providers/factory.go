package providers

import (
	"fmt"
	"log/slog"
	"time"
)

// FactoryConfig holds credentials and transport settings for every backend kind.
type FactoryConfig struct {
	HuggingFaceAPIKey  string
	HuggingFaceBaseURL string
	GeminiAPIKey       string
	GeminiBaseURL      string
	Timeout            time.Duration
}

// Factory creates providers for a ModelChain.
type Factory struct {
	config FactoryConfig
	logger *slog.Logger
}

// NewFactory creates a new provider factory
func NewFactory(config FactoryConfig, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{config: config, logger: logger}
}

// GetProvider returns a provider for one backend, or an error when its
// credential is missing or the provider kind is unknown.
func (f *Factory) GetProvider(spec BackendSpec) (Provider, error) {
	switch spec.Provider {
	case ProviderHuggingFace, "":
		if f.config.HuggingFaceAPIKey == "" {
			return nil, fmt.Errorf("%w: huggingface api key not provided", ErrMissingCredential)
		}
		return NewHuggingFaceProvider(HuggingFaceConfig{
			APIKey:  f.config.HuggingFaceAPIKey,
			Model:   spec.Model,
			Shape:   spec.Shape,
			BaseURL: f.config.HuggingFaceBaseURL,
			Timeout: f.config.Timeout,
		}), nil
	case ProviderGemini:
		if f.config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: gemini api key not provided", ErrMissingCredential)
		}
		return NewGeminiProvider(GeminiConfig{
			APIKey:  f.config.GeminiAPIKey,
			Model:   spec.Model,
			Timeout: f.config.Timeout,
			BaseURL: f.config.GeminiBaseURL,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", spec.Provider)
	}
}

// Build returns the providers for chain in order, skipping backends that
// cannot be created. With no credentials at all the result is empty and
// callers fall back to rule-based summaries.
func (f *Factory) Build(chain ModelChain) []Provider {
	out := make([]Provider, 0, len(chain))
	for _, spec := range chain {
		p, err := f.GetProvider(spec)
		if err != nil {
			f.logger.Debug("skipping backend", "backend", spec.String(), "error", err)
			continue
		}
		out = append(out, p)
	}
	return out
}
