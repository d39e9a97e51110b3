package providers

import (
	"fmt"
	"strings"
)

// BackendSpec names one backend in a chain.
type BackendSpec struct {
	Provider string
	Model    string
	Shape    Shape
}

// String renders the spec in the form accepted by ParseChain.
func (b BackendSpec) String() string {
	if b.Provider == ProviderGemini {
		return ProviderGemini + ":" + b.Model
	}
	return b.Model + ":" + string(b.Shape)
}

// ModelChain is the ordered list of backends to try.
type ModelChain []BackendSpec

// String renders the chain in the form accepted by ParseChain.
func (c ModelChain) String() string {
	parts := make([]string, len(c))
	for i, b := range c {
		parts[i] = b.String()
	}
	return strings.Join(parts, ",")
}

// DefaultChain returns the Hugging Face models tried when no chain is configured.
func DefaultChain() ModelChain {
	return ModelChain{
		{Provider: ProviderHuggingFace, Model: "facebook/bart-large-cnn", Shape: ShapeSummarization},
		{Provider: ProviderHuggingFace, Model: "google/flan-t5-large", Shape: ShapeTextGeneration},
		{Provider: ProviderHuggingFace, Model: "gpt2", Shape: ShapeTextGeneration},
	}
}

// ParseChain parses "model:shape,model:shape". A missing shape means
// text-generation. Entries "gemini" and "gemini:<model>" select the Gemini
// backend. An empty string yields DefaultChain.
func ParseChain(s string) (ModelChain, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultChain(), nil
	}

	var chain ModelChain
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, rest, hasRest := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		rest = strings.TrimSpace(rest)

		if strings.EqualFold(name, ProviderGemini) {
			model := rest
			if model == "" {
				model = DefaultGeminiModel
			}
			chain = append(chain, BackendSpec{Provider: ProviderGemini, Model: model})
			continue
		}

		if name == "" {
			return nil, fmt.Errorf("invalid chain entry %q: missing model", entry)
		}

		shape := ShapeTextGeneration
		if hasRest {
			switch Shape(strings.ToLower(rest)) {
			case ShapeSummarization:
				shape = ShapeSummarization
			case ShapeTextGeneration:
				shape = ShapeTextGeneration
			default:
				return nil, fmt.Errorf("invalid chain entry %q: unknown shape %q", entry, rest)
			}
		}
		chain = append(chain, BackendSpec{Provider: ProviderHuggingFace, Model: name, Shape: shape})
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("chain %q has no entries", s)
	}
	return chain, nil
}
