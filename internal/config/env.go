package config

import (
	"os"
	"strings"
)

// Unprefixed variables honoured for compatibility with common .env files.
const (
	EnvHuggingFaceAPIKey = "HUGGINGFACE_API_KEY"
	EnvGeminiAPIKey      = "GEMINI_API_KEY"
	EnvGitHubToken       = "GITHUB_TOKEN"
)

// applyWellKnownEnv fills credentials that are still unset from the
// unprefixed variables. Prefixed variables always win.
func (c *Config) applyWellKnownEnv() {
	if !HasCredential(c.Summarizer.HuggingFaceAPIKey) {
		c.Summarizer.HuggingFaceAPIKey = getCredential(EnvHuggingFaceAPIKey)
	}
	if !HasCredential(c.Summarizer.GeminiAPIKey) {
		c.Summarizer.GeminiAPIKey = getCredential(EnvGeminiAPIKey)
	}
	if !HasCredential(c.GitHub.Token) {
		c.GitHub.Token = getCredential(EnvGitHubToken)
	}
}

func getCredential(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if !HasCredential(v) {
		return ""
	}
	return v
}

// HasCredential reports whether v looks like a real secret rather than
// an empty value or a template placeholder such as "your_github_token_here".
func HasCredential(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "your_") && strings.HasSuffix(lower, "_here") {
		return false
	}
	switch lower {
	case "changeme", "placeholder", "xxx":
		return false
	}
	return true
}
