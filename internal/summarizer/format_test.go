package summarizer

import (
	"strings"
	"testing"
)

func TestFormatFileSummary(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"This code parses arguments", "Parses arguments."},
		{"the FILE: - defines routes.", "Defines routes."},
		{"Summary: handles retries", "Handles retries."},
		{"  implements a cache  ", "Implements a cache."},
		{"This script", ""},
		{"", ""},
		{"émits events", "Émits events."},
		{"Already fine.", "Already fine."},
	}
	for _, tt := range tests {
		if got := FormatFileSummary(tt.in); got != tt.want {
			t.Errorf("FormatFileSummary(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatRepositoryDescription(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"A CLI for\nrepos", "tool - A CLI for repos."},
		{"Tool is a CLI.", "Tool is a CLI."},
		{"  ", "tool - ."},
	}
	for _, tt := range tests {
		if got := FormatRepositoryDescription(tt.text, "tool"); got != tt.want {
			t.Errorf("FormatRepositoryDescription(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestPassesQualityGate(t *testing.T) {
	tests := map[string]bool{
		"":                            false,
		"one two three four five":     false,
		"one two three four five six": true,
		"A b c d e f g.":              true,
	}
	for text, want := range tests {
		if got := PassesQualityGate(text); got != want {
			t.Errorf("PassesQualityGate(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestPreparer(t *testing.T) {
	t.Run("repository strips markers", func(t *testing.T) {
		got := RepositoryPreparer.Prepare("  # Title\n```go\ncode\n```  ")
		if got != "Title\ngo\ncode" {
			t.Errorf("Prepare() = %q", got)
		}
	})

	t.Run("file keeps hash", func(t *testing.T) {
		got := FilePreparer.Prepare("# comment\nx = 1")
		if got != "# comment\nx = 1" {
			t.Errorf("Prepare() = %q", got)
		}
	})

	t.Run("truncates by characters", func(t *testing.T) {
		p := Preparer{MaxLength: 3, Marker: DefaultTruncationMarker}
		got := p.Prepare("héllo")
		if got != "hél"+DefaultTruncationMarker {
			t.Errorf("Prepare() = %q", got)
		}
	})

	t.Run("no marker when within limit", func(t *testing.T) {
		raw := strings.Repeat("a", 1500)
		if got := RepositoryPreparer.Prepare(raw); got != raw {
			t.Errorf("Prepare() changed content of exactly max length")
		}
	})

	t.Run("input untouched", func(t *testing.T) {
		raw := "```x```"
		_ = RepositoryPreparer.Prepare(raw)
		if raw != "```x```" {
			t.Error("Prepare() mutated input")
		}
	})
}

func TestBuildPrompts(t *testing.T) {
	repo := BuildRepositoryPrompt("octo/tool", "content here")
	if !strings.HasPrefix(repo, "Create a professional 2-sentence description for GitHub repository 'octo/tool'.") {
		t.Errorf("unexpected repository prompt: %q", repo)
	}
	if !strings.HasSuffix(repo, "Repository content:\ncontent here") {
		t.Errorf("repository prompt should end with content: %q", repo)
	}

	file := BuildFilePrompt("lib.rs", "fn main() {}")
	if !strings.HasPrefix(file, "Analyze this Rust code") {
		t.Errorf("unexpected file prompt: %q", file)
	}
	if !strings.Contains(file, "File: lib.rs\nCode:\nfn main() {}") {
		t.Errorf("file prompt should embed the code: %q", file)
	}
	if BuildFilePrompt("lib.rs", "x") != BuildFilePrompt("lib.rs", "x") {
		t.Error("prompt builder must be deterministic")
	}
}
