package summarizer

import (
	"strings"
	"testing"
)

func TestRuleBasedSummary(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		want     string
	}{
		{
			name:     "single function",
			filename: "hello.py",
			content:  "def hello():\n    print('hi')\n",
			want:     "This Python file contains 2 lines of code. 1 function(s).",
		},
		{
			name:     "empty file",
			filename: "empty.go",
			content:  "",
			want:     "This Go file contains 0 lines of code.",
		},
		{
			name:     "unknown extension",
			filename: "Makefile",
			content:  "all:\n\tgo build\n",
			want:     "This Code file contains 2 lines of code.",
		},
		{
			name:     "imports and purpose",
			filename: "server.js",
			content: "// Express server that serves the dashboard API\n" +
				"const express = require('express')\n" +
				"import path from 'path'\n" +
				"function start() {}\n",
			want: "This JavaScript file contains 4 lines of code. 1 function(s). 1 import(s). " +
				"Purpose: Express server that serves the dashboard API.",
		},
		{
			name:     "moderate complexity",
			filename: "shapes.ts",
			content: "interface Shape {}\nclass Circle {}\nclass Square {}\n" +
				"function area() {}\n",
			want: "This TypeScript file contains 4 lines of code. 1 function(s). 3 class(es). has moderate complexity.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RuleBasedSummary(tt.filename, tt.content); got != tt.want {
				t.Errorf("RuleBasedSummary() =\n  %q\nwant\n  %q", got, tt.want)
			}
		})
	}
}

func TestRuleBasedSummaryHighComplexity(t *testing.T) {
	content := strings.Repeat("func f() {}\n", 11)
	got := RuleBasedSummary("big.go", content)
	want := "This Go file contains 11 lines of code. 11 function(s). appears to be complex with multiple components."
	if got != want {
		t.Errorf("RuleBasedSummary() = %q, want %q", got, want)
	}
}

func TestRuleBasedSummaryDeterministic(t *testing.T) {
	content := "package main\n\nimport \"fmt\"\n\n// main prints a greeting to standard output\nfunc main() { fmt.Println(\"hi\") }\n"
	first := RuleBasedSummary("main.go", content)
	for i := 0; i < 10; i++ {
		if got := RuleBasedSummary("main.go", content); got != first {
			t.Fatalf("RuleBasedSummary() not deterministic: %q vs %q", got, first)
		}
	}
}

func TestAnalyzePurpose(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"hash comment", "# Loads repository metadata from the API\n", "Loads repository metadata from the API"},
		{"too short", "# short comment\n", ""},
		{"todo ignored", "# TODO: refactor this module into smaller parts\n# Parses the configuration file format\n", "Parses the configuration file format"},
		{"docstring", `"""Calculate the nth Fibonacci number recursively."""` + "\n", "Calculate the nth Fibonacci number recursively."},
		{"block comment", "/* Renders the markdown report for analysis */\n", "Renders the markdown report for analysis */"},
		{"long comment truncated", "// " + strings.Repeat("a", 120) + "\n", strings.Repeat("a", 100) + "..."},
		{"only first fifteen lines", strings.Repeat("x = 1\n", 15) + "# A comment that is long enough to count\n", ""},
		{"not a comment", "#!/usr/bin/env python describes the interpreter\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Analyze(tt.content).Purpose; got != tt.want {
				t.Errorf("Purpose = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyzeCounts(t *testing.T) {
	content := strings.Join([]string{
		"#include <stdio.h>",
		"use std::io;",
		"from os import path",
		"struct Point { int x; };",
		"fn main() {}",
		"    def method(self):",
	}, "\n")

	s := Analyze(content)
	if s.Imports != 3 {
		t.Errorf("Imports = %d, want 3", s.Imports)
	}
	if s.Types != 1 {
		t.Errorf("Types = %d, want 1", s.Types)
	}
	if s.Functions != 2 {
		t.Errorf("Functions = %d, want 2", s.Functions)
	}
	if s.Lines != 6 {
		t.Errorf("Lines = %d, want 6", s.Lines)
	}
	if s.Complexity != ComplexityLow {
		t.Errorf("Complexity = %s, want low", s.Complexity)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\n\n", 2},
		{"a\r\nb", 2},
		{"a\rb\r", 2},
		{"a\u2028b", 2},
	}
	for _, tt := range tests {
		if got := len(splitLines(tt.in)); got != tt.want {
			t.Errorf("splitLines(%q) = %d lines, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLanguageFor(t *testing.T) {
	tests := map[string]string{
		"main.go":        "Go",
		"App.TSX":        "React TSX",
		"script.sh":      "Shell Script",
		"config.yml":     "YAML",
		"lib.rs":         "Rust",
		"Dockerfile":     "Code",
		"archive.tar.gz": "Code",
		"header.h":       "Code",
	}
	for name, want := range tests {
		if got := LanguageFor(name); got != want {
			t.Errorf("LanguageFor(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestIsCodeFile(t *testing.T) {
	tests := map[string]bool{
		"main.go":          true,
		"README.md":        true,
		"styles.LESS":      true,
		"build.dockerfile": true,
		"header.h":         true,
		"image.png":        false,
		"LICENSE":          false,
		"go.sum":           false,
	}
	for name, want := range tests {
		if got := IsCodeFile(name); got != want {
			t.Errorf("IsCodeFile(%q) = %v, want %v", name, got, want)
		}
	}
}
