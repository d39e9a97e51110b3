package summarizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinQualityWords is the word count a candidate must exceed.
const MinQualityWords = 5

var redundantPrefixes = []string{
	"This code", "The code", "Summary:", "This file", "The file", "This script", "The script",
}

// FormatFileSummary normalizes a backend answer for a single file.
func FormatFileSummary(text string) string {
	summary := strings.TrimSpace(text)
	for _, prefix := range redundantPrefixes {
		if len(summary) >= len(prefix) && strings.EqualFold(summary[:len(prefix)], prefix) {
			summary = strings.TrimSpace(summary[len(prefix):])
			break
		}
	}

	summary = strings.TrimSpace(strings.TrimLeft(summary, ":- "))
	if summary == "" {
		return ""
	}

	first, size := utf8.DecodeRuneInString(summary)
	if !unicode.IsUpper(first) {
		summary = string(unicode.ToUpper(first)) + summary[size:]
	}

	if !strings.HasSuffix(summary, ".") {
		summary += "."
	}
	return summary
}

// FormatRepositoryDescription flattens a backend answer and makes sure it
// starts with the repository name.
func FormatRepositoryDescription(text, repoName string) string {
	desc := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if !strings.HasSuffix(desc, ".") {
		desc += "."
	}
	if !strings.HasPrefix(strings.ToLower(desc), strings.ToLower(repoName)) {
		desc = repoName + " - " + desc
	}
	return desc
}

// StaticRepositoryDescription is returned when no backend produced a description.
func StaticRepositoryDescription(repoName string) string {
	return repoName + " - A professional project repository containing source code and documentation."
}

// PassesQualityGate reports whether text has more than MinQualityWords words.
func PassesQualityGate(text string) bool {
	return len(strings.Fields(text)) > MinQualityWords
}
