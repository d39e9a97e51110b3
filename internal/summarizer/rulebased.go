package summarizer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Complexity is the rough size class of a file.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

const (
	purposeScanLines = 15
	purposeMinLength = 20
	purposeMaxLength = 100
)

var (
	functionMarkers = []string{"def ", "function ", "func ", "fn "}
	typeMarkers     = []string{"class ", "interface ", "struct "}
	importPrefixes  = []string{"import ", "from ", "#include", "require(", "use "}
	commentPrefixes = []string{"# ", "// ", "/* ", "* ", `"""`, "'''"}
	ignoredPurposes = []string{"todo", "fixme", "hack"}
)

var languageByExtension = map[string]string{
	"py": "Python", "js": "JavaScript", "ts": "TypeScript",
	"jsx": "React JSX", "tsx": "React TSX", "java": "Java",
	"cpp": "C++", "c": "C", "cs": "C#", "php": "PHP",
	"rb": "Ruby", "go": "Go", "rs": "Rust", "swift": "Swift",
	"kt": "Kotlin", "html": "HTML", "css": "CSS",
	"scss": "SCSS", "sql": "SQL", "sh": "Shell Script",
	"yml": "YAML", "yaml": "YAML", "json": "JSON",
	"xml": "XML", "md": "Markdown",
}

var codeExtensions = []string{
	".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".cpp", ".c", ".h",
	".cs", ".php", ".rb", ".go", ".rs", ".swift", ".kt", ".scala",
	".html", ".css", ".scss", ".less", ".sql", ".sh", ".bash",
	".yml", ".yaml", ".json", ".xml", ".md", ".dockerfile",
}

// LanguageFor returns the display name for filename's extension, or "Code".
func LanguageFor(filename string) string {
	lower := strings.ToLower(filename)
	i := strings.LastIndex(lower, ".")
	if i < 0 {
		return "Code"
	}
	if lang, ok := languageByExtension[lower[i+1:]]; ok {
		return lang
	}
	return "Code"
}

// IsCodeFile reports whether filename has an extension worth summarizing.
func IsCodeFile(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range codeExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Structure is the lexical analysis behind a rule-based summary.
type Structure struct {
	Lines      int
	Functions  int
	Types      int
	Imports    int
	Purpose    string
	Complexity Complexity
}

// Analyze scans content line by line.
func Analyze(content string) Structure {
	lines := splitLines(content)
	s := Structure{Lines: len(lines), Complexity: ComplexityLow}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if containsAny(trimmed, functionMarkers) {
			s.Functions++
		}
		if containsAny(trimmed, typeMarkers) {
			s.Types++
		}
		if hasAnyPrefix(trimmed, importPrefixes) {
			s.Imports++
		}
	}

	scan := lines
	if len(scan) > purposeScanLines {
		scan = scan[:purposeScanLines]
	}
	for _, line := range scan {
		if purpose, ok := purposeHint(strings.TrimSpace(line)); ok {
			s.Purpose = purpose
			break
		}
	}

	switch total := s.Functions + s.Types; {
	case total > 10:
		s.Complexity = ComplexityHigh
	case total > 3:
		s.Complexity = ComplexityMedium
	}

	return s
}

func purposeHint(line string) (string, bool) {
	if !hasAnyPrefix(line, commentPrefixes) {
		return "", false
	}

	comment := line
	for _, p := range commentPrefixes {
		comment = strings.TrimSpace(strings.ReplaceAll(comment, p, ""))
	}

	runes := []rune(comment)
	if len(runes) <= purposeMinLength {
		return "", false
	}
	lower := strings.ToLower(comment)
	for _, ignored := range ignoredPurposes {
		if strings.HasPrefix(lower, ignored) {
			return "", false
		}
	}

	if len(runes) > purposeMaxLength {
		return string(runes[:purposeMaxLength]) + "...", true
	}
	return comment, true
}

// RuleBasedSummary returns the deterministic summary of content.
func RuleBasedSummary(filename, content string) string {
	s := Analyze(content)

	parts := []string{fmt.Sprintf("This %s file contains %d lines of code", LanguageFor(filename), s.Lines)}
	if s.Functions > 0 {
		parts = append(parts, fmt.Sprintf("%d function(s)", s.Functions))
	}
	if s.Types > 0 {
		parts = append(parts, fmt.Sprintf("%d class(es)", s.Types))
	}
	if s.Imports > 0 {
		parts = append(parts, fmt.Sprintf("%d import(s)", s.Imports))
	}
	if s.Purpose != "" {
		parts = append(parts, "Purpose: "+s.Purpose)
	}
	switch s.Complexity {
	case ComplexityHigh:
		parts = append(parts, "appears to be complex with multiple components")
	case ComplexityMedium:
		parts = append(parts, "has moderate complexity")
	}

	return strings.Join(parts, ". ") + "."
}

// RuleBasedSummarizer summarizes offline. It never makes network calls.
type RuleBasedSummarizer struct{}

// NewRuleBasedSummarizer creates a RuleBasedSummarizer.
func NewRuleBasedSummarizer() *RuleBasedSummarizer {
	return &RuleBasedSummarizer{}
}

// Summarize implements Summarizer.
func (RuleBasedSummarizer) Summarize(_ context.Context, req Request) Result {
	return Result{
		Text:  RuleBasedSummary(req.Filename, req.Content),
		Usage: UsageRecord{Method: MethodRuleBased},
	}
}

// splitLines splits on every line boundary and does not produce a trailing
// empty line for content ending in a newline.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch r {
		case '\r':
			lines = append(lines, s[start:i])
			if i+1 < len(s) && s[i+1] == '\n' {
				size = 2
			}
			start = i + size
		case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			lines = append(lines, s[start:i])
			start = i + size
		}
		i += size
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
