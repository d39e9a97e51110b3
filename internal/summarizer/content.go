package summarizer

import "strings"

// DefaultTruncationMarker is appended to content cut at MaxLength.
const DefaultTruncationMarker = "\n... (truncated)"

// Preparer bounds and sanitizes raw content before it is embedded in a prompt.
type Preparer struct {
	// MaxLength is the limit in characters; zero disables truncation
	MaxLength int
	// StripMarkers also removes '#' comment markers
	StripMarkers bool
	// Marker is appended when content is cut
	Marker string
}

// RepositoryPreparer prepares README text for repository descriptions.
var RepositoryPreparer = Preparer{MaxLength: 1500, StripMarkers: true, Marker: DefaultTruncationMarker}

// FilePreparer prepares source files for per-file summaries.
var FilePreparer = Preparer{MaxLength: 8000, Marker: DefaultTruncationMarker}

// Prepare returns the bounded text. It never fails.
func (p Preparer) Prepare(raw string) string {
	text := strings.ReplaceAll(raw, "```", "")
	if p.StripMarkers {
		text = strings.ReplaceAll(text, "#", "")
	}
	text = strings.TrimSpace(text)

	if p.MaxLength <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= p.MaxLength {
		return text
	}
	return string(runes[:p.MaxLength]) + p.Marker
}
