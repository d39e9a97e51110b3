// Package report renders analysis reports.
package report

import (
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/localrivet/reporeader/internal/analyzer"
)

const timeLayout = "2006-01-02 15:04:05"

const markdownTemplate = `# Repository Analysis Report

**Repository:** {{ repoName . }}
**Analysis Date:** {{ date .GeneratedAt }}
**Description:** {{ or .Description "No description available" }}

## Repository Overview

{{ with .RepoInfo -}}
- **Language:** {{ .Language }}
- **Stars:** {{ .Stars }}
- **Forks:** {{ .Forks }}
- **Size:** {{ .Size }} KB
- **License:** {{ .License }}

{{ end -}}
## File Analysis

{{ range .FileAnalysis -}}
### {{ .File }}
{{ oneLine .Summary }}

{{ end -}}
## Recent Commits

{{ range .Commits -}}
- **{{ .SHA }}** - {{ .Message }} by {{ .Author }}
{{ end }}
## Contributors

{{ range .Contributors -}}
- **{{ .Login }}** - {{ .Contributions }} contributions
{{ end }}
---
*Report generated on {{ stamp }}*
`

var funcs = template.FuncMap{
	"repoName": func(r *analyzer.Report) string {
		if r.RepoInfo == nil || r.RepoInfo.FullName == "" {
			return "Unknown"
		}
		return r.RepoInfo.FullName
	},
	"date": func(t time.Time) string {
		return t.Format(timeLayout)
	},
	"oneLine": func(s string) string {
		return strings.Join(strings.Fields(s), " ")
	},
}

// Renderer writes reports as Markdown.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer creates a Renderer. now stamps the footer; nil means time.Now.
func NewRenderer(now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	f := template.FuncMap{
		"stamp": func() string { return now().Format(timeLayout) },
	}
	for k, v := range funcs {
		f[k] = v
	}
	return &Renderer{
		tmpl: template.Must(template.New("report").Funcs(f).Parse(markdownTemplate)),
	}
}

// Render writes r to w.
func (m *Renderer) Render(w io.Writer, r *analyzer.Report) error {
	return m.tmpl.Execute(w, r)
}

// RenderMarkdown writes r to w with the current time in the footer.
func RenderMarkdown(w io.Writer, r *analyzer.Report) error {
	return NewRenderer(nil).Render(w, r)
}
