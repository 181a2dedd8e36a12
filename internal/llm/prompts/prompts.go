// Package prompts renders the report summarisation prompt from embedded
// templates.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/yja/firesim/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

// MaxFieldRunes caps each report field sent to the model.
const MaxFieldRunes = 4000

var tagRegex = regexp.MustCompile(`(?i)</?\s*(report-field|system-instructions)\b[^>]*>`)

// System is the system instruction shared by every provider.
const System = "You analyse incident reports and answer with a single JSON object."

// Set holds the parsed templates, one per language.
type Set struct {
	byLang map[string]*template.Template
}

// Load parses templates/report_<lang>.txt from fsys.
func Load(fsys fs.FS) (*Set, error) {
	files, err := fs.Glob(fsys, "templates/report_*.txt")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no report templates found")
	}
	s := &Set{byLang: make(map[string]*template.Template)}
	for _, f := range files {
		content, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("read prompt file %s: %w", f, err)
		}
		tmpl, err := template.New(f).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse prompt template %s: %w", f, err)
		}
		lang := strings.TrimSuffix(strings.TrimPrefix(f, "templates/report_"), ".txt")
		s.byLang[lang] = tmpl
	}
	return s, nil
}

// Default returns the embedded templates.
func Default() (*Set, error) {
	return Load(templateFS)
}

// BuildReportPrompt renders the prompt for lang, falling back to Korean.
func (s *Set) BuildReportPrompt(lang string, in model.ReportInput) (string, error) {
	tmpl, ok := s.byLang[lang]
	if !ok {
		tmpl, ok = s.byLang["ko"]
	}
	if !ok {
		return "", fmt.Errorf("no prompt template for %q", lang)
	}

	data := model.ReportInput{
		Title:      Sanitize(in.Title),
		Members:    Sanitize(in.Members),
		Situation:  Sanitize(in.Situation),
		Definition: Sanitize(in.Definition),
		Cause:      Sanitize(in.Cause),
		Solution:   Sanitize(in.Solution),
		Prevention: Sanitize(in.Prevention),
		Schedule:   Sanitize(in.Schedule),
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Sanitize strips delimiter tags a learner could use to break out of a
// field, and truncates long input.
func Sanitize(s string) string {
	s = tagRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	if utf8.RuneCountInString(s) > MaxFieldRunes {
		runes := []rune(s)
		s = string(runes[:MaxFieldRunes]) + " [truncated]"
	}
	return s
}
