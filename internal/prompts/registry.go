// Package prompts loads the embedded prompt templates used by the proof
// pipeline and renders them.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

const (
	DecomposeSystem = "decompose_system"
	DecomposeUser   = "decompose_user"
	Prove           = "prove"
	Judge           = "judge"
)

// Registry holds parsed prompt templates by name.
type Registry struct {
	templates map[string]*template.Template
}

// DecomposeData feeds the decomposition prompts.
type DecomposeData struct {
	Theorem   string
	FanOutCap int
}

// ProveData feeds the prove prompt.
type ProveData struct {
	Step        string
	Assumptions []string
}

// JudgeData feeds the judge prompt.
type JudgeData struct {
	Step        string
	Assumptions []string
	Output      string
}

// NewRegistry parses the embedded prompt file.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/proof.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts: %w", err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	r := &Registry{templates: make(map[string]*template.Template, len(raw))}
	for _, name := range []string{DecomposeSystem, DecomposeUser, Prove, Judge} {
		text, ok := raw[name]
		if !ok {
			return nil, fmt.Errorf("prompt %q missing", name)
		}
		tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt %q: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// Render executes the named template with data.
func (r *Registry) Render(name string, data any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

var funcs = template.FuncMap{
	"pylist": pyList,
}

// pyList renders strings as a bracketed, quoted list: ['a', 'b']. Quoting
// and escaping follow Python's repr so steps such as "\frac{1}{2}" reach the
// models as \\frac{1}{2}.
func pyList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = pyRepr(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func pyRepr(s string) string {
	quote := byte('\'')
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		quote = '"'
	}

	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}
