// Package prompt 提供最小的提示词模板：{var} 占位符替换，不做任何
// 进一步的模板语法。
package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

var varPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Template is a prompt with {name} placeholders.
type Template struct {
	Name      string
	Text      string
	variables []string
}

// New parses text and records its placeholder names in order of first
// appearance.
func New(name, text string) *Template {
	t := &Template{Name: name, Text: text}
	seen := make(map[string]bool)
	for _, m := range varPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			t.variables = append(t.variables, m[1])
		}
	}
	return t
}

// Variables returns the placeholder names.
func (t *Template) Variables() []string {
	return append([]string(nil), t.variables...)
}

// Render substitutes every placeholder. A missing value is an error;
// extra values are ignored.
func (t *Template) Render(values map[string]string) (string, error) {
	for _, name := range t.variables {
		if _, ok := values[name]; !ok {
			return "", fmt.Errorf("prompt: template %q missing value for {%s}", t.Name, name)
		}
	}
	out := varPattern.ReplaceAllStringFunc(t.Text, func(m string) string {
		name := strings.Trim(m, "{}")
		return values[name]
	})
	return out, nil
}
