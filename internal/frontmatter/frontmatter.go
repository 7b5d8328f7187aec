// Package frontmatter parses and serializes the YAML metadata block
// delimited by "---" markers at the top of a document.
package frontmatter

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Split separates the front-matter block from the body. Content without a
// well-formed block (or with YAML that fails to parse) is returned unchanged
// with an empty map.
func Split(content string) (map[string]any, string) {
	lines := strings.Split(content, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != delimiter {
		return map[string]any{}, content
	}

	for i, line := range lines[1:] {
		if strings.TrimSpace(line) != delimiter {
			continue
		}
		raw := strings.Join(lines[1:i+1], "\n")
		body := strings.TrimPrefix(strings.Join(lines[i+2:], "\n"), "\n")

		meta := map[string]any{}
		if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
			return map[string]any{}, content
		}
		if meta == nil {
			meta = map[string]any{}
		}
		return meta, body
	}

	return map[string]any{}, content
}

// Parse decodes a raw YAML front-matter string (as stored on drafts).
func Parse(raw string) (map[string]any, error) {
	meta := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return meta, nil
	}
	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// Combine renders a complete document: front-matter block followed by body.
// An empty map yields the body unchanged.
func Combine(meta map[string]any, body string) (string, error) {
	if len(meta) == 0 {
		return body, nil
	}
	out, err := yaml.Marshal(meta)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(delimiter)
	b.WriteString("\n")
	b.Write(out)
	b.WriteString(delimiter)
	b.WriteString("\n\n")
	b.WriteString(body)
	return b.String(), nil
}
