package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	separator = "---\n"
	closing   = "\n---\n"
)

// SplitFrontmatter decodes the leading YAML block of content into meta and
// returns the remaining body. Content without frontmatter leaves meta
// untouched. CRLF line endings are normalized first.
func SplitFrontmatter(content string, meta any) (string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, separator) {
		return content, nil
	}
	rest := content[len(separator):]
	var raw, body string
	if strings.HasPrefix(rest, separator) {
		body = rest[len(separator):]
	} else {
		idx := strings.Index(rest, closing)
		if idx < 0 {
			return "", fmt.Errorf("invalid frontmatter: missing closing separator")
		}
		raw, body = rest[:idx], rest[idx+len(closing):]
	}
	if strings.TrimSpace(raw) == "" {
		return body, nil
	}
	if err := yaml.Unmarshal([]byte(raw), meta); err != nil {
		return "", fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	return body, nil
}

// RenderFrontmatter encodes meta as YAML in front of body. Struct field order
// is kept, so callers pass tagged structs rather than maps.
func RenderFrontmatter(meta any, body string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(separator)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	buf.WriteString(separator)
	if !strings.HasPrefix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString(body)
	return buf.String(), nil
}
