package markdown

import "strings"

// Block is a generated region of a note, delimited by HTML comments named
// after the block. Text outside the markers belongs to the user.
type Block struct {
	Name string
}

func (b Block) startMarker() string { return "<!-- " + b.Name + ":start -->" }
func (b Block) endMarker() string   { return "<!-- " + b.Name + ":end -->" }

// Render wraps content in the block markers, without a trailing newline.
func (b Block) Render(content string) string {
	return b.startMarker() + "\n" + strings.TrimRight(content, "\n") + "\n" + b.endMarker()
}

// Extract returns the current content of the block in body.
func (b Block) Extract(body string) (string, bool) {
	start, end, ok := b.locate(body)
	if !ok {
		return "", false
	}
	inner := body[start+len(b.startMarker()) : end]
	return strings.Trim(inner, "\n"), true
}

// Replace swaps the block in body for content, or appends the block when
// body has none.
func (b Block) Replace(body, content string) string {
	rendered := b.Render(content)
	if start, end, ok := b.locate(body); ok {
		return body[:start] + rendered + body[end+len(b.endMarker()):]
	}
	switch {
	case strings.TrimSpace(body) == "":
		return rendered + "\n"
	case strings.HasSuffix(body, "\n"):
		return body + "\n" + rendered + "\n"
	default:
		return body + "\n\n" + rendered + "\n"
	}
}

func (b Block) locate(body string) (int, int, bool) {
	start := strings.Index(body, b.startMarker())
	if start < 0 {
		return 0, 0, false
	}
	end := strings.Index(body[start:], b.endMarker())
	if end < 0 {
		return 0, 0, false
	}
	return start, start + end, true
}
