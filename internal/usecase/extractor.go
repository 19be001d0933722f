package usecase

import "strings"

const (
	jsonFence    = "```json"
	genericFence = "```"
)

// ExtractJSON narrows a model reply down to the part most likely to be JSON.
// A ```json fence wins over a bare ``` fence; text without fences is returned
// trimmed. It never fails: an unterminated fence yields everything after it.
func ExtractJSON(text string) string {
	if body, ok := fencedBody(text, jsonFence); ok {
		return body
	}
	if body, ok := fencedBody(text, genericFence); ok {
		return body
	}
	return strings.TrimSpace(text)
}

func fencedBody(text, opening string) (string, bool) {
	start := strings.Index(text, opening)
	if start == -1 {
		return "", false
	}
	start += len(opening)

	rest := text[start:]
	if end := strings.Index(rest, genericFence); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}
