package chat

import "strings"

// StripFences removes a surrounding Markdown code fence from model output.
// Models occasionally wrap the JSON in ```json ... ``` despite being told
// not to; the inner text is returned unchanged otherwise.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	// Drop the opening fence line (``` or ```json).
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
