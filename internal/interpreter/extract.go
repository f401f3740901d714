package interpreter

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when the model reply contains no parseable JSON
// object at all. Callers must not treat it as an empty command.
var ErrNoJSON = errors.New("no JSON object found in model reply")

// ExtractJSON pulls a single JSON object out of a free-form model reply.
// The reply should be a bare object but may arrive wrapped in code fences
// or surrounding prose. Attempts, in order: strip fences and parse directly,
// then parse the substring between the first '{' and the last '}'.
func ExtractJSON(reply string) (json.RawMessage, error) {
	s := stripFences(strings.TrimSpace(reply))

	if json.Valid([]byte(s)) && strings.HasPrefix(strings.TrimSpace(s), "{") {
		return json.RawMessage(s), nil
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return nil, ErrNoJSON
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, ErrNoJSON
	}
	return json.RawMessage(candidate), nil
}

// stripFences removes Markdown code-fence markers, including a language tag
// on the opening fence.
func stripFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
