package agent

import (
	"regexp"
	"strings"
)

// The model requests tools in plain text: TOOL_CALL: name(key=value, ...).
// The marker is provider-agnostic, so every backend can drive tools even
// without native function calling.
var toolCallPattern = regexp.MustCompile(`TOOL_CALL:\s*(\w+)\((.*?)\)`)

type toolCall struct {
	Name string
	Args map[string]string
}

// parseToolCalls extracts every tool invocation marker from the response.
func parseToolCalls(text string) []toolCall {
	matches := toolCallPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	calls := make([]toolCall, 0, len(matches))
	for _, m := range matches {
		calls = append(calls, toolCall{Name: m[1], Args: parseToolArgs(m[2])})
	}
	return calls
}

// parseToolArgs parses the comma-separated key=value list inside the
// parentheses. Quotes around keys and values are stripped.
func parseToolArgs(s string) map[string]string {
	args := make(map[string]string)
	s = strings.TrimSpace(s)
	if s == "" {
		return args
	}
	for _, part := range strings.Split(s, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		key = strings.Trim(strings.TrimSpace(key), `"'`)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key != "" {
			args[key] = value
		}
	}
	return args
}

// hasToolCall reports whether the response contains at least one marker.
func hasToolCall(text string) bool {
	return strings.Contains(text, "TOOL_CALL:")
}
