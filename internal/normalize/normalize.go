// Package normalize flattens Jira rich-text descriptions into plain text.
package normalize

import (
	"encoding/json"
	"strings"
)

// FlattenDescription extracts the plain text from a raw description field.
// Jira may return a plain JSON string or a nested Atlassian document
// (maps carrying "content" or "text", arbitrarily nested, including
// arrays of nodes). Structural markup is discarded; text nodes are joined
// in document order with single spaces. Never fails: anything
// unrecognizable degrades to the empty string.
func FlattenDescription(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
		// Not JSON at all; treat the bytes as literal text.
		return strings.TrimSpace(string(raw))
	}
	return strings.TrimSpace(flattenNode(node))
}

func flattenNode(node any) string {
	switch n := node.(type) {
	case nil:
		return ""
	case string:
		return n
	case []any:
		parts := make([]string, 0, len(n))
		for _, item := range n {
			if s := flattenNode(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case map[string]any:
		if content, ok := n["content"]; ok {
			return flattenNode(content)
		}
		if text, ok := n["text"].(string); ok {
			return text
		}
		return ""
	default:
		return ""
	}
}
