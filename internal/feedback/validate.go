package feedback

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ListField returns data[field] when it is a list, an empty list otherwise.
func ListField(data map[string]any, field string) []any {
	if items, ok := data[field].([]any); ok {
		return items
	}
	return []any{}
}

// NormalizeStrings keeps string items (trimmed), renders objects as
// "key: value" pairs joined by ", " in key order, and drops everything else.
// The result is never nil.
func NormalizeStrings(items []any) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		switch val := item.(type) {
		case string:
			cleaned = append(cleaned, strings.TrimSpace(val))
		case map[string]any:
			cleaned = append(cleaned, renderObject(val))
		}
	}
	return cleaned
}

func renderObject(obj map[string]any) string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+": "+coerceString(obj[k]))
	}
	return strings.Join(pairs, ", ")
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
