package feedback

import "strings"

// ExtractJSON cuts the JSON object out of a model reply: code fence markers
// are removed and the span from the first '{' to the last '}' is kept. Replies
// without braces are returned trimmed.
func ExtractJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```JSON", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end < start {
		return strings.TrimSpace(cleaned)
	}

	return cleaned[start : end+1]
}
