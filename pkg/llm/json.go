package llm

import "strings"

// StripCodeFence returns the body of the first ```lang (or bare ```) fenced
// block in content, or the trimmed content when there is no fence.
func StripCodeFence(content, lang string) string {
	content = strings.TrimSpace(content)

	open := strings.Index(content, "```"+lang)
	skip := len("```" + lang)
	if lang == "" || open < 0 {
		open = strings.Index(content, "```")
		skip = len("```")
		if open >= 0 {
			// skip an unknown language tag on the opening line
			if nl := strings.IndexByte(content[open+skip:], '\n'); nl >= 0 && !strings.ContainsAny(content[open+skip:open+skip+nl], "{[ ") {
				skip += nl
			}
		}
	}
	if open < 0 {
		return content
	}

	body := content[open+skip:]
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func cleanJSONResponse(content string) string {
	content = StripCodeFence(content, "json")

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
