package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseAIJSON extracts and parses JSON from AI output that may contain:
// - Pure JSON
// - JSON wrapped in markdown code blocks (```json ... ```)
// - JSON with surrounding text
// - Trailing commas or unquoted keys
func ParseAIJSON(input string, target interface{}) error {
	if input == "" {
		return fmt.Errorf("empty input")
	}

	// Try direct parsing first (most common case)
	if err := json.Unmarshal([]byte(input), target); err == nil {
		return nil
	}

	// Try to extract JSON from markdown code blocks
	if extracted := extractFromMarkdown(input); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
	}

	// Try to find JSON object/array in text
	if extracted := extractJSONFromText(input); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
	}

	// Try to clean and fix common JSON issues
	if cleaned := cleanAndFixJSON(input); cleaned != "" {
		if err := json.Unmarshal([]byte(cleaned), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to parse JSON from input: %s", truncateString(input, 100))
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// ExtractFencedJSON returns the content of the first fenced code block
// whose content looks like a JSON object or array. Fenced blocks holding
// anything else (SQL samples, prose) are skipped; later JSON blocks are
// ignored once one is found.
func ExtractFencedJSON(input string) (string, bool) {
	for _, m := range fencedJSONRe.FindAllStringSubmatch(input, -1) {
		content := strings.TrimSpace(m[1])
		if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
			return content, true
		}
	}
	return "", false
}

// StripFencedBlock removes the first fenced JSON block from the input,
// returning the surrounding text. Non-JSON fenced blocks are left in place.
func StripFencedBlock(input string) string {
	for _, loc := range fencedJSONRe.FindAllStringSubmatchIndex(input, -1) {
		content := strings.TrimSpace(input[loc[2]:loc[3]])
		if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
			return strings.TrimSpace(input[:loc[0]] + input[loc[1]:])
		}
	}
	return input
}

// ExtractTaggedJSON locates the first fenced JSON block in the input and
// unmarshals it into target, but only when the block is a JSON object whose
// discriminator field holds one of the accepted values. It reports false in
// every other case: no fenced block, malformed JSON, or an unexpected
// discriminator. It never guesses at malformed content.
func ExtractTaggedJSON(input, discriminator string, accepted []string, target interface{}) bool {
	block, ok := ExtractFencedJSON(input)
	if !ok {
		return false
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &probe); err != nil {
		return false
	}

	raw, ok := probe[discriminator]
	if !ok {
		return false
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return false
	}

	matched := false
	for _, a := range accepted {
		if value == a {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	return json.Unmarshal([]byte(block), target) == nil
}

// extractFromMarkdown extracts JSON from markdown code blocks
// Supports: ```json {...} ```, ```{...}```, or ```\n{...}\n```
func extractFromMarkdown(input string) string {
	content, ok := ExtractFencedJSON(input)
	if !ok {
		return ""
	}
	return content
}

// extractJSONFromText finds JSON object or array in surrounding text
func extractJSONFromText(input string) string {
	// Try to find JSON object
	if start := strings.Index(input, "{"); start >= 0 {
		if extracted := extractBalancedBraces(input[start:], '{', '}'); extracted != "" {
			return extracted
		}
	}

	// Try to find JSON array
	if start := strings.Index(input, "["); start >= 0 {
		if extracted := extractBalancedBraces(input[start:], '[', ']'); extracted != "" {
			return extracted
		}
	}

	return ""
}

// extractBalancedBraces extracts content with balanced braces
func extractBalancedBraces(input string, open, close rune) string {
	if len(input) == 0 {
		return ""
	}

	depth := 0
	inString := false
	escape := false
	start := 0

	for i, ch := range input {
		if escape {
			escape = false
			continue
		}

		if ch == '\\' {
			escape = true
			continue
		}

		if ch == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if ch == open {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == close {
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}

	return ""
}

// cleanAndFixJSON attempts to fix common JSON formatting issues
func cleanAndFixJSON(input string) string {
	s := strings.TrimSpace(input)

	// Remove BOM if present
	s = strings.TrimPrefix(s, "\ufeff")

	// Remove trailing commas before closing braces/brackets
	re1 := regexp.MustCompile(`,\s*([}\]])`)
	s = re1.ReplaceAllString(s, "$1")

	// Fix missing quotes around keys (common AI mistake)
	// Match: {word: "value"} -> {"word": "value"}
	re2 := regexp.MustCompile(`([{,]\s*)(\w+)(\s*:)`)
	s = re2.ReplaceAllString(s, `$1"$2"$3`)

	// Remove control characters
	s = removeControlCharacters(s)

	return s
}

// removeControlCharacters removes non-printable control characters
func removeControlCharacters(input string) string {
	return regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`).ReplaceAllString(input, "")
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
