package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// ExtractJSON pulls the first balanced JSON object or array out of a model
// answer, skipping <think> blocks, code fences and surrounding prose.
func ExtractJSON(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if end := strings.Index(content, "</think>"); end != -1 {
		content = content[end+len("</think>"):]
	}
	if strings.HasPrefix(strings.TrimSpace(content), "```") {
		content = strings.TrimSpace(content)
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	start := strings.IndexAny(content, "{[")
	if start == -1 {
		return "", errors.New("no JSON found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return trailingComma.ReplaceAllString(content[start:i+1], "$1"), nil
			}
		}
	}
	return "", errors.New("incomplete JSON in response")
}

// DecodeObject extracts and decodes a JSON object from a model answer.
func DecodeObject(raw string) (map[string]any, error) {
	text, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("parse model JSON: %w", err)
	}
	return data, nil
}

// DecodeInto extracts a JSON value from a model answer into dest.
func DecodeInto(raw string, dest any) error {
	text, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), dest); err != nil {
		return fmt.Errorf("parse model JSON: %w", err)
	}
	return nil
}

// CoerceString renders any scalar as trimmed text.
func CoerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// CoerceStrings accepts a list, a single string or a comma separated
// string, and drops empty items.
func CoerceStrings(v any) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			add(CoerceString(item))
		}
	case []string:
		for _, item := range val {
			add(item)
		}
	case string:
		for _, part := range strings.Split(val, ",") {
			add(part)
		}
	}
	return out
}

// CoerceFloat parses numbers and numeric strings. ok is false otherwise.
func CoerceFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return val, true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// CoerceBool accepts booleans, "true"/"yes" and non-zero numbers.
func CoerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	}
	return false
}
