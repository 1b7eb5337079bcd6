package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseErrorKind classifies why generator output could not be used.
type ParseErrorKind string

// Parse error kinds.
const (
	ParseErrorEmpty       ParseErrorKind = "empty"
	ParseErrorNoJSON      ParseErrorKind = "no_json"
	ParseErrorInvalidJSON ParseErrorKind = "invalid_json"
	ParseErrorSchema      ParseErrorKind = "schema"
)

// ParseError reports malformed generator output. Callers treat it as a
// generator failure and fall back.
type ParseError struct {
	Kind ParseErrorKind
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unusable generator output (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("unusable generator output (%s)", e.Kind)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExtractJSONPayload pulls a single JSON value out of raw generator text.
//
// Rules, applied in order:
//  1. surrounding whitespace is trimmed; empty input is ParseErrorEmpty
//  2. a markdown fence (```json, ``` or ```<lang>) opening before the first
//     brace is removed together with its closing fence
//  3. prose before the first '{' or '[' is dropped
//  4. the first balanced object or array is kept and trailing text dropped
//  5. the result must be valid JSON, otherwise ParseErrorInvalidJSON
func ExtractJSONPayload(raw string) (json.RawMessage, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ParseError{Kind: ParseErrorEmpty, Raw: raw}
	}

	cleaned := CleanJSONBlock(raw)
	if cleaned == "" || (cleaned[0] != '{' && cleaned[0] != '[') {
		return nil, &ParseError{Kind: ParseErrorNoJSON, Raw: raw}
	}
	if !json.Valid([]byte(cleaned)) {
		var probe any
		err := json.Unmarshal([]byte(cleaned), &probe)
		return nil, &ParseError{Kind: ParseErrorInvalidJSON, Raw: raw, Err: err}
	}
	return json.RawMessage(cleaned), nil
}

// CleanJSONBlock removes markdown fences, leading prose and trailing text
// around a JSON value. Text without any JSON is returned trimmed.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	start := strings.IndexAny(text, "{[")
	if fence := strings.Index(text, "```"); fence >= 0 && (start < 0 || fence < start) {
		text = stripFence(text[fence:])
		start = strings.IndexAny(text, "{[")
	}

	if start < 0 {
		return text
	}
	text = text[start:]

	var extracted string
	if text[0] == '{' {
		extracted = extractJSONObject(text)
	} else {
		extracted = extractJSONArray(text)
	}
	if extracted == "" {
		// unbalanced; hand back what we have so the decoder reports it
		return strings.TrimSpace(text)
	}
	return extracted
}

// stripFence drops an opening ``` fence (and language tag) and everything from
// the closing fence on.
func stripFence(text string) string {
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		first := strings.TrimSpace(text[:idx])
		if len(first) < 20 && !strings.ContainsAny(first, " {[") {
			text = text[idx+1:]
		}
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func extractJSONObject(text string) string {
	return extractBalanced(text, '{', '}')
}

func extractJSONArray(text string) string {
	return extractBalanced(text, '[', ']')
}

// extractBalanced returns the prefix of text that forms one balanced value
// starting with open. Brackets inside strings are ignored.
func extractBalanced(text string, open, closing byte) string {
	if text == "" || text[0] != open {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
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
				if ch != closing {
					return ""
				}
				return text[:i+1]
			}
		}
	}
	return ""
}
