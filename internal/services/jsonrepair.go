package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedBlock   = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	openFence     = regexp.MustCompile("```(?:json)?\\s*")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON returns the JSON payload embedded in a model answer: the
// contents of a fenced block, otherwise the text from the first '{'.
func ExtractJSON(text string) string {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := openFence.FindStringIndex(text); loc != nil {
		// fence opened but never closed: the answer was cut off
		return strings.TrimSpace(text[loc[1]:])
	}
	if start := strings.IndexByte(text, '{'); start >= 0 {
		return strings.TrimSpace(text[start:])
	}
	return strings.TrimSpace(text)
}

// StripTrailingCommas removes commas directly before a closing bracket.
func StripTrailingCommas(raw string) string {
	return trailingComma.ReplaceAllString(raw, "$1")
}

// CloseTruncated repairs JSON cut off mid-stream: it drops the incomplete
// tail after the last complete element and closes every bracket still open.
// Only "}," and "]," outside string values count as element boundaries.
func CloseTruncated(raw string) string {
	var open, openAtCut []byte
	cut := -1
	inString, escaped := false, false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{' || ch == '[':
			open = append(open, ch)
		case ch == '}' && len(open) > 0 && open[len(open)-1] == '{',
			ch == ']' && len(open) > 0 && open[len(open)-1] == '[':
			open = open[:len(open)-1]
			if i+1 < len(raw) && raw[i+1] == ',' {
				cut = i
				openAtCut = append(openAtCut[:0], open...)
			}
		}
	}
	if cut > 0 {
		raw = raw[:cut+1]
		open = openAtCut
		inString = false
	}

	var b strings.Builder
	b.WriteString(raw)
	if inString {
		b.WriteByte('"')
	}
	for i := len(open) - 1; i >= 0; i-- {
		if open[i] == '[' {
			b.WriteByte(']')
		} else {
			b.WriteByte('}')
		}
	}
	return b.String()
}

// DecodeJSON decodes a model answer into dest, trying progressively more
// aggressive repairs.
func DecodeJSON(text string, dest any) error {
	payload := ExtractJSON(text)
	candidates := []string{payload}
	// a complete object followed by chatter
	if end := strings.LastIndexByte(payload, '}'); end >= 0 && end < len(payload)-1 {
		candidates = append(candidates, payload[:end+1])
	}

	var firstErr error
	for _, c := range candidates {
		for _, attempt := range []string{c, StripTrailingCommas(c), StripTrailingCommas(CloseTruncated(c))} {
			err := json.Unmarshal([]byte(attempt), dest)
			if err == nil {
				return nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr == nil {
		firstErr = errors.New("no JSON found")
	}
	return fmt.Errorf("failed to parse model JSON: %w", firstErr)
}

// CompleteJSON asks c for an answer to prompt and decodes it into dest.
func CompleteJSON(ctx context.Context, c Completer, prompt string, maxTokens int, dest any) error {
	raw, err := c.Complete(ctx, prompt, maxTokens)
	if err != nil {
		return fmt.Errorf("failed to complete prompt: %w", err)
	}
	return DecodeJSON(raw, dest)
}
