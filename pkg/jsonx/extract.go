// Package jsonx pulls a structured JSON payload out of free-form model output,
// which may wrap it in a fenced code block or surround it with prose.
package jsonx

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmpty     = errors.New("empty response")
	ErrNoPayload = errors.New("no json payload found")
)

const fence = "```"

// Extract returns the JSON object or array embedded in text.
func Extract(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmpty
	}

	if body, ok := fencedBody(text); ok {
		text = body
	}

	open := strings.IndexAny(text, "{[")
	if open < 0 {
		return "", ErrNoPayload
	}
	closer := "}"
	if text[open] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= open {
		return "", ErrNoPayload
	}
	return text[open : end+1], nil
}

// Decode extracts the payload from text and unmarshals it into v.
func Decode(text string, v any) error {
	payload, err := Extract(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// fencedBody returns the contents of the first fenced block, dropping an
// optional language tag such as "json".
func fencedBody(text string) (string, bool) {
	start := strings.Index(text, fence)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(fence):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || isLanguageTag(tag) {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, fence)
	if end < 0 {
		// unterminated fence, keep what follows it
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
