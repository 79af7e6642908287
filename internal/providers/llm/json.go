package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrEmptyResponse = errors.New("llm: empty response")

// CleanJSON strips markdown code fences models sometimes wrap JSON in.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

func DecodeJSON(raw string, dst any) error {
	clean := CleanJSON(raw)
	if clean == "" {
		return ErrEmptyResponse
	}
	return json.Unmarshal([]byte(clean), dst)
}
