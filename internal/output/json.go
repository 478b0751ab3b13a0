package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

var Writer io.Writer = os.Stdout

func JSON(v any) error {
	return encode(v, "  ")
}

func JSONCompact(v any) error {
	return encode(v, "")
}

func encode(v any, indent string) error {
	enc := json.NewEncoder(Writer)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func JSONError(msg string, details string) {
	_ = JSON(ErrorResponse{Error: msg, Details: details})
}
