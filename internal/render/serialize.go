// Package render turns captured data into the text that reaches the sinks:
// JSON-safe conversion, indented JSON rendering, byte-size measurement and
// formatting, report assembly, and transcript sanitization.
//
// DESIGN: Rendering must never fail. Captured snapshots can contain host
// handles (callables, request objects) that have no JSON form; Safe converts
// those to string tags first, and Render falls back to plain %v formatting
// if encoding still fails.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/rs/zerolog/log"
)

// Safe recursively converts value into a JSON-safe structure. Maps and
// sequences are converted element-wise, callables become a tag embedding
// their identity, and any other non-primitive is rendered with %v.
func Safe(value any) any {
	switch v := value.(type) {
	case nil, string, bool,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		json.Number:
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = Safe(elem)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = Safe(elem)
		}
		return out
	default:
		if reflect.ValueOf(value).Kind() == reflect.Func {
			return fmt.Sprintf("<callable: %T>", value)
		}
		return fmt.Sprintf("%v", value)
	}
}

// Render produces 2-space indented JSON text for a (presumably Safe) value.
// Non-ASCII characters stay literal; HTML characters are not escaped. If
// encoding fails anyway, the %v representation of the value is returned
// instead of an error.
func Render(value any) string {
	if value == nil {
		return "{}"
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(value); err != nil {
		log.Error().Err(err).Msg("render: JSON encoding failed, falling back to plain formatting")
		return fmt.Sprintf("%v", value)
	}

	// Encode appends a trailing newline.
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// ByteSize returns the UTF-8 byte length of the compact JSON encoding of
// value, before any Safe conversion. Returns 0 for nil or unserializable
// input. Used only for human-readable size reporting.
func ByteSize(value any) int {
	if value == nil {
		return 0
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(value); err != nil {
		log.Error().Err(err).Msg("render: failed to measure JSON size")
		return 0
	}

	return buf.Len() - 1 // minus the trailing newline
}
