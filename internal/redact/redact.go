// Package redact masks sensitive values in nested JSON-like structures.
//
// DESIGN: A Redactor walks decoded values and replaces the value of any map
// key matching the configured sensitive-key set (case-insensitively) with a
// fixed mask. Structure is preserved; scalars pass through. Recursion stops
// at a configured depth ceiling: values deeper than that are returned
// unredacted, which bounds the walk on pathological nesting. Depth counts
// the whole descent, map and sequence levels alike.
package redact

import (
	"strings"

	"github.com/rex-nihilo/chatlens/internal/config"
)

// Redactor replaces sensitive values with a mask.
type Redactor struct {
	keys     map[string]bool
	mask     string
	maxDepth int
}

// New builds a Redactor from the redaction config. Key matching is
// case-insensitive.
func New(cfg config.RedactConfig) *Redactor {
	keys := make(map[string]bool, len(cfg.Keys))
	for _, k := range cfg.Keys {
		keys[strings.ToLower(k)] = true
	}
	return &Redactor{
		keys:     keys,
		mask:     cfg.Mask,
		maxDepth: cfg.MaxDepth,
	}
}

// Redact returns a copy of value with sensitive entries masked.
// The input is never mutated.
func (r *Redactor) Redact(value any) any {
	return r.redact(value, 0)
}

func (r *Redactor) redact(value any, depth int) any {
	if depth > r.maxDepth {
		return value
	}

	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			if r.keys[strings.ToLower(k)] {
				out[k] = r.mask
			} else {
				out[k] = r.redact(elem, depth+1)
			}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = r.redact(elem, depth+1)
		}
		return out
	default:
		return value
	}
}
