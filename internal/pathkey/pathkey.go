// Package pathkey resolves dotted key paths against decoded JSON-like values.
//
// DESIGN: Paths address nested map[string]any / []any structures with the
// grammar "a.b[0].c": dot-separated bare keys, bracketed non-negative integer
// indexes. Resolution never fails loudly; every malformed path, missing key,
// out-of-range index, or non-container intermediate collapses to "not found"
// so callers can degrade to a sentinel.
//
// The resolver works on decoded values rather than raw JSON because snapshots
// mix JSON data with host handles (callables, request objects) that have no
// byte representation.
package pathkey

import (
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
)

// tokenPattern matches either a bracketed index or a bare key segment.
var tokenPattern = regexp.MustCompile(`\[[^\]]*\]|[^.\[\]]+`)

// segment is one resolved path step: a map key or a sequence index.
type segment struct {
	key     string
	index   int
	isIndex bool
}

// parse tokenizes a path into segments. Returns false on any malformed
// bracket content (non-numeric or empty).
func parse(path string) ([]segment, bool) {
	raw := tokenPattern.FindAllString(path, -1)
	if len(raw) == 0 {
		return nil, false
	}

	segments := make([]segment, 0, len(raw))
	for _, tok := range raw {
		if tok[0] == '[' {
			inner := tok[1 : len(tok)-1]
			idx, err := strconv.Atoi(inner)
			if err != nil || idx < 0 {
				log.Warn().Str("path", path).Str("index", inner).Msg("pathkey: invalid index in path")
				return nil, false
			}
			segments = append(segments, segment{index: idx, isIndex: true})
		} else {
			segments = append(segments, segment{key: tok})
		}
	}
	return segments, true
}

// Resolve walks root along path and returns the addressed value.
// The second return is false whenever the path cannot be fully resolved:
// empty path, nil root, malformed index, missing key, out-of-range index, or
// a scalar reached while segments remain.
func Resolve(root any, path string) (any, bool) {
	if path == "" || root == nil {
		return nil, false
	}

	segments, ok := parse(path)
	if !ok {
		return nil, false
	}

	current := root
	for _, seg := range segments {
		switch {
		case seg.isIndex:
			list, ok := current.([]any)
			if !ok || seg.index >= len(list) {
				return nil, false
			}
			current = list[seg.index]
		default:
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = m[seg.key]
			if !ok {
				return nil, false
			}
		}
		if current == nil {
			return nil, false
		}
	}
	return current, true
}
