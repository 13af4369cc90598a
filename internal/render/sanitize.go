package render

import (
	"fmt"
	"regexp"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Sanitizer strips previously injected report blocks from message text so a
// new report never accumulates on top of old ones.
type Sanitizer struct {
	pattern *regexp.Regexp
}

// NewSanitizer compiles the strip pattern for the given literal markers.
// Returns nil when no markers are configured, in which case nothing is ever
// stripped (the fence fallback is display-only and not removable).
func NewSanitizer(markerBegin, markerEnd string) *Sanitizer {
	if markerBegin == "" || markerEnd == "" {
		return nil
	}

	// Non-greedy, dot-matches-newline span between the literal markers.
	pattern := regexp.MustCompile(
		fmt.Sprintf(`(?s)%s.*?%s`, regexp.QuoteMeta(markerBegin), regexp.QuoteMeta(markerEnd)))
	return &Sanitizer{pattern: pattern}
}

// Strip removes every marker-bounded span from text, leaving everything else
// byte-identical. Idempotent.
func (s *Sanitizer) Strip(text string) string {
	if s == nil {
		return text
	}
	return s.pattern.ReplaceAllString(text, "")
}

// CleanBody strips report blocks from the content of every message in a raw
// JSON chat body. Non-string contents (multimodal parts) are left untouched.
// Returns the body unchanged when nothing needed stripping or patching fails.
func (s *Sanitizer) CleanBody(body []byte) []byte {
	if s == nil || len(body) == 0 {
		return body
	}

	messages := gjson.GetBytes(body, "messages")
	if !messages.Exists() || !messages.IsArray() {
		return body
	}

	cleaned := body
	idx := 0
	messages.ForEach(func(_, msg gjson.Result) bool {
		content := msg.Get("content")
		if content.Type == gjson.String {
			original := content.String()
			stripped := s.Strip(original)
			if stripped != original {
				var err error
				cleaned, err = sjson.SetBytes(cleaned, fmt.Sprintf("messages.%d.content", idx), stripped)
				if err != nil {
					log.Warn().Err(err).Int("message", idx).Msg("sanitize: failed to patch message content")
					cleaned = body
					return false
				}
			}
		}
		idx++
		return true
	})

	return cleaned
}
