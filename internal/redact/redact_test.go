package redact_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rex-nihilo/chatlens/internal/config"
	"github.com/rex-nihilo/chatlens/internal/redact"
)

const mask = "**** OBFUSCATED ****"

func newRedactor() *redact.Redactor {
	return redact.New(config.RedactConfig{
		Enabled:  true,
		Keys:     []string{"email", "date_of_birth", "api_key"},
		Mask:     mask,
		MaxDepth: 10,
	})
}

func TestRedact_TopLevelKey(t *testing.T) {
	r := newRedactor()

	out := r.Redact(map[string]any{
		"email": "user@example.com",
		"name":  "alice",
	})

	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, mask, m["email"])
	assert.Equal(t, "alice", m["name"])
}

func TestRedact_CaseInsensitive(t *testing.T) {
	r := newRedactor()

	out := r.Redact(map[string]any{"API_Key": "sk-secret"})

	m := out.(map[string]any)
	assert.Equal(t, mask, m["API_Key"])
}

func TestRedact_NestedAndInsideList(t *testing.T) {
	r := newRedactor()

	out := r.Redact(map[string]any{
		"users": []any{
			map[string]any{"email": "a@b.c", "id": "u1"},
			map[string]any{"email": "d@e.f", "id": "u2"},
		},
	})

	users := out.(map[string]any)["users"].([]any)
	assert.Equal(t, mask, users[0].(map[string]any)["email"])
	assert.Equal(t, "u1", users[0].(map[string]any)["id"])
	assert.Equal(t, mask, users[1].(map[string]any)["email"])
}

func TestRedact_ScalarsPassThrough(t *testing.T) {
	r := newRedactor()

	assert.Equal(t, "plain", r.Redact("plain"))
	assert.Equal(t, float64(42), r.Redact(float64(42)))
	assert.Equal(t, true, r.Redact(true))
	assert.Nil(t, r.Redact(nil))
}

func TestRedact_DoesNotMutateInput(t *testing.T) {
	r := newRedactor()

	in := map[string]any{"email": "user@example.com"}
	_ = r.Redact(in)

	assert.Equal(t, "user@example.com", in["email"])
}

func TestRedact_DepthCeiling(t *testing.T) {
	r := newRedactor()

	// Build a chain 12 maps deep with a sensitive key at the bottom.
	leaf := map[string]any{"email": "deep@example.com"}
	current := any(leaf)
	for i := 0; i < 12; i++ {
		current = map[string]any{"level": current}
	}

	out := r.Redact(current)

	// Walk back down; beyond depth 10 the value must be untouched.
	node := out.(map[string]any)
	for i := 0; i < 12; i++ {
		node = node["level"].(map[string]any)
	}
	assert.Equal(t, "deep@example.com", node["email"],
		"values beyond the depth ceiling pass through unredacted")
}

func TestRedact_WithinDepthCeiling(t *testing.T) {
	r := newRedactor()

	// 5 levels deep is well within the ceiling.
	leaf := map[string]any{"api_key": "sk-deep"}
	current := any(leaf)
	for i := 0; i < 5; i++ {
		current = map[string]any{"level": current}
	}

	out := r.Redact(current)

	node := out.(map[string]any)
	for i := 0; i < 5; i++ {
		node = node["level"].(map[string]any)
	}
	assert.Equal(t, mask, node["api_key"])
}
