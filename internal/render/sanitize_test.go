package render_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/rex-nihilo/chatlens/internal/render"
)

const (
	markerBegin = "---- DFD REPORT BEGIN ----"
	markerEnd   = "---- DFD REPORT END ----"
)

func TestStrip_RemovesReportSpan(t *testing.T) {
	s := render.NewSanitizer(markerBegin, markerEnd)

	text := "before " + markerBegin + "\nreport\ncontents\n" + markerEnd + " after"
	out := s.Strip(text)

	assert.Equal(t, "before  after", out)
}

func TestStrip_Idempotent(t *testing.T) {
	s := render.NewSanitizer(markerBegin, markerEnd)

	text := "x" + markerBegin + "abc" + markerEnd + "y"
	once := s.Strip(text)
	twice := s.Strip(once)

	assert.Equal(t, once, twice)
}

func TestStrip_MultipleSpansNonGreedy(t *testing.T) {
	s := render.NewSanitizer(markerBegin, markerEnd)

	text := "a" + markerBegin + "1" + markerEnd + "b" + markerBegin + "2" + markerEnd + "c"
	out := s.Strip(text)

	assert.Equal(t, "abc", out, "each span removed separately, text between spans preserved")
}

func TestStrip_NoMarkersNoChange(t *testing.T) {
	s := render.NewSanitizer(markerBegin, markerEnd)

	assert.Equal(t, "untouched text", s.Strip("untouched text"))
}

func TestStrip_NilSanitizerPassesThrough(t *testing.T) {
	var s *render.Sanitizer

	assert.Equal(t, "anything", s.Strip("anything"))
}

func TestCleanBody_StripsEveryMessage(t *testing.T) {
	s := render.NewSanitizer(markerBegin, markerEnd)

	body, err := json.Marshal(map[string]any{
		"messages": []any{
			map[string]any{"role": "user", "content": "hi " + markerBegin + "old" + markerEnd},
			map[string]any{"role": "assistant", "content": markerBegin + "old2" + markerEnd + " reply"},
			map[string]any{"role": "user", "content": "clean"},
		},
	})
	require.NoError(t, err)

	out := s.CleanBody(body)

	assert.Equal(t, "hi ", gjson.GetBytes(out, "messages.0.content").String())
	assert.Equal(t, " reply", gjson.GetBytes(out, "messages.1.content").String())
	assert.Equal(t, "clean", gjson.GetBytes(out, "messages.2.content").String())
}

func TestCleanBody_NonStringContentUntouched(t *testing.T) {
	s := render.NewSanitizer(markerBegin, markerEnd)

	body := []byte(`{"messages":[{"role":"user","content":[{"type":"text","text":"hi"}]}]}`)
	out := s.CleanBody(body)

	assert.JSONEq(t, string(body), string(out))
}

func TestCleanBody_NoMessagesKey(t *testing.T) {
	s := render.NewSanitizer(markerBegin, markerEnd)

	body := []byte(`{"model":"llama3"}`)
	assert.Equal(t, body, s.CleanBody(body))
}

func TestCleanBody_SurroundingTextByteIdentical(t *testing.T) {
	s := render.NewSanitizer(markerBegin, markerEnd)

	content := "héllo ⚡️ " + markerBegin + "\nmultiline\nreport\n" + markerEnd + " bye"
	body, err := json.Marshal(map[string]any{
		"messages": []any{map[string]any{"role": "assistant", "content": content}},
	})
	require.NoError(t, err)

	out := s.CleanBody(body)
	got := gjson.GetBytes(out, "messages.0.content").String()

	assert.Equal(t, "héllo ⚡️  bye", got)
	assert.False(t, strings.Contains(got, markerBegin))
}
