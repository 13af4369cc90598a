package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rex-nihilo/chatlens/internal/render"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name string
		size int
		want string
	}{
		{"zero", 0, "0 bytes"},
		{"bytes", 512, "512 bytes"},
		{"boundary below KB", 1023, "1023 bytes"},
		{"exact KB", 1024, "1 KB"},
		{"one and a half KB", 1536, "1.5 KB"},
		{"two decimals kept", 1669, "1.63 KB"},
		{"exact MB", 1024 * 1024, "1 MB"},
		{"GB range", 3 * 1024 * 1024 * 1024, "3 GB"},
		{"negative", -5, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render.FormatSize(tt.size))
		})
	}
}
