package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTime(t *testing.T) {
	ref := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		ok   bool
		want time.Time
	}{
		{"rfc3339", "2024-10-10T10:10:10Z", true, ref},
		{"rfc3339 nano", "2024-10-10T10:10:10.5Z", true, ref.Add(500 * time.Millisecond)},
		{"unix seconds", strconv.FormatInt(ref.Unix(), 10), true, ref},
		{"unix millis", strconv.FormatInt(ref.UnixMilli()+250, 10), true, ref.Add(250 * time.Millisecond)},
		{"empty", "", false, time.Time{}},
		{"garbage", "yesterday", false, time.Time{}},
		{"negative", "-5", false, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v", got)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 500, Clamp(0, 500, 1, 5000))
	assert.Equal(t, 5000, Clamp(9000, 500, 1, 5000))
	assert.Equal(t, 42, Clamp(42, 500, 1, 5000))
}
