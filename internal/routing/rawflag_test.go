// ABOUTME: Tests for --raw marker extraction
// ABOUTME: Covers case-insensitivity, whitespace collapsing and idempotence
package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripRawFlag(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		clean   string
		wantRaw bool
	}{
		{"no marker", "what's the sprint status", "what's the sprint status", false},
		{"trailing marker", "what's blocking the sprint --raw", "what's blocking the sprint", true},
		{"leading marker", "--raw sprint status", "sprint status", true},
		{"middle marker", "sprint --raw status", "sprint status", true},
		{"upper case", "sprint status --RAW", "sprint status", true},
		{"mixed case", "ping --Raw", "ping", true},
		{"repeated markers", "ping --raw --raw", "ping", true},
		{"adjacent markers", "ping --raw--raw now", "ping now", true},
		{"only marker", "  --raw  ", "", true},
		{"unchanged whitespace when absent", "  hello  ", "  hello  ", false},
		{"single dash is not a marker", "ping -raw", "ping -raw", false},
		{"marker prefix of a longer flag", "report --rawdata", "report data", true},
		{"marker prefix at start", "--rawdata please", "data please", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, raw := StripRawFlag(tt.input)
			assert.Equal(t, tt.clean, clean)
			assert.Equal(t, tt.wantRaw, raw)
		})
	}
}

func TestStripRawFlag_Idempotent(t *testing.T) {
	inputs := []string{
		"what's blocking the sprint --raw",
		"--raw my jira tickets",
		"a --raw b --RAW c",
		"--r--raw aw",
		"no marker here",
		"",
	}

	for _, in := range inputs {
		first, _ := StripRawFlag(in)
		second, raw := StripRawFlag(first)
		assert.Equal(t, first, second, "input %q", in)
		assert.False(t, raw, "second application must not report raw for %q", in)
	}
}
