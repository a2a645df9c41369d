// ABOUTME: Tests for the conversational short-circuit classifier
// ABOUTME: Whole-message matching only; anything with real content falls through
package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConversational(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"hi", true},
		{"hi there", true},
		{"Hi There!", true},
		{"  hello  ", true},
		{"good morning", true},
		{"goodmorning team", true},
		{"hey everyone!!", true},
		{"thanks", true},
		{"thank you so much!", true},
		{"cheers", true},
		{"bye", true},
		{"see you", true},
		{"ok", true},
		{"got it.", true},
		{"yep", true},
		{"help", true},
		{"what can you do?", true},
		{"who are you", true},
		{"lol", true},
		{"awesome!", true},

		{"", false},
		{"   ", false},
		{"hi, what's the sprint status", false},
		{"thanks, now show my tickets", false},
		{"help me with blockers", false},
		{"hello world program", false},
		{"what's blocking the sprint", false},
		{"ping", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConversational(tt.text))
		})
	}
}
