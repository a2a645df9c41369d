// ABOUTME: Detects and strips the inline --raw debug marker from a message
// ABOUTME: Raw mode asks for the skill's verbatim JSON instead of a narrated answer
package routing

import (
	"regexp"
	"strings"
)

// RawFlag is the inline marker that requests raw skill output
const RawFlag = "--raw"

// Adjacent markers collapse into one replacement site.
var rawFlagPattern = regexp.MustCompile(`(?i)(?:\s*--raw\s*)+`)

// StripRawFlag removes every --raw marker (any case, with surrounding whitespace).
// The marker is matched as a substring, so "--rawdata" strips to "data" and sets raw.
// When no marker is present the text is returned unchanged with raw == false.
func StripRawFlag(text string) (clean string, raw bool) {
	if !rawFlagPattern.MatchString(text) {
		return text, false
	}
	return strings.TrimSpace(rawFlagPattern.ReplaceAllString(text, " ")), true
}
