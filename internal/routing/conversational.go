// ABOUTME: Recognizes pure social messages (greetings, thanks, acknowledgements)
// ABOUTME: Matching messages go to the model with zero tools and skip skill routing
package routing

import (
	"regexp"
	"strings"
)

// Whole-string patterns, applied to trimmed lower-case text.
var conversationalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(hi|hey|hello|yo|sup|howdy|good\s*(morning|afternoon|evening))(\s+(there|all|everyone|team|folks))?[\s!?.,]*$`),
	regexp.MustCompile(`^(thanks|thank you|thx|ty|cheers|appreciated)(\s+(so much|a lot))?[\s!?.,]*$`),
	regexp.MustCompile(`^(bye|goodbye|see you|later|cya)(\s+(there|all|everyone|team|folks))?[\s!?.,]*$`),
	regexp.MustCompile(`^(yes|no|yep|nope|yeah|nah|ok|okay|sure|got it)[\s!?.,]*$`),
	regexp.MustCompile(`^(help|what can you do|who are you|what are you)[\s!?.,]*$`),
	regexp.MustCompile(`^(lol|haha|heh|nice|cool|great|awesome)[\s!?.,]*$`),
}

// IsConversational reports whether the entire message is chit-chat
func IsConversational(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return false
	}
	for _, p := range conversationalPatterns {
		if p.MatchString(normalized) {
			return true
		}
	}
	return false
}
