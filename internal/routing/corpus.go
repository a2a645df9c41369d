// ABOUTME: Built-in detection patterns and action rules per skill
// ABOUTME: Declaration order is significant: the first matching action rule wins
package routing

// ActionRule maps a pattern to an action within a skill
type ActionRule struct {
	Pattern string
	Action  string
}

// SkillRules holds the detection patterns and ordered action rules of one skill.
// Put specific action rules before general ones; the last rule is the default.
type SkillRules struct {
	Patterns []string
	Actions  []ActionRule
}

// Corpus maps skill names to their rules. Trigger phrases come from skill definitions.
type Corpus map[string]SkillRules

// DefaultCorpus returns the rules shipped with t3nets
func DefaultCorpus() Corpus {
	return Corpus{
		"sprint_status": {
			Patterns: []string{
				`\bsprint\b`,
				`\bblock(ed|er|ing|s)?\b`,
				`\bon\s*track\b`,
				`\brelease\s*(status|ready)?\b`,
				`\bticket\b`,
				`\btask\b`,
				`\bstory\b`,
				`\bbug\b`,
				`\bissue\b`,
				`\bjira\b`,
				`\bhow.*doing\b.*\b(sprint|team)\b`,
				`\bwhat'?s?\s+(left|remaining|blocked)\b`,
				`\bare we\s+(on track|going to|behind|ahead)\b`,
				`\bburn\s*down\b`,
				`\bvelocity\b`,
				`\bscope\b`,
				`\bmy\b.*\b(ticket|task|work|item|issue|story|bug)\b`,
				`\b(ticket|task|work|item|issue)s?\b.*\b(mine|for me|assigned)\b`,
				`\bmy\b.*\bjira\b`,
				`\bjira\b.*\b(work|ticket|task|item)\b`,
				`\bwhat\b.*\b(am i|i am|i'm)\b.*\b(working|doing)\b`,
				`\bwhat.*\bi\s+(have|need)\b.*\b(do|finish|complete)\b`,
				`\bsprint\s*(status|health|progress|overview|update)\b`,
				`\b(status|health|progress)\b.*\bsprint\b`,
				`\bdelivery\b.*\b(timeline|risk|status)\b`,
			},
			Actions: []ActionRule{
				{`\bblock(ed|er|ing|s)?\b`, "blockers"},
				{`\bimpediment\b`, "blockers"},
				{`\bstuck\b`, "blockers"},
				{`\bflagged\b`, "blockers"},

				{`\bmy\b.*\b(ticket|task|work|item|issue|story|bug|stor(y|ies))\b`, "mine"},
				{`\b(ticket|task|work|item|issue)s?\b.*\b(for me|assigned to me|mine)\b`, "mine"},
				{`\bwhat\b.*\b(am i|i am|i'm)\b.*\b(working|doing)\b`, "mine"},
				{`\bassigned to me\b`, "mine"},
				{`\bmy\b.*\bjira\b`, "mine"},
				{`\bjira\b.*\bmy\b`, "mine"},
				{`\bwhat.*\bi\s+(have|need|should)\b`, "mine"},

				{`\bstatus\b`, "status"},
				{`\bsprint\b`, "status"},
				{`\btrack\b`, "status"},
				{`\bprogress\b`, "status"},
				{`\boverview\b`, "status"},
				{`\bhealth\b`, "status"},
				{`\bremaining\b`, "status"},
				{`\bhow.*we\b`, "status"},
				{`\bare we\b`, "status"},
				{`\brelease\b`, "status"},
				{`\bburn\s*down\b`, "status"},
				{`\bvelocity\b`, "status"},
				{`\bscope\b`, "status"},
				{`\bleft\b.*\bsprint\b`, "status"},
				{`\bsprint\b.*\bleft\b`, "status"},
			},
		},
		"meeting_prep": {
			Patterns: []string{
				`\bmeeting\b`,
				`\bagenda\b`,
				`\bbrief(ing)?\b`,
				`\b(next|upcoming)\s+(call|sync|standup|meeting)\b`,
			},
			Actions: []ActionRule{
				{`\b(next|upcoming)\s+meeting\b`, "prepare"},
				{`\bmeeting\b.*\b(prep|prepare|brief|ready)\b`, "prepare"},
				{`\bbrief\s*(me|ing)\b`, "prepare"},
				{`\bagenda\b`, "agenda"},
				{`\btopics?\b.*\bmeeting\b`, "agenda"},
			},
		},
		"email_triage": {
			Patterns: []string{
				`\b(inbox|email|mail)\b`,
				`\bunread\b`,
				`\b(urgent|important)\s+(email|message)\b`,
			},
			Actions: []ActionRule{
				{`\b(urgent|important|priority)\b.*\b(email|message|mail)\b`, "priority"},
				{`\b(email|message|mail)\b.*\b(urgent|important|priority)\b`, "priority"},
				{`\binbox\b`, "summary"},
				{`\b(unread|new)\b.*\b(email|message|mail)\b`, "summary"},
				{`\bemail\b`, "summary"},
				{`\bmail\b`, "summary"},
			},
		},
	}
}
