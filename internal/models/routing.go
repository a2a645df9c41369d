// ABOUTME: Route labels recorded for every handled message
// ABOUTME: Identifies which tier produced a reply (conversation, rule match, model tool use)
package models

// Route identifies the handling tier that produced a reply
type Route string

const (
	// RouteConversational - Social chit-chat answered by the model without tools
	RouteConversational Route = "conversational"

	// RouteRule - Skill picked by trigger/pattern scoring, no model routing call
	RouteRule Route = "rule"

	// RouteAI - Model chose (or declined) a tool from the tenant's enabled skills
	RouteAI Route = "ai"
)

// Valid reports whether r is one of the known routes
func (r Route) Valid() bool {
	switch r {
	case RouteConversational, RouteRule, RouteAI:
		return true
	}
	return false
}
