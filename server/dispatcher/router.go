package dispatcher

import (
	"strings"
)

// Intent classifies a user turn into one of a fixed set of handling paths.
type Intent string

const (
	// IntentTask creates a task page in the task collaborator.
	IntentTask Intent = "task"
	// IntentEvent inserts an event into the calendar collaborator.
	IntentEvent Intent = "event"
	// IntentEmail classifies a pasted email into a task or an event.
	IntentEmail Intent = "email"
	// IntentChat falls through to a generic conversational reply.
	IntentChat Intent = "chat"
	// IntentUnavailable means no collaborator can serve the turn.
	IntentUnavailable Intent = "unavailable"
)

// Availability reports which collaborators are configured. Routing is a pure
// function over (utterance, availability): identical inputs always yield the
// same intent.
type Availability struct {
	Task       bool
	Calendar   bool
	Completion bool
}

type routeRule struct {
	intent   Intent
	keywords []string
	requires func(Availability) bool
}

// Router decides which branch handles an utterance. Rules are evaluated in
// fixed priority order and the first match wins: an utterance containing
// both a task keyword and a calendar keyword always routes to Task.
// Swapping rule order changes observable behavior.
type Router struct {
	rules []routeRule
}

// NewRouter creates a router with the fixed rule order.
func NewRouter() *Router {
	return &Router{
		rules: []routeRule{
			{
				intent:   IntentTask,
				keywords: []string{"notion", "task", "タスク"},
				requires: func(a Availability) bool { return a.Task },
			},
			{
				intent:   IntentEvent,
				keywords: []string{"calendar", "schedule", "event", "カレンダー", "予定"},
				requires: func(a Availability) bool { return a.Calendar },
			},
			{
				intent:   IntentEmail,
				keywords: []string{"email", "mail", "メール"},
			},
		},
	}
}

// Route evaluates the rules top to bottom against the case-folded utterance.
// No keyword match falls through to Chat when a completion collaborator is
// configured, otherwise Unavailable.
func (r *Router) Route(utterance string, avail Availability) Intent {
	lower := strings.ToLower(utterance)

	for _, rule := range r.rules {
		if rule.requires != nil && !rule.requires(avail) {
			continue
		}
		if containsAny(lower, rule.keywords) {
			return rule.intent
		}
	}

	if avail.Completion {
		return IntentChat
	}
	return IntentUnavailable
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
