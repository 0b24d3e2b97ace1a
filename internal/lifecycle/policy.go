// Package lifecycle owns the quote state machine. Every status change goes
// through Engine, which consults the policy table below and writes through
// the store's version-checked UpdateStatus.
package lifecycle

import (
	"time"

	"github.com/facilidevis/facilidevis/internal/models"
)

// Event is something that happened to a quote.
type Event string

const (
	EventDelivered   Event = "delivered"    // email or SMS dispatch succeeded
	EventViewed      Event = "viewed"       // recipient opened the quote link
	EventReminderDue Event = "reminder_due" // a scheduled reminder was processed
	EventAccepted    Event = "accepted"     // recipient accepted
	EventRefused     Event = "refused"      // no route triggers this yet
)

// Decision is how the engine reacts to an event in a given status.
type Decision int

const (
	// Reject fails with common.ErrInvalidTransition.
	Reject Decision = iota
	// NoOp leaves the quote untouched and succeeds.
	NoOp
	// Apply writes the rule's target status and timestamps.
	Apply
)

func (d Decision) String() string {
	switch d {
	case NoOp:
		return "noop"
	case Apply:
		return "apply"
	default:
		return "reject"
	}
}

// Rule is one cell of the policy table. To is only meaningful for Apply.
type Rule struct {
	Decision Decision
	To       models.QuoteStatus
}

func apply(to models.QuoteStatus) Rule { return Rule{Decision: Apply, To: to} }

var noop = Rule{Decision: NoOp}
var reject = Rule{Decision: Reject}

// Policy is the complete transition table. Missing cells reject.
//
// Re-delivering a quote never changes its status; it only stamps lastSentAt,
// including on accepted and refused quotes. Viewing anything but a sent quote
// is a silent no-op. Terminal quotes cannot be accepted or refused again.
var Policy = map[models.QuoteStatus]map[Event]Rule{
	models.QuoteStatusDraft: {
		EventDelivered:   apply(models.QuoteStatusSent),
		EventViewed:      noop,
		EventReminderDue: noop,
		EventAccepted:    apply(models.QuoteStatusAccepted), // never sent; kept pending product review
		EventRefused:     apply(models.QuoteStatusRefused),
	},
	models.QuoteStatusSent: {
		EventDelivered:   apply(models.QuoteStatusSent),
		EventViewed:      apply(models.QuoteStatusViewed),
		EventReminderDue: apply(models.QuoteStatusReminded),
		EventAccepted:    apply(models.QuoteStatusAccepted),
		EventRefused:     apply(models.QuoteStatusRefused),
	},
	models.QuoteStatusViewed: {
		EventDelivered:   apply(models.QuoteStatusViewed),
		EventViewed:      noop,
		EventReminderDue: apply(models.QuoteStatusReminded),
		EventAccepted:    apply(models.QuoteStatusAccepted),
		EventRefused:     apply(models.QuoteStatusRefused),
	},
	models.QuoteStatusReminded: {
		EventDelivered:   apply(models.QuoteStatusReminded),
		EventViewed:      noop,
		EventReminderDue: noop,
		EventAccepted:    apply(models.QuoteStatusAccepted),
		EventRefused:     apply(models.QuoteStatusRefused),
	},
	models.QuoteStatusAccepted: {
		EventDelivered:   apply(models.QuoteStatusAccepted),
		EventViewed:      noop,
		EventReminderDue: noop,
		EventAccepted:    reject,
		EventRefused:     reject,
	},
	models.QuoteStatusRefused: {
		EventDelivered:   apply(models.QuoteStatusRefused),
		EventViewed:      noop,
		EventReminderDue: noop,
		EventAccepted:    reject,
		EventRefused:     reject,
	},
}

// Decide looks up the rule for an event in the given status.
func Decide(from models.QuoteStatus, ev Event) Rule {
	if row, ok := Policy[from]; ok {
		if rule, ok := row[ev]; ok {
			return rule
		}
	}
	return reject
}

// patchFor builds the write for an applied rule. Timestamps that are set
// once (sentAt, viewedAt) keep their first value.
func patchFor(q *models.Quote, rule Rule, ev Event, now time.Time) models.QuoteStatusPatch {
	p := models.QuoteStatusPatch{Status: rule.To}
	switch ev {
	case EventDelivered:
		if q.SentAt == nil {
			p.SentAt = &now
		}
		p.LastSentAt = &now
	case EventViewed:
		if q.ViewedAt == nil {
			p.ViewedAt = &now
		}
	case EventAccepted:
		p.AcceptedAt = &now
	case EventRefused:
		p.RefusedAt = &now
	}
	return p
}
