package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/facilidevis/facilidevis/internal/models"
)

var allEvents = []Event{EventDelivered, EventViewed, EventReminderDue, EventAccepted, EventRefused}

func TestPolicy_CoversEveryCell(t *testing.T) {
	for _, status := range models.QuoteStatuses {
		row, ok := Policy[status]
		if !assert.True(t, ok, "missing row for %s", status) {
			continue
		}
		for _, ev := range allEvents {
			_, ok := row[ev]
			assert.True(t, ok, "missing cell %s/%s", status, ev)
		}
	}
}

func TestPolicy_Monotonic(t *testing.T) {
	rank := map[models.QuoteStatus]int{}
	for i, s := range models.QuoteStatuses {
		rank[s] = i
	}
	for from, row := range Policy {
		for ev, rule := range row {
			if rule.Decision != Apply {
				continue
			}
			assert.GreaterOrEqual(t, rank[rule.To], rank[from], "%s --%s--> %s moves backwards", from, ev, rule.To)
			if from.IsTerminal() {
				assert.Equal(t, from, rule.To, "terminal %s must not be left", from)
			}
		}
	}
}

func TestDecide_UnknownStatusRejects(t *testing.T) {
	assert.Equal(t, Reject, Decide("archived", EventViewed).Decision)
}

func TestPatchFor(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	p := patchFor(&models.Quote{}, apply(models.QuoteStatusSent), EventDelivered, now)
	assert.Equal(t, &now, p.SentAt)
	assert.Equal(t, &now, p.LastSentAt)

	p = patchFor(&models.Quote{SentAt: &earlier}, apply(models.QuoteStatusSent), EventDelivered, now)
	assert.Nil(t, p.SentAt)
	assert.Equal(t, &now, p.LastSentAt)

	p = patchFor(&models.Quote{}, apply(models.QuoteStatusAccepted), EventAccepted, now)
	assert.Equal(t, models.QuoteStatusAccepted, p.Status)
	assert.Equal(t, &now, p.AcceptedAt)
	assert.Nil(t, p.ViewedAt)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "apply", Apply.String())
	assert.Equal(t, "noop", NoOp.String())
	assert.Equal(t, "reject", Reject.String())
}
