// Package reminders schedules the fixed reminder batch of a quote and
// processes reminders once they fall due.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/lifecycle"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/store"
)

// Offsets are the delays after quote creation at which reminders fall due,
// in sequence order.
var Offsets = []time.Duration{
	3 * 24 * time.Hour,
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
}

// Outcome statuses reported per processed reminder.
const (
	OutcomeSent  = "sent"
	OutcomeError = "error"
)

// Nudger sends the reminder message to the client of q.
type Nudger interface {
	Nudge(ctx context.Context, q *models.Quote, r models.Reminder) error
}

// Outcome is the result of processing one reminder.
type Outcome struct {
	ReminderID string `json:"reminderId"`
	QuoteID    string `json:"quoteId"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// Report summarizes a ProcessDue run.
type Report struct {
	Processed int       `json:"processed"`
	Results   []Outcome `json:"results"`
}

// Scheduler owns reminder creation and processing.
type Scheduler struct {
	store  store.Store
	engine *lifecycle.Engine
	nudger Nudger
	log    logging.Logger
}

// NewScheduler builds a scheduler. nudger may be nil, in which case due
// reminders only advance the quote status.
func NewScheduler(s store.Store, engine *lifecycle.Engine, nudger Nudger, log logging.Logger) *Scheduler {
	return &Scheduler{store: s, engine: engine, nudger: nudger, log: log}
}

// In returns a scheduler bound to another store, typically a transaction.
func (s *Scheduler) In(st store.Store) *Scheduler {
	cp := *s
	cp.store = st
	cp.engine = s.engine.In(st)
	return &cp
}

// Schedule creates the three pending email reminders of a quote. It does
// nothing when enabled is false and returns common.ErrAlreadyScheduled if
// the quote already has reminders.
func (s *Scheduler) Schedule(ctx context.Context, quoteID string, ownerID uint, createdAt time.Time, enabled bool) ([]models.Reminder, error) {
	if !enabled {
		return nil, nil
	}

	n, err := s.store.Reminders().CountForQuote(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("count reminders: %w", err)
	}
	if n > 0 {
		return nil, fmt.Errorf("quote %s: %w", quoteID, common.ErrAlreadyScheduled)
	}

	base := createdAt.UTC()
	batch := make([]models.Reminder, len(Offsets))
	for i, off := range Offsets {
		batch[i] = models.Reminder{
			ID:      models.NewID(),
			QuoteID: quoteID,
			UserID:  ownerID,
			Seq:     i + 1,
			DueAt:   base.Add(off),
			Channel: models.ChannelEmail,
			Status:  models.ReminderStatusPending,
		}
	}
	if err := s.store.Reminders().CreateBatch(ctx, batch); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return nil, fmt.Errorf("quote %s: %w", quoteID, common.ErrAlreadyScheduled)
		}
		return nil, fmt.Errorf("create reminders: %w", err)
	}
	return batch, nil
}

// ProcessDue handles every pending reminder due at now. One failing item
// never aborts the batch. Reminders claimed by a concurrent run are skipped
// and left out of the report.
func (s *Scheduler) ProcessDue(ctx context.Context, now time.Time) (Report, error) {
	due, err := s.store.Reminders().FindDue(ctx, now.UTC())
	if err != nil {
		return Report{}, fmt.Errorf("find due reminders: %w", err)
	}

	report := Report{Results: make([]Outcome, 0, len(due))}
	for _, r := range due {
		out, claimed := s.process(ctx, r, now.UTC())
		if !claimed {
			continue
		}
		report.Results = append(report.Results, out)
	}
	report.Processed = len(report.Results)

	s.log.Info(ctx, "reminders processed", "due", len(due), "processed", report.Processed)
	return report, nil
}

func (s *Scheduler) process(ctx context.Context, r models.Reminder, now time.Time) (Outcome, bool) {
	out := Outcome{ReminderID: r.ID, QuoteID: r.QuoteID, Status: OutcomeSent}
	fail := func(err error) (Outcome, bool) {
		s.log.Warn(ctx, "reminder failed", "reminder_id", r.ID, "quote_id", r.QuoteID, "error", err)
		out.Status = OutcomeError
		out.Error = err.Error()
		return out, true
	}

	q, err := s.store.Quotes().GetByID(ctx, r.QuoteID, r.UserID)
	if err != nil {
		return fail(fmt.Errorf("load quote: %w", err))
	}

	// The claim and the transition commit together: a failed transition
	// leaves the reminder pending for the next run.
	var claimed bool
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		ok, err := tx.Reminders().MarkDone(ctx, r.ID, now)
		if err != nil {
			return fmt.Errorf("mark done: %w", err)
		}
		if !ok {
			return nil
		}
		res, err := s.engine.In(tx).MarkReminded(ctx, lifecycle.Owned(q.ID, q.UserID))
		if err != nil {
			return fmt.Errorf("mark reminded: %w", err)
		}
		claimed, q = true, res.Quote
		return nil
	})
	if err != nil {
		return fail(err)
	}
	if !claimed {
		return out, false
	}

	if s.nudger != nil && !q.IsDraft() && q.IsOpen() {
		if err := s.nudger.Nudge(ctx, q, r); err != nil {
			return fail(fmt.Errorf("nudge: %w", err))
		}
	}
	return out, true
}
