package handlers

import (
	"net/http"
	"time"

	"github.com/facilidevis/facilidevis/httpx"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/reminders"
)

// ReminderHandler is called by the external scheduler (cron) with the
// shared secret.
type ReminderHandler struct {
	scheduler *reminders.Scheduler
	log       logging.Logger
	now       func() time.Time
}

func NewReminderHandler(scheduler *reminders.Scheduler, log logging.Logger) *ReminderHandler {
	return &ReminderHandler{scheduler: scheduler, log: log, now: time.Now}
}

func (h *ReminderHandler) Process(w http.ResponseWriter, r *http.Request) {
	report, err := h.scheduler.ProcessDue(r.Context(), h.now().UTC())
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	h.log.Info(r.Context(), "reminders processed", "processed", report.Processed)
	httpx.JSON(w, http.StatusOK, report)
}
