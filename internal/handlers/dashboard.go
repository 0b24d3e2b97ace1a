package handlers

import (
	"net/http"

	"github.com/facilidevis/facilidevis/httpx"
	"github.com/facilidevis/facilidevis/internal/delivery"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/services"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
	log       logging.Logger
}

func NewDashboardHandler(dashboard *services.DashboardService, log logging.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, log: log}
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	d, err := h.dashboard.Get(r.Context(), uid)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

// ChannelReporter describes the configured delivery channels.
type ChannelReporter interface {
	Status() []delivery.ChannelStatus
}

// DeliverySettings lets the artisan see which channels really send and
// which are simulated.
func DeliverySettings(channels ChannelReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]any{"channels": channels.Status()})
	}
}
