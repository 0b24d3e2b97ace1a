package handlers

import (
	"net/http"

	"github.com/facilidevis/facilidevis/httpx"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/services"
)

type ClientHandler struct {
	clients *services.ClientService
	log     logging.Logger
}

func NewClientHandler(clients *services.ClientService, log logging.Logger) *ClientHandler {
	return &ClientHandler{clients: clients, log: log}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	clients, err := h.clients.List(r.Context(), uid)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": clients})
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	var in services.ClientInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.clients.Create(r.Context(), uid, in)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *ClientHandler) View(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	c, err := h.clients.Get(r.Context(), r.PathValue("id"), uid)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	if err := h.clients.Delete(r.Context(), r.PathValue("id"), uid); err != nil {
		fail(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
