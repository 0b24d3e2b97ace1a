package handlers

import (
	"net/http"

	"github.com/facilidevis/facilidevis/auth"
	"github.com/facilidevis/facilidevis/httpx"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/services"
)

type AuthHandler struct {
	accounts *services.AccountService
	sessions *auth.Sessions
	log      logging.Logger
}

func NewAuthHandler(accounts *services.AccountService, sessions *auth.Sessions, log logging.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, log: log}
}

type sessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if !decode(w, r, &in) {
		return
	}
	user, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	h.startSession(w, r, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !decode(w, r, &in) {
		return
	}
	user, err := h.accounts.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	h.startSession(w, r, http.StatusOK, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, err := h.sessions.CreateSession(w, user.ID)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, status, sessionResponse{User: user, Token: token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	user, err := h.accounts.Get(r.Context(), uid)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
