// internal/auth/handler.go
package auth

import (
	"errors"
	"net/http"
	"strings"

	"edu-portal/pkg/logger"
)

type Handler struct {
	service  *Service
	sessions *Sessions
	log      *logger.Logger
}

func NewHandler(service *Service, sessions *Sessions, log *logger.Logger) *Handler {
	return &Handler{service: service, sessions: sessions, log: logger.OrNop(log)}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	authURL, state, nonce, err := h.service.StartLogin()
	if err != nil {
		h.log.Error("cannot start login", "error", err)
		http.Error(w, "Login failed: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err := h.sessions.BeginLogin(w, r, state, nonce); err != nil {
		h.log.Error("cannot store login nonce", "error", err)
		http.Error(w, "Login failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	wantState, wantNonce, err := h.sessions.TakeLogin(w, r)
	if err != nil {
		h.log.Warn("session save failed during callback", "error", err)
	}

	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" && wantNonce != "" {
		msg := providerErr
		if desc := q.Get("error_description"); desc != "" {
			msg += ": " + desc
		}
		http.Error(w, "Login failed: "+msg, http.StatusBadRequest)
		return
	}

	id, err := h.service.CompleteLogin(r.Context(), wantState, wantNonce, q.Get("state"), q.Get("code"))
	switch {
	case errors.Is(err, ErrNonceMissing):
		http.Error(w, "Error: Nonce missing. Please try logging in again.", http.StatusBadRequest)
		return
	case errors.Is(err, ErrInvalidClaim):
		h.log.Warn("callback rejected", "error", err)
		http.Error(w, "Invalid claim: "+trimSentinel(err, ErrInvalidClaim), http.StatusBadRequest)
		return
	case err != nil:
		h.log.Warn("callback rejected", "error", err)
		http.Error(w, "Login failed: "+trimSentinel(err, ErrLoginFailed), http.StatusBadRequest)
		return
	}

	if err := h.sessions.SetIdentity(w, r, id); err != nil {
		h.log.Error("cannot store identity in session", "error", err)
		http.Error(w, "Login failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r, "Logged out!"); err != nil {
		h.log.Warn("session clear failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// trimSentinel drops the "<sentinel>: " prefix so the user sees the cause.
func trimSentinel(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
