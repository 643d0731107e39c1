package account

import (
	"net/http"

	"edu-portal/internal/auth"
	"edu-portal/internal/web"
	"edu-portal/pkg/logger"
)

type Handler struct {
	service *Service
	render  *web.Renderer
	log     *logger.Logger
}

func NewHandler(service *Service, render *web.Renderer, log *logger.Logger) *Handler {
	return &Handler{service: service, render: render, log: logger.OrNop(log)}
}

func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	if id == nil {
		h.render.Redirect(w, r, "/login", "Please log in to view your account.")
		return
	}
	sum, err := h.service.Summary(id)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "account", "Contul meu", sum)
}
