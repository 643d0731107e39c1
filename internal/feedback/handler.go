// internal/feedback/handler.go
package feedback

import (
	"net/http"
	"strings"

	"edu-portal/internal/models"
	"edu-portal/internal/web"

	"github.com/go-playground/validator/v10"
)

type Handler struct {
	repo      *Repository
	render    *web.Renderer
	validator *validator.Validate
}

func NewHandler(repo *Repository, render *web.Renderer) *Handler {
	return &Handler{repo: repo, render: render, validator: validator.New()}
}

type contactForm struct {
	Message string `validate:"required"`
	Email   string `validate:"required"`
}

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.render.HTML(w, r, http.StatusOK, "contact", "Contact", nil)
		return
	}

	form := contactForm{
		Message: strings.TrimSpace(r.PostFormValue("message")),
		Email:   strings.TrimSpace(r.PostFormValue("email")),
	}
	if err := h.validator.Struct(form); err != nil {
		h.render.Redirect(w, r, "/contact", "All fields are required!")
		return
	}
	if err := h.repo.Create(&models.Feedback{Message: form.Message, Email: form.Email}); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render.Redirect(w, r, "/contact", "Feedback trimis!")
}
