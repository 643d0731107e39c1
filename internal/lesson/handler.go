// internal/lesson/handler.go
package lesson

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"edu-portal/internal/auth"
	"edu-portal/internal/web"
	"edu-portal/pkg/logger"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const notFoundText = "Lecția nu a fost găsită."

type Handler struct {
	service   *Service
	render    *web.Renderer
	validator *validator.Validate
	log       *logger.Logger
}

func NewHandler(service *Service, render *web.Renderer, log *logger.Logger) *Handler {
	return &Handler{service: service, render: render, validator: validator.New(), log: logger.OrNop(log)}
}

type lessonForm struct {
	Title   string `validate:"required"`
	Content string `validate:"required"`
	Grade   int    `validate:"required"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	grade := web.GradeParam(r)
	lessons, err := h.service.List(grade)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "lessons", "Lecții", map[string]interface{}{
		"Lessons": lessons,
		"Grade":   grade,
	})
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := web.IDParam(r)
	if !ok {
		web.Text(w, http.StatusNotFound, notFoundText)
		return
	}
	lesson, err := h.service.Get(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		web.Text(w, http.StatusNotFound, notFoundText)
		return
	}
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "view_lesson", lesson.Title, map[string]interface{}{"Lesson": lesson})
}

func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	if auth.IdentityFrom(r.Context()) == nil {
		h.render.Redirect(w, r, "/login", "Trebuie să fiți autentificat pentru a descărca PDF-ul.")
		return
	}
	id, ok := web.IDParam(r)
	if !ok {
		web.Text(w, http.StatusNotFound, notFoundText)
		return
	}
	lesson, err := h.service.Get(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		web.Text(w, http.StatusNotFound, notFoundText)
		return
	}
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data, err := h.service.RenderPDF(r.Context(), lesson)
	if err != nil {
		h.log.Error("lesson pdf render failed", "lesson_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": "lecția_" + lesson.Title + ".pdf",
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Admin lists every lesson and accepts new ones.
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		h.create(w, r)
		return
	}
	lessons, err := h.service.ListAll()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "admin_lessons", "Lecții", map[string]interface{}{"Lessons": lessons})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.Redirect(w, r, "/admin/lessons", "All fields are required!")
		return
	}
	grade, _ := strconv.Atoi(r.PostFormValue("grade"))
	form := lessonForm{
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
		Grade:   grade,
	}
	if err := h.validator.Struct(form); err != nil {
		h.render.Redirect(w, r, "/admin/lessons", "All fields are required!")
		return
	}

	if _, err := h.service.Create(r.Context(), form.Title, form.Content, form.Grade); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render.Redirect(w, r, "/admin/lessons", "Lecția a fost adăugată cu succes!")
}
