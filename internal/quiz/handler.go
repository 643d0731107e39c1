// internal/quiz/handler.go
package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"edu-portal/internal/auth"
	"edu-portal/internal/models"
	"edu-portal/internal/web"
	"edu-portal/pkg/logger"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CADViewerURL is the third-party viewer embedded on lesson pages. The model
// URL in its fragment must be absolute since the viewer runs on its own origin.
const CADViewerURL = "https://3dviewer.net/embed.html#model="

type Handler struct {
	service       *Service
	render        *web.Renderer
	validator     *validator.Validate
	publicBaseURL string
	log           *logger.Logger
}

func NewHandler(service *Service, render *web.Renderer, log *logger.Logger) *Handler {
	return &Handler{service: service, render: render, validator: validator.New(), log: logger.OrNop(log)}
}

// WithPublicBaseURL fixes the origin used in viewer embeds instead of
// deriving it from each request.
func (h *Handler) WithPublicBaseURL(base string) *Handler {
	h.publicBaseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	return h
}

// ModelURL is the absolute proxy URL of a lesson's CAD file.
func (h *Handler) ModelURL(r *http.Request, lessonID uint) string {
	base := h.publicBaseURL
	if base == "" {
		base = web.BaseURL(r)
	}
	return fmt.Sprintf("%s/api/cad-proxy/%d", base, lessonID)
}

// SubmitRequest is the body of a quiz submission. Score is a pointer so that
// a score of zero still counts as present.
type SubmitRequest struct {
	LessonID       uint `json:"lesson_id" validate:"required"`
	Score          *int `json:"score" validate:"required"`
	TotalQuestions int  `json:"total_questions" validate:"required"`
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
	h.render.HTML(w, r, http.StatusOK, "interactive_lessons", "Lecții interactive", map[string]interface{}{
		"Lessons": lessons,
		"Grade":   grade,
	})
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := web.IDParam(r)
	if !ok {
		web.Text(w, http.StatusNotFound, "Interactive lesson not found.")
		return
	}
	lesson, err := h.service.Get(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		web.Text(w, http.StatusNotFound, "Interactive lesson not found.")
		return
	}
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "interactive_lesson_view", lesson.Title, map[string]interface{}{
		"Lesson":    lesson,
		"ViewerURL": template.URL(CADViewerURL + h.ModelURL(r, lesson.ID)),
	})
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := web.IDParam(r)
	if !ok {
		web.JSONError(w, http.StatusNotFound, "No quiz available")
		return
	}
	quiz, err := h.service.GetQuiz(r.Context(), id)
	switch {
	case errors.Is(err, models.ErrNoQuiz):
		web.JSONError(w, http.StatusNotFound, "No quiz available")
	case errors.Is(err, ErrInvalidQuiz):
		web.JSONError(w, http.StatusInternalServerError, "Invalid quiz data")
	case err != nil:
		web.JSONError(w, http.StatusInternalServerError, "Internal server error")
	default:
		web.JSON(w, http.StatusOK, quiz)
	}
}

func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	if id == nil {
		web.JSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.JSONError(w, http.StatusBadRequest, "Missing required data")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		web.JSONError(w, http.StatusBadRequest, "Missing required data")
		return
	}

	email := id.Email
	if email == "" {
		email = "unknown"
	}
	_, err := h.service.SubmitResult(email, req.LessonID, *req.Score, req.TotalQuestions)
	if errors.Is(err, ErrLessonNotFound) {
		web.JSONError(w, http.StatusNotFound, "Interactive lesson not found.")
		return
	}
	if err != nil {
		web.JSONError(w, http.StatusInternalServerError, "Could not save quiz result")
		return
	}
	web.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "score": *req.Score})
}

// CADProxy re-serves a lesson's CAD file with permissive CORS headers so
// browser-based viewers on other origins can load it.
func (h *Handler) CADProxy(w http.ResponseWriter, r *http.Request) {
	setCADHeaders(w.Header())
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	id, ok := web.IDParam(r)
	if !ok {
		web.Text(w, http.StatusNotFound, "CAD file not found")
		return
	}
	resp, err := h.service.FetchCADFile(r.Context(), id)
	if errors.Is(err, ErrNoCADFile) {
		web.Text(w, http.StatusNotFound, "CAD file not found")
		return
	}
	if err != nil {
		h.log.Warn("cad fetch failed", "lesson_id", id, "error", err)
		web.Text(w, http.StatusInternalServerError, "Error fetching CAD file: "+err.Error())
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.Header().Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Body)
}

func setCADHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Range")
}

func (h *Handler) CADURL(w http.ResponseWriter, r *http.Request) {
	id, ok := web.IDParam(r)
	if !ok {
		web.JSONError(w, http.StatusNotFound, "CAD file not found")
		return
	}
	url, err := h.service.CADFileURL(id)
	if errors.Is(err, ErrNoCADFile) {
		web.JSONError(w, http.StatusNotFound, "CAD file not found")
		return
	}
	if err != nil {
		web.JSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	web.JSON(w, http.StatusOK, map[string]string{"url": url})
}

// Admin lists interactive lessons and accepts new ones. Questions arrive as
// a single JSON array in the "questions" field.
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
	h.render.HTML(w, r, http.StatusOK, "admin_interactive_lessons", "Lecții interactive", map[string]interface{}{"Lessons": lessons})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	grade, _ := strconv.Atoi(r.PostFormValue("grade"))
	form := lessonForm{
		Title:   strings.TrimSpace(r.PostFormValue("title")),
		Content: r.PostFormValue("content"),
		Grade:   grade,
	}
	if err := h.validator.Struct(form); err != nil {
		h.render.Redirect(w, r, "/admin/interactive-lessons", "All fields are required!")
		return
	}

	var questions []models.QuizQuestion
	if raw := strings.TrimSpace(r.PostFormValue("questions")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &questions); err != nil {
			h.render.Redirect(w, r, "/admin/interactive-lessons", "Invalid quiz questions: "+err.Error())
			return
		}
	}

	_, err := h.service.CreateLesson(form.Title, form.Content, form.Grade, strings.TrimSpace(r.PostFormValue("cad_file_url")), questions)
	if errors.Is(err, ErrInvalidQuestions) {
		h.render.Redirect(w, r, "/admin/interactive-lessons", "Invalid quiz questions: "+strings.TrimPrefix(err.Error(), ErrInvalidQuestions.Error()+": "))
		return
	}
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render.Redirect(w, r, "/admin/interactive-lessons", "Interactive lesson added successfully!")
}
