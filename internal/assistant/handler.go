package assistant

import (
	"encoding/json"
	"errors"
	"net/http"

	"edu-portal/internal/web"
	"edu-portal/pkg/logger"
)

var ErrNotConfigured = errors.New("assistant is not configured")

type Handler struct {
	gen Generator
	log *logger.Logger
}

// NewHandler accepts a nil generator; chat requests then fail with 500.
func NewHandler(gen Generator, log *logger.Logger) *Handler {
	return &Handler{gen: gen, log: logger.OrNop(log).With("component", "assistant")}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}
	if h.gen == nil {
		web.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": ErrNotConfigured.Error()})
		return
	}

	reply, err := h.gen.Generate(r.Context(), BuildPrompt(req))
	if err != nil {
		h.log.Error("chat generation failed", "lesson", req.LessonTitle, "error", err)
		web.JSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}
	web.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "response": reply})
}
