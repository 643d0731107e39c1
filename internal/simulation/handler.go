// internal/simulation/handler.go
package simulation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"edu-portal/internal/auth"
	"edu-portal/internal/models"
	"edu-portal/internal/web"
	"edu-portal/pkg/logger"
	"edu-portal/pkg/preview"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const notFoundText = "Simularea nu a fost găsită."

// Previewer yields the static-relative path of a simulation's first page.
type Previewer interface {
	Ensure(ctx context.Context, id uint, link string) (string, error)
}

type FeedbackLister interface {
	List() ([]models.Feedback, error)
}

type Handler struct {
	repo      *Repository
	previews  Previewer
	feedback  FeedbackLister
	render    *web.Renderer
	validator *validator.Validate
	log       *logger.Logger
}

func NewHandler(repo *Repository, previews Previewer, feedback FeedbackLister, render *web.Renderer, log *logger.Logger) *Handler {
	return &Handler{
		repo:      repo,
		previews:  previews,
		feedback:  feedback,
		render:    render,
		validator: validator.New(),
		log:       logger.OrNop(log),
	}
}

type simulationForm struct {
	Title        string `validate:"required"`
	Link         string `validate:"required"`
	Description  string `validate:"required"`
	SolutionLink string
	Grade        int
}

// ViewData feeds the simulation page.
type ViewData struct {
	Simulation *models.Simulation
	IsLoggedIn bool
	ImagePath  string
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sims, err := h.repo.List()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "interactive", "Simulări", map[string]interface{}{"Simulations": sims})
}

func (h *Handler) lookup(r *http.Request) (*models.Simulation, bool) {
	id, ok := web.IDParam(r)
	if !ok {
		return nil, false
	}
	sim, err := h.repo.GetByID(id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.log.Error("loading simulation failed", "simulation_id", id, "error", err)
		}
		return nil, false
	}
	return sim, true
}

// View shows signed-in users the download links. Anonymous visitors get a
// first-page preview instead.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	sim, ok := h.lookup(r)
	if !ok {
		web.Text(w, http.StatusNotFound, notFoundText)
		return
	}

	data := ViewData{Simulation: sim, IsLoggedIn: auth.IdentityFrom(r.Context()) != nil}
	if !data.IsLoggedIn {
		path, err := h.previews.Ensure(r.Context(), sim.ID, sim.Link)
		switch {
		case errors.Is(err, preview.ErrDownload):
			h.render.Redirect(w, r, "/simulari", "Eroare la descărcarea fișierului PDF.")
			return
		case err != nil:
			h.render.Redirect(w, r, "/simulari", "Eroare la procesarea fișierului PDF.")
			return
		}
		data.ImagePath = path
	}
	h.render.HTML(w, r, http.StatusOK, "interactive_view", "Simulare", data)
}

func isHTTPLink(link string) bool {
	return strings.HasPrefix(link, "http")
}

func (h *Handler) DownloadSimulation(w http.ResponseWriter, r *http.Request) {
	sim, ok := h.lookup(r)
	if !ok {
		h.render.Redirect(w, r, "/simulari", notFoundText)
		return
	}
	if !isHTTPLink(sim.Link) {
		h.render.Redirect(w, r, "/simulari", "Invalid simulation link.")
		return
	}
	http.Redirect(w, r, sim.Link, http.StatusFound)
}

func (h *Handler) DownloadSolution(w http.ResponseWriter, r *http.Request) {
	sim, ok := h.lookup(r)
	if !ok {
		h.render.Redirect(w, r, "/simulari", notFoundText)
		return
	}
	if !isHTTPLink(sim.SolutionLink) {
		h.render.Redirect(w, r, "/simulari", "Invalid solution link.")
		return
	}
	if auth.IdentityFrom(r.Context()) == nil {
		h.render.Redirect(w, r, fmt.Sprintf("/simulare/%d", sim.ID), "Trebuie să fiți autentificat pentru a descărca soluția.")
		return
	}
	http.Redirect(w, r, sim.SolutionLink, http.StatusFound)
}

// Admin creates simulations and lists contact feedback.
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		h.create(w, r)
		return
	}
	items, err := h.feedback.List()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "admin", "Admin", map[string]interface{}{"Feedback": items})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	form := simulationForm{
		Title:        strings.TrimSpace(r.PostFormValue("title")),
		Link:         strings.TrimSpace(r.PostFormValue("link")),
		Description:  strings.TrimSpace(r.PostFormValue("description")),
		SolutionLink: strings.TrimSpace(r.PostFormValue("solution_link")),
		Grade:        models.DefaultSimulationGrade,
	}
	if raw := r.PostFormValue("grade"); raw != "" {
		if g, err := strconv.Atoi(raw); err == nil {
			form.Grade = g
		}
	}
	if err := h.validator.Struct(form); err != nil {
		h.render.Redirect(w, r, "/admin", "All fields are required!")
		return
	}

	sim := &models.Simulation{
		Title:        form.Title,
		Link:         form.Link,
		Description:  form.Description,
		SolutionLink: form.SolutionLink,
		Grade:        form.Grade,
	}
	if err := h.repo.Create(sim); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.log.Info("simulation created", "simulation_id", sim.ID, "grade", sim.Grade)
	h.render.Redirect(w, r, "/admin", "Interactive lesson uploaded successfully!")
}
