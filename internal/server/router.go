// Package server wires every handler into the portal's route table.
package server

import (
	"net/http"

	"edu-portal/internal/account"
	"edu-portal/internal/assistant"
	"edu-portal/internal/auth"
	"edu-portal/internal/feedback"
	"edu-portal/internal/lesson"
	"edu-portal/internal/quiz"
	"edu-portal/internal/simulation"
	"edu-portal/internal/web"
	"edu-portal/pkg/logger"
	"edu-portal/pkg/websocket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type Deps struct {
	Sessions *auth.Sessions
	// Verifier enables bearer tokens on /api; nil keeps the API cookie-only.
	Verifier  auth.TokenVerifier
	AdminRepo *auth.Repository
	Render    *web.Renderer

	Auth        *auth.Handler
	Lessons     *lesson.Handler
	Simulations *simulation.Handler
	Quizzes     *quiz.Handler
	Feedback    *feedback.Handler
	Account     *account.Handler
	Assistant   *assistant.Handler
	Hub         *websocket.Hub

	StaticDir string
	Log       *logger.Logger
}

// cadCORS answers cross-origin preflights for the CAD proxy only.
var cadCORS = cors.New(cors.Options{
	AllowedOrigins: []string{"*"},
	AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	AllowedHeaders: []string{"Content-Type", "Range"},
	ExposedHeaders: []string{"Content-Length", "Accept-Ranges"},
	MaxAge:         300,
})

func NewRouter(d Deps) http.Handler {
	router := mux.NewRouter()
	router.Use(auth.LoadIdentity(d.Sessions), auth.RefreshAdmin(d.AdminRepo))
	admin := auth.RequireAdmin(d.Sessions)

	// Pages
	router.HandleFunc("/", d.Render.Page("home", "Acasă")).Methods("GET")
	router.HandleFunc("/policy", d.Render.Page("policy", "Politica de confidențialitate")).Methods("GET")
	router.HandleFunc("/terms", d.Render.Page("terms", "Termeni și condiții")).Methods("GET")
	router.HandleFunc("/contact", d.Feedback.Contact).Methods("GET", "POST")
	router.HandleFunc("/account", d.Account.Account).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		web.Text(w, http.StatusOK, "OK")
	}).Methods("GET")

	// Auth routes
	router.HandleFunc("/login", d.Auth.Login).Methods("GET")
	router.HandleFunc("/signup", d.Auth.Signup).Methods("GET")
	router.HandleFunc("/callback", d.Auth.Callback).Methods("GET")
	router.HandleFunc("/logout", d.Auth.Logout).Methods("GET")

	// Content
	router.HandleFunc("/lessons", d.Lessons.List).Methods("GET")
	router.HandleFunc("/lessons/{id:[0-9]+}", d.Lessons.View).Methods("GET")
	router.HandleFunc("/lessons/{id:[0-9]+}/pdf", d.Lessons.DownloadPDF).Methods("GET")
	router.HandleFunc("/simulari", d.Simulations.List).Methods("GET")
	router.HandleFunc("/simulare/{id:[0-9]+}", d.Simulations.View).Methods("GET")
	router.HandleFunc("/download_simul/{id:[0-9]+}", d.Simulations.DownloadSimulation).Methods("GET")
	router.HandleFunc("/download_solution/{id:[0-9]+}", d.Simulations.DownloadSolution).Methods("GET")
	router.HandleFunc("/interactive-lessons", d.Quizzes.List).Methods("GET")
	router.HandleFunc("/interactive-lesson/{id:[0-9]+}", d.Quizzes.View).Methods("GET")

	// Admin routes
	router.Handle("/admin", admin(http.HandlerFunc(d.Simulations.Admin))).Methods("GET", "POST")
	router.Handle("/admin/lessons", admin(http.HandlerFunc(d.Lessons.Admin))).Methods("GET", "POST")
	router.Handle("/admin/interactive-lessons", admin(http.HandlerFunc(d.Quizzes.Admin))).Methods("GET", "POST")
	router.Handle("/ws/admin/results", admin(http.HandlerFunc(d.Hub.HandleWebSocket))).Methods("GET")

	// API routes - session cookie or bearer token
	api := router.PathPrefix("/api").Subrouter()
	if d.Verifier != nil {
		api.Use(auth.BearerIdentity(d.Verifier, d.AdminRepo))
	}
	api.HandleFunc("/quiz/{id:[0-9]+}", d.Quizzes.GetQuiz).Methods("GET")
	api.HandleFunc("/submit-quiz", d.Quizzes.SubmitQuiz).Methods("POST")
	api.Handle("/cad-proxy/{id:[0-9]+}", cadCORS.Handler(http.HandlerFunc(d.Quizzes.CADProxy))).Methods("GET", "HEAD", "OPTIONS")
	api.HandleFunc("/cad-url/{id:[0-9]+}", d.Quizzes.CADURL).Methods("GET")
	api.HandleFunc("/chat-with-gemini", d.Assistant.Chat).Methods("POST")

	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(d.StaticDir))))

	return web.RequestLogger(d.Log)(router)
}
