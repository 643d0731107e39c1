package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edu-portal/internal/account"
	"edu-portal/internal/assistant"
	"edu-portal/internal/auth"
	"edu-portal/internal/config"
	"edu-portal/internal/feedback"
	"edu-portal/internal/lesson"
	"edu-portal/internal/models"
	"edu-portal/internal/quiz"
	"edu-portal/internal/server"
	"edu-portal/internal/simulation"
	"edu-portal/internal/web"
	"edu-portal/pkg/cache"
	"edu-portal/pkg/database"
	"edu-portal/pkg/fetch"
	"edu-portal/pkg/logger"
	"edu-portal/pkg/pdfgen"
	"edu-portal/pkg/preview"
	"edu-portal/pkg/websocket"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	generated, err := cfg.EnsureSessionSecret()
	if err != nil {
		log.Fatal("Refusing to start", "error", err)
	}
	if generated {
		log.Warn("SESSION_SECRET not set, using a random key; sessions end on restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Open(&database.Config{
		Driver:     cfg.DB.Driver,
		Host:       cfg.DB.Host,
		Port:       cfg.DB.Port,
		User:       cfg.DB.User,
		Password:   cfg.DB.Password,
		DBName:     cfg.DB.Name,
		SSLMode:    cfg.DB.SSLMode,
		DSN:        cfg.DB.DSN,
		SQLitePath: cfg.DB.SQLitePath,
		Quiet:      cfg.IsProduction(),
	})
	if err != nil {
		log.Fatal("Failed to connect to database", "driver", cfg.DB.Driver, "error", err)
	}
	if err := database.Migrate(db, models.All()...); err != nil {
		log.Fatal("Failed to migrate database", "error", err)
	}

	authRepo := auth.NewRepository(db, log)
	if err := authRepo.SeedAdmins(cfg.AdminEmails); err != nil {
		log.Fatal("Failed to seed admins", "error", err)
	}

	fetcher := fetch.New(cfg.FetchTimeout)

	// Redis is optional; without it quizzes are read from the database every time.
	var quizCache quiz.QuizCache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn("Redis unreachable, quiz cache disabled", "addr", cfg.RedisAddr, "error", err)
			redisCache.Close()
		} else {
			defer redisCache.Close()
			quizCache = redisCache
		}
	}

	var provider auth.Provider
	if cfg.Auth0Domain != "" {
		p, err := auth.NewOIDCProvider(ctx, cfg.IssuerURL(), cfg.Auth0ClientID, cfg.Auth0ClientSecret, cfg.Auth0CallbackURL)
		if err != nil {
			log.Warn("Identity provider unavailable, login disabled", "domain", cfg.Auth0Domain, "error", err)
		} else {
			provider = p
		}
	} else {
		log.Warn("AUTH0_DOMAIN not set, login disabled")
	}

	var verifier auth.TokenVerifier
	if cfg.APIAudience != "" && cfg.JWKSURL() != "" {
		verifier = auth.NewKeySetVerifier(fetcher, cfg.JWKSURL(), cfg.APIAudience, cfg.Issuer, cfg.Algorithms, cfg.JWKSCacheTTL, log)
	}

	var generator assistant.Generator
	if cfg.GeminiAPIKey != "" {
		g, err := assistant.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Warn("Assistant unavailable", "error", err)
		} else {
			generator = g
		}
	}

	rasterizer := preview.NewPdftoppm(cfg.PdftoppmPath, cfg.PreviewDPI)
	if err := rasterizer.AssertReady(); err != nil {
		log.Warn("Simulation previews will fail", "error", err)
	}
	previews := preview.NewCache(cfg.StaticDir, fetcher, rasterizer, cfg.PreviewMaxEntries, log)

	pdfOpts := []pdfgen.Option{pdfgen.WithLogger(log)}
	if cfg.PDFFontPath != "" {
		pdfOpts = append(pdfOpts, pdfgen.WithUTF8Font(cfg.PDFFontPath))
	}
	pdf := pdfgen.New(fetcher, pdfOpts...)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run(ctx)

	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionSecure)
	render, err := web.NewRenderer(sessions, log)
	if err != nil {
		log.Fatal("Failed to parse templates", "error", err)
	}

	// Initialize repositories and services
	feedbackRepo := feedback.NewRepository(db, log)
	authService := auth.NewService(authRepo, provider, log)
	lessonService := lesson.NewService(lesson.NewRepository(db, log), pdf, cfg.StaticDir, log)
	quizService := quiz.NewService(quiz.NewRepository(db, log), quizCache, wsHub, fetcher, log)
	accountService := account.NewService(account.NewRepository(db, log), log)

	handler := server.NewRouter(server.Deps{
		Sessions:    sessions,
		Verifier:    verifier,
		AdminRepo:   authRepo,
		Render:      render,
		Auth:        auth.NewHandler(authService, sessions, log),
		Lessons:     lesson.NewHandler(lessonService, render, log),
		Simulations: simulation.NewHandler(simulation.NewRepository(db, log), previews, feedbackRepo, render, log),
		Quizzes:     quiz.NewHandler(quizService, render, log).WithPublicBaseURL(cfg.PublicBaseURL),
		Feedback:    feedback.NewHandler(feedbackRepo, render),
		Account:     account.NewHandler(accountService, render, log),
		Assistant:   assistant.NewHandler(generator, log),
		Hub:         wsHub,
		StaticDir:   cfg.StaticDir,
		Log:         log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	log.Info("Server shutdown gracefully")
}
