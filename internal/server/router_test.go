package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"edu-portal/internal/account"
	"edu-portal/internal/assistant"
	"edu-portal/internal/auth"
	"edu-portal/internal/feedback"
	"edu-portal/internal/lesson"
	"edu-portal/internal/models"
	"edu-portal/internal/quiz"
	"edu-portal/internal/simulation"
	"edu-portal/internal/testutil"
	"edu-portal/internal/web"
	"edu-portal/pkg/fetch"
	"edu-portal/pkg/pdfgen"
	"edu-portal/pkg/preview"
	"edu-portal/pkg/websocket"

	"gorm.io/gorm"
)

type staticVerifier struct {
	claims *auth.Claims
}

func (v staticVerifier) Verify(ctx context.Context, raw string) (*auth.Claims, error) {
	if raw != "good" {
		return nil, auth.ErrInvalidToken
	}
	return v.claims, nil
}

type noopRasterizer struct{}

func (noopRasterizer) RenderFirstPage(ctx context.Context, pdfPath, outPath string) error {
	return os.WriteFile(outPath, nil, 0o644)
}

type routerFixture struct {
	handler  http.Handler
	sessions *auth.Sessions
	db       *gorm.DB
	static   string
}

func newRouterFixture(t *testing.T, verifier auth.TokenVerifier) *routerFixture {
	t.Helper()
	db := testutil.NewDB(t)
	sessions := testutil.NewSessions()
	render, err := web.NewRenderer(sessions, nil)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	static := t.TempDir()
	fetcher := fetch.New(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub(nil)
	go hub.Run(ctx)

	authRepo := auth.NewRepository(db, nil)
	if err := authRepo.SeedAdmins([]string{testutil.Admin().Email}); err != nil {
		t.Fatalf("seed admins: %v", err)
	}
	feedbackRepo := feedback.NewRepository(db, nil)
	previews := preview.NewCache(static, fetcher, noopRasterizer{}, 10, nil)
	quizSvc := quiz.NewService(quiz.NewRepository(db, nil), nil, hub, fetcher, nil)

	h := NewRouter(Deps{
		Sessions:    sessions,
		Verifier:    verifier,
		AdminRepo:   authRepo,
		Render:      render,
		Auth:        auth.NewHandler(auth.NewService(authRepo, nil, nil), sessions, nil),
		Lessons:     lesson.NewHandler(lesson.NewService(lesson.NewRepository(db, nil), pdfgen.New(fetcher), static, nil), render, nil),
		Simulations: simulation.NewHandler(simulation.NewRepository(db, nil), previews, feedbackRepo, render, nil),
		Quizzes:     quiz.NewHandler(quizSvc, render, nil),
		Feedback:    feedback.NewHandler(feedbackRepo, render),
		Account:     account.NewHandler(account.NewService(account.NewRepository(db, nil), nil), render, nil),
		Assistant:   assistant.NewHandler(nil, nil),
		Hub:         hub,
		StaticDir:   static,
	})
	return &routerFixture{handler: h, sessions: sessions, db: db, static: static}
}

func (f *routerFixture) do(t *testing.T, req *http.Request, id *auth.Identity) *httptest.ResponseRecorder {
	t.Helper()
	if id != nil {
		req.AddCookie(testutil.LoginCookie(t, f.sessions, id))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesAreGuarded(t *testing.T) {
	f := newRouterFixture(t, nil)
	routes := []string{"/admin", "/admin/lessons", "/admin/interactive-lessons", "/ws/admin/results"}

	for _, path := range routes {
		for _, id := range []*auth.Identity{nil, testutil.Student()} {
			rec := f.do(t, httptest.NewRequest(http.MethodGet, path, nil), id)
			assertDenied(t, f, rec, path)
		}
	}

	for _, path := range routes[:3] {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, path, nil), testutil.Admin())
		if rec.Code != http.StatusOK {
			t.Fatalf("%s as admin: got=%d", path, rec.Code)
		}
	}
}

func TestAdminPostsAreGuarded(t *testing.T) {
	f := newRouterFixture(t, nil)
	forms := map[string]url.Values{
		"/admin":                     {"title": {"T"}, "link": {"https://x/s.pdf"}, "description": {"D"}},
		"/admin/lessons":             {"title": {"T"}, "content": {"C"}, "grade": {"6"}},
		"/admin/interactive-lessons": {"title": {"T"}, "content": {"C"}, "grade": {"6"}, "questions": {"[]"}},
	}

	for path, form := range forms {
		for _, id := range []*auth.Identity{nil, testutil.Student()} {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			assertDenied(t, f, f.do(t, req, id), path)
		}
	}

	for _, model := range []interface{}{&models.Simulation{}, &models.Lesson{}, &models.InteractiveLesson{}} {
		var n int64
		f.db.Model(model).Count(&n)
		if n != 0 {
			t.Fatalf("%T rows created by a denied post: %d", model, n)
		}
	}
}

func TestAdminRoleIsReadFromStore(t *testing.T) {
	f := newRouterFixture(t, nil)

	// A session minted while the user was an admin loses access once the row goes.
	f.db.Where("email = ?", testutil.Admin().Email).Delete(&models.Admin{})
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), testutil.Admin())
	assertDenied(t, f, rec, "/admin")

	// And a promotion applies without logging in again.
	f.db.Create(&models.Admin{Email: testutil.Student().Email})
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), testutil.Student())
	if rec.Code != http.StatusOK {
		t.Fatalf("promoted student: got=%d", rec.Code)
	}
}

func assertDenied(t *testing.T, f *routerFixture, rec *httptest.ResponseRecorder, path string) {
	t.Helper()
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("%s: got=%d location=%q", path, rec.Code, rec.Header().Get("Location"))
	}
	got := testutil.Flashes(t, f.sessions, rec)
	if len(got) != 1 || got[0] != "You don't have permission to access this page." {
		t.Fatalf("%s flashes: %v", path, got)
	}
}

func TestPublicPages(t *testing.T) {
	f := newRouterFixture(t, nil)
	for _, path := range []string{"/", "/policy", "/terms", "/contact", "/lessons", "/simulari", "/interactive-lessons"} {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, path, nil), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: got=%d", path, rec.Code)
		}
		if rec.Header().Get(web.RequestIDHeader) == "" {
			t.Fatalf("%s: missing request id", path)
		}
	}

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), nil)
	if rec.Body.String() != "OK" {
		t.Fatalf("health: %q", rec.Body.String())
	}

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/login", nil), nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("login without provider: got=%d", rec.Code)
	}
}

func TestStaticFiles(t *testing.T) {
	f := newRouterFixture(t, nil)
	if err := os.MkdirAll(filepath.Join(f.static, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.static, "images", "logo.txt"), []byte("logo"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/static/images/logo.txt", nil), nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "logo" {
		t.Fatalf("static: got=%d %q", rec.Code, rec.Body.String())
	}
}

func TestCADProxyPreflight(t *testing.T) {
	f := newRouterFixture(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/cad-proxy/1", nil)
	req.Header.Set("Origin", "https://3dviewer.net")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "Range")

	rec := f.do(t, req, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight: got=%d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin: %q", got)
	}
}

func TestBearerTokenOnAPI(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{claims: &auth.Claims{Subject: "api|1", Email: "bot@example.com"}})
	lesson := models.InteractiveLesson{Title: "Gears", Content: "c", Grade: 6}
	f.db.Create(&lesson)

	req := httptest.NewRequest(http.MethodGet, "/api/quiz/1", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := f.do(t, req, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/submit-quiz",
		jsonBody(t, map[string]interface{}{"lesson_id": lesson.ID, "score": 2, "total_questions": 3}))
	req.Header.Set("Authorization", "Bearer good")
	rec = f.do(t, req, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer submit: got=%d %s", rec.Code, rec.Body.String())
	}
	var stored models.QuizResult
	if err := f.db.First(&stored).Error; err != nil || stored.UserEmail != "bot@example.com" {
		t.Fatalf("stored: %+v err=%v", stored, err)
	}

	// Pages never look at the Authorization header.
	req = httptest.NewRequest(http.MethodGet, "/account", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = f.do(t, req, nil)
	if rec.Header().Get("Location") != "/login" {
		t.Fatalf("account with bearer: got=%d", rec.Code)
	}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(raw)
}
