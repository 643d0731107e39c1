package lesson

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"edu-portal/internal/auth"
	"edu-portal/internal/models"
	"edu-portal/internal/testutil"
	"edu-portal/internal/web"
	"edu-portal/pkg/fetch"
	"edu-portal/pkg/pdfgen"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	router    *mux.Router
	sessions  *auth.Sessions
	staticDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	sessions := testutil.NewSessions()
	render, err := web.NewRenderer(sessions, nil)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	staticDir := filepath.Join(t.TempDir(), "static")
	gen := pdfgen.New(fetch.New(2*time.Second), pdfgen.WithCompression(false))
	h := NewHandler(NewService(NewRepository(db, nil), gen, staticDir, nil), render, nil)

	r := mux.NewRouter()
	r.Use(auth.LoadIdentity(sessions))
	r.HandleFunc("/lessons", h.List).Methods("GET")
	r.HandleFunc("/lessons/{id:[0-9]+}", h.View).Methods("GET")
	r.HandleFunc("/lessons/{id:[0-9]+}/pdf", h.DownloadPDF).Methods("GET")
	r.HandleFunc("/admin/lessons", h.Admin).Methods("GET", "POST")
	return &fixture{db: db, router: r, sessions: sessions, staticDir: staticDir}
}

func (f *fixture) serve(req *http.Request, id *auth.Identity, t *testing.T) *httptest.ResponseRecorder {
	if id != nil {
		req.AddCookie(testutil.LoginCookie(t, f.sessions, id))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRepositoryListExcerpts(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRepository(db, nil)

	long := strings.Repeat("a", 700)
	for _, l := range []models.Lesson{
		{Title: "Old", Content: long, Grade: 6},
		{Title: "New", Content: "short", Grade: 8},
	} {
		l := l
		if err := repo.Create(&l); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := repo.ListExcerpts(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Title != "New" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if got := len(all[1].Content); got != ExcerptLength {
		t.Fatalf("excerpt length: got=%d want=%d", got, ExcerptLength)
	}

	cad, err := repo.ListExcerpts(6)
	if err != nil {
		t.Fatalf("list grade: %v", err)
	}
	if len(cad) != 1 || cad[0].Title != "Old" {
		t.Fatalf("grade filter: got %+v", cad)
	}
}

func TestViewNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.serve(httptest.NewRequest(http.MethodGet, "/lessons/99", nil), nil, t)
	if rec.Code != http.StatusNotFound || rec.Body.String() != "Lecția nu a fost găsită." {
		t.Fatalf("got=%d %q", rec.Code, rec.Body.String())
	}
}

func TestViewRendersImages(t *testing.T) {
	f := newFixture(t)
	f.db.Create(&models.Lesson{Title: "CAD 101", Content: "Intro\n[img]https://cdn.example.com/a.png", Grade: 6})

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/lessons/1", nil), nil, t)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `<img src="https://cdn.example.com/a.png"`) {
		t.Fatalf("image not rendered")
	}
}

func TestDownloadPDF(t *testing.T) {
	f := newFixture(t)
	f.db.Create(&models.Lesson{Title: "Intro", Content: "line one\nline two", Grade: 8})

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/lessons/1/pdf", nil), nil, t)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("anonymous: got=%d location=%q", rec.Code, rec.Header().Get("Location"))
	}
	if flashes := testutil.Flashes(t, f.sessions, rec); len(flashes) != 1 {
		t.Fatalf("expected a login flash, got %v", flashes)
	}

	rec = f.serve(httptest.NewRequest(http.MethodGet, "/lessons/2/pdf", nil), testutil.Student(), t)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing lesson: got=%d", rec.Code)
	}

	rec = f.serve(httptest.NewRequest(http.MethodGet, "/lessons/1/pdf", nil), testutil.Student(), t)
	if rec.Code != http.StatusOK {
		t.Fatalf("download: got=%d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("body is not a pdf")
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, "lec%C8%9Bia_Intro.pdf") {
		t.Fatalf("content disposition: %q", cd)
	}
}

func TestAdminCreateLesson(t *testing.T) {
	f := newFixture(t)

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/lessons", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return f.serve(req, testutil.Admin(), t)
	}

	rec := post(url.Values{"title": {"Only title"}})
	if flashes := testutil.Flashes(t, f.sessions, rec); len(flashes) != 1 || flashes[0] != "All fields are required!" {
		t.Fatalf("flashes: got=%v", flashes)
	}

	rec = post(url.Values{"title": {"Arduino basics"}, "content": {"Blink a LED"}, "grade": {"7"}})
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/lessons" {
		t.Fatalf("create: got=%d", rec.Code)
	}
	var count int64
	f.db.Model(&models.Lesson{}).Count(&count)
	if count != 1 {
		t.Fatalf("lessons stored: got=%d want=1", count)
	}
	if _, err := os.Stat(filepath.Join(f.staticDir, "lesson_Arduino_basics.pdf")); err != nil {
		t.Fatalf("static export missing: %v", err)
	}
}
