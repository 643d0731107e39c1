// Package testutil holds helpers shared by handler tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"edu-portal/internal/auth"
	"edu-portal/internal/models"
	"edu-portal/pkg/database"

	"gorm.io/gorm"
)

const SessionSecret = "test-session-secret-0123456789abcdef"

// NewDB opens a migrated sqlite database in a temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&database.Config{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		Quiet:      true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db, models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func NewSessions() *auth.Sessions {
	return auth.NewSessions(SessionSecret, false)
}

// LoginCookie returns a session cookie carrying id.
func LoginCookie(t *testing.T, s *auth.Sessions, id *auth.Identity) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := s.SetIdentity(rec, req, id); err != nil {
		t.Fatalf("set identity: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no session cookie written")
	}
	return cookies[len(cookies)-1]
}

// Student and Admin are the identities used across handler tests.
func Student() *auth.Identity {
	return &auth.Identity{Subject: "auth0|student", Email: "student@example.com", Name: "Student"}
}

func Admin() *auth.Identity {
	return &auth.Identity{Subject: "auth0|admin", Email: "admin@example.com", Name: "Admin", IsAdmin: true}
}

// Flashes reads the flash messages carried by the cookies of a response.
func Flashes(t *testing.T, s *auth.Sessions, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if c := LastCookie(rec); c != nil {
		req.AddCookie(c)
	}
	return s.Flashes(httptest.NewRecorder(), req)
}

// LastCookie is the final session cookie a response set; earlier ones are
// superseded by the browser.
func LastCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	var last *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "portal_session" {
			last = c
		}
	}
	return last
}
