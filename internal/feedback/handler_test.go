package feedback

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"edu-portal/internal/testutil"
	"edu-portal/internal/web"
)

func TestContact(t *testing.T) {
	db := testutil.NewDB(t)
	sessions := testutil.NewSessions()
	render, err := web.NewRenderer(sessions, nil)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	repo := NewRepository(db, nil)
	h := NewHandler(repo, render)

	rec := httptest.NewRecorder()
	h.Contact(rec, httptest.NewRequest(http.MethodGet, "/contact", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="message"`) {
		t.Fatalf("form: got=%d", rec.Code)
	}

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.Contact(rec, req)
		return rec
	}

	rec = post(url.Values{"message": {"  "}, "email": {"a@b.ro"}})
	if got := testutil.Flashes(t, sessions, rec); len(got) != 1 || got[0] != "All fields are required!" {
		t.Fatalf("flashes: got=%v", got)
	}

	rec = post(url.Values{"message": {"Super platforma"}, "email": {"a@b.ro"}})
	if got := testutil.Flashes(t, sessions, rec); len(got) != 1 || got[0] != "Feedback trimis!" {
		t.Fatalf("flashes: got=%v", got)
	}
	items, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Email != "a@b.ro" {
		t.Fatalf("stored feedback: %+v", items)
	}
}
