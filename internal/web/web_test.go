package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"edu-portal/internal/auth"
)

func TestRenderImagesEscapesBeforeLinking(t *testing.T) {
	got := string(RenderImages("Intro <b>bold</b>\n[img]https://cdn.example.com/a.png\n[img]javascript:alert(1)"))

	if strings.Contains(got, "<b>") {
		t.Fatalf("markup should be escaped: %q", got)
	}
	if !strings.Contains(got, `<img src="https://cdn.example.com/a.png"`) {
		t.Fatalf("http image should be linked: %q", got)
	}
	if strings.Contains(got, `src="javascript:`) {
		t.Fatalf("non-http scheme must stay text: %q", got)
	}
}

func TestRenderImagesCannotBreakAttribute(t *testing.T) {
	got := string(RenderImages(`[img]https://x.test/a.png"onerror="alert(1)`))
	if strings.Contains(got, `"onerror="`) {
		t.Fatalf("quote escaped out of src: %q", got)
	}
}

func TestRendererConsumesFlashesAndShowsIdentity(t *testing.T) {
	sessions := auth.NewSessions("0123456789abcdef0123456789abcdef", false)
	rd, err := NewRenderer(sessions, nil)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	// queue a flash
	rec := httptest.NewRecorder()
	rd.Redirect(rec, httptest.NewRequest(http.MethodGet, "/", nil), "/", "Feedback trimis!")
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{Email: "ana@example.com", Name: "Ana", IsAdmin: true}))
	rec = httptest.NewRecorder()
	rd.HTML(rec, req, http.StatusOK, "home", "Acasă", nil)

	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d want=200", rec.Code)
	}
	for _, want := range []string{"Feedback trimis!", "Ana", `href="/admin"`, "Acasă | Rookie Lab"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestRendererUnknownPage(t *testing.T) {
	rd, err := NewRenderer(nil, nil)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	rec := httptest.NewRecorder()
	rd.HTML(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "missing", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got=%d want=500", rec.Code)
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	h := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if len(rec.Header().Get(RequestIDHeader)) != 36 {
		t.Fatalf("expected a uuid request id, got %q", rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != "upstream-id" || rec.Code != http.StatusTeapot {
		t.Fatalf("got=%d id=%q", rec.Code, rec.Header().Get(RequestIDHeader))
	}
}
