package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// GradeParam reads ?grade=N; anything unparsable means no filter.
func GradeParam(r *http.Request) int {
	grade, err := strconv.Atoi(r.URL.Query().Get("grade"))
	if err != nil {
		return 0
	}
	return grade
}

// IDParam parses the {id} route variable.
func IDParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// BaseURL is the scheme and host the client used to reach the portal,
// honouring X-Forwarded-Proto and X-Forwarded-Host from a reverse proxy.
func BaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := firstHeaderValue(r, "X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	host := r.Host
	if h := firstHeaderValue(r, "X-Forwarded-Host"); h != "" {
		host = h
	}
	return scheme + "://" + host
}

func firstHeaderValue(r *http.Request, key string) string {
	v := r.Header.Get(key)
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}
