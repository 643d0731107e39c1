// internal/auth/session.go
package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionName = "portal_session"

const (
	keySubject = "sub"
	keyEmail   = "email"
	keyName    = "name"
	keyAdmin   = "is_admin"
	keyState   = "oauth_state"
	keyNonce   = "nonce"
)

// Sessions wraps the signed cookie store that holds identity, login nonce and
// flash messages.
type Sessions struct {
	store *sessions.CookieStore
}

func NewSessions(secret string, secure bool) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

// get never fails: an undecodable cookie yields a fresh session.
func (s *Sessions) get(r *http.Request) *sessions.Session {
	sess, _ := s.store.Get(r, sessionName)
	return sess
}

func (s *Sessions) Identity(r *http.Request) *Identity {
	sess := s.get(r)
	sub, _ := sess.Values[keySubject].(string)
	email, _ := sess.Values[keyEmail].(string)
	if sub == "" && email == "" {
		return nil
	}
	name, _ := sess.Values[keyName].(string)
	admin, _ := sess.Values[keyAdmin].(bool)
	return &Identity{Subject: sub, Email: email, Name: name, IsAdmin: admin}
}

func (s *Sessions) SetIdentity(w http.ResponseWriter, r *http.Request, id *Identity) error {
	sess := s.get(r)
	sess.Values[keySubject] = id.Subject
	sess.Values[keyEmail] = id.Email
	sess.Values[keyName] = id.Name
	sess.Values[keyAdmin] = id.IsAdmin
	return sess.Save(r, w)
}

// Clear drops everything in the session, then queues the given flashes.
func (s *Sessions) Clear(w http.ResponseWriter, r *http.Request, flashes ...string) error {
	sess := s.get(r)
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	for _, f := range flashes {
		sess.AddFlash(f)
	}
	return sess.Save(r, w)
}

func (s *Sessions) Flash(w http.ResponseWriter, r *http.Request, msg string) error {
	sess := s.get(r)
	sess.AddFlash(msg)
	return sess.Save(r, w)
}

// Flashes pops queued messages. It must run before the response body is written.
func (s *Sessions) Flashes(w http.ResponseWriter, r *http.Request) []string {
	sess := s.get(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save(r, w)
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

// BeginLogin remembers the state and nonce of an authorization request.
func (s *Sessions) BeginLogin(w http.ResponseWriter, r *http.Request, state, nonce string) error {
	sess := s.get(r)
	sess.Values[keyState] = state
	sess.Values[keyNonce] = nonce
	return sess.Save(r, w)
}

// TakeLogin reads and removes the pending state and nonce, so a callback can
// only be completed once.
func (s *Sessions) TakeLogin(w http.ResponseWriter, r *http.Request) (state, nonce string, err error) {
	sess := s.get(r)
	state, _ = sess.Values[keyState].(string)
	nonce, _ = sess.Values[keyNonce].(string)
	delete(sess.Values, keyState)
	delete(sess.Values, keyNonce)
	return state, nonce, sess.Save(r, w)
}
