package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"edu-portal/internal/auth"
	"edu-portal/pkg/fetch"

	"github.com/dgrijalva/jwt-go"
	jose "github.com/go-jose/go-jose/v4"
)

const (
	testAudience = "https://api.portal.test"
	testIssuer   = "https://tenant.example.com/"
)

type jwksFixture struct {
	key  *rsa.PrivateKey
	srv  *httptest.Server
	hits atomic.Int32
}

func newJWKS(t *testing.T) *jwksFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	f := &jwksFixture{key: key}
	set := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &key.PublicKey,
		KeyID:     "k1",
		Algorithm: "RS256",
		Use:       "sig",
	}}}
	body, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *jwksFixture) verifier() *auth.KeySetVerifier {
	return auth.NewKeySetVerifier(fetch.New(5*time.Second), f.srv.URL+"/.well-known/jwks.json",
		testAudience, testIssuer, []string{"RS256"}, time.Minute, nil)
}

func (f *jwksFixture) sign(t *testing.T, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	raw, err := tok.SignedString(f.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "auth0|42",
		"email": "ana@example.com",
		"aud":   testAudience,
		"iss":   testIssuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestKeySetVerifierAcceptsValidToken(t *testing.T) {
	f := newJWKS(t)
	v := f.verifier()

	claims, err := v.Verify(context.Background(), f.sign(t, "k1", baseClaims()))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "auth0|42" || claims.Email != "ana@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	multi := baseClaims()
	multi["aud"] = []string{"other", testAudience}
	if _, err := v.Verify(context.Background(), f.sign(t, "k1", multi)); err != nil {
		t.Fatalf("list audience: %v", err)
	}
	if got := f.hits.Load(); got != 1 {
		t.Fatalf("key set fetches: got=%d want=1", got)
	}
}

func TestKeySetVerifierRejections(t *testing.T) {
	f := newJWKS(t)
	v := f.verifier()

	expired := baseClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	wrongAud := baseClaims()
	wrongAud["aud"] = "https://elsewhere"
	wrongIss := baseClaims()
	wrongIss["iss"] = "https://evil.example.com/"

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", f.sign(t, "k1", expired), auth.ErrTokenExpired},
		{"audience", f.sign(t, "k1", wrongAud), auth.ErrIncorrectClaims},
		{"issuer", f.sign(t, "k1", wrongIss), auth.ErrIncorrectClaims},
		{"unknown kid", f.sign(t, "nope", baseClaims()), auth.ErrNoMatchingKey},
		{"garbage", "not.a.jwt", auth.ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tc.token)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got=%v want=%v", err, tc.want)
			}
			if !errors.Is(err, auth.ErrBearerRejected) {
				t.Fatalf("%v should be a bearer rejection", err)
			}
		})
	}
}

func TestBearerIdentityMiddleware(t *testing.T) {
	f := newJWKS(t)
	h := auth.BearerIdentity(f.verifier(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.IdentityFrom(r.Context())
		if id == nil {
			w.Write([]byte("anonymous"))
			return
		}
		w.Write([]byte(id.Email))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quiz/1", nil))
	if rec.Body.String() != "anonymous" {
		t.Fatalf("no header should pass through, got %q", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/quiz/1", nil)
	req.Header.Set("Authorization", "Bearer "+f.sign(t, "k1", baseClaims()))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ana@example.com" {
		t.Fatalf("got=%d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/quiz/1", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got=%d want=401", rec.Code)
	}
}
