// internal/auth/middleware.go
package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// LoadIdentity puts the session identity, if any, into the request context.
func LoadIdentity(s *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := s.Identity(r); id != nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RefreshAdmin re-reads the admin capability from the admins table on every
// request, so granting or revoking a role applies to live sessions at once.
// A failed lookup denies the capability.
func RefreshAdmin(repo *Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFrom(r.Context())
			if id == nil || repo == nil {
				next.ServeHTTP(w, r)
				return
			}
			isAdmin, err := repo.IsAdmin(id.Email)
			if err != nil {
				isAdmin = false
			}
			if isAdmin != id.IsAdmin {
				refreshed := *id
				refreshed.IsAdmin = isAdmin
				r = r.WithContext(WithIdentity(r.Context(), &refreshed))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerIdentity lets API clients authenticate with a provider-issued access
// token instead of the session cookie. Requests without an Authorization
// header pass through untouched.
func BearerIdentity(v TokenVerifier, repo *Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			bearerToken := strings.Split(authHeader, " ")
			if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "Bearer") {
				writeAuthError(w, "invalid_header", "Authorization header must be Bearer token")
				return
			}

			claims, err := v.Verify(r.Context(), bearerToken[1])
			if err != nil {
				writeAuthError(w, bearerCode(err), err.Error())
				return
			}

			id := &Identity{Subject: claims.Subject, Email: claims.Email, Name: claims.Name}
			if repo != nil && id.Email != "" {
				id.IsAdmin, _ = repo.IsAdmin(id.Email)
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerCode(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrIncorrectClaims):
		return "invalid_claims"
	default:
		return "invalid_header"
	}
}

func writeAuthError(w http.ResponseWriter, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}

// RequireAdmin guards admin pages; everyone else is sent home with a flash.
func RequireAdmin(s *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IdentityFrom(r.Context()).CanAdminister() {
				_ = s.Flash(w, r, "You don't have permission to access this page.")
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
