// internal/auth/service.go
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"edu-portal/pkg/logger"
)

var (
	ErrNotConfigured = errors.New("login is not configured")
	ErrNonceMissing  = errors.New("nonce missing")
	ErrLoginFailed   = errors.New("login failed")
	ErrInvalidClaim  = errors.New("invalid claim")
)

type Service struct {
	repo     *Repository
	provider Provider
	log      *logger.Logger
}

// NewService accepts a nil provider; login routes then answer with ErrNotConfigured.
func NewService(repo *Repository, provider Provider, log *logger.Logger) *Service {
	return &Service{repo: repo, provider: provider, log: logger.OrNop(log)}
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// StartLogin creates a fresh state and nonce and the URL to send the user to.
func (s *Service) StartLogin() (authURL, state, nonce string, err error) {
	if s.provider == nil {
		return "", "", "", ErrNotConfigured
	}
	if state, err = randomHex(16); err != nil {
		return "", "", "", err
	}
	if nonce, err = randomHex(16); err != nil {
		return "", "", "", err
	}
	return s.provider.AuthCodeURL(state, nonce), state, nonce, nil
}

// CompleteLogin finishes the authorization-code flow. wantState and
// wantNonce are the values taken from the session for this callback.
func (s *Service) CompleteLogin(ctx context.Context, wantState, wantNonce, gotState, code string) (*Identity, error) {
	if wantNonce == "" {
		return nil, ErrNonceMissing
	}
	if s.provider == nil {
		return nil, ErrNotConfigured
	}
	if gotState == "" || gotState != wantState {
		return nil, fmt.Errorf("%w: mismatching_state: CSRF Warning! State not equal in request and response.", ErrLoginFailed)
	}

	claims, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if claims.Nonce != wantNonce {
		return nil, fmt.Errorf("%w: invalid_claim: Invalid claim \"nonce\"", ErrInvalidClaim)
	}

	id := &Identity{Subject: claims.Subject, Email: claims.Email, Name: claims.Name}
	admin, err := s.repo.IsAdmin(claims.Email)
	if err != nil {
		s.log.Warn("admin lookup failed, continuing without admin role", "email", claims.Email, "error", err)
	}
	id.IsAdmin = admin

	s.log.Info("user logged in", "sub", id.Subject, "email", id.Email, "admin", id.IsAdmin)
	return id, nil
}
