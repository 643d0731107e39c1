// internal/auth/provider.go
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// IDClaims are the verified ID token claims the portal keeps.
type IDClaims struct {
	Subject string
	Email   string
	Name    string
	Nonce   string
}

// Provider is the authorization-code side of the identity provider.
type Provider interface {
	AuthCodeURL(state, nonce string) string
	Exchange(ctx context.Context, code string) (*IDClaims, error)
}

type OIDCProvider struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewOIDCProvider runs discovery against issuerURL.
func NewOIDCProvider(ctx context.Context, issuerURL, clientID, clientSecret, redirectURL string) (*OIDCProvider, error) {
	p, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery %s: %w", issuerURL, err)
	}
	return &OIDCProvider{
		oauth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     p.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: p.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

// AuthCodeURL always asks the provider to show its login screen.
func (p *OIDCProvider) AuthCodeURL(state, nonce string) string {
	return p.oauth.AuthCodeURL(state, oidc.Nonce(nonce), oauth2.SetAuthURLParam("prompt", "login"))
}

func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*IDClaims, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, errors.New("token response has no id_token")
	}
	idt, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var extra struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idt.Claims(&extra); err != nil {
		return nil, fmt.Errorf("decode id_token claims: %w", err)
	}
	return &IDClaims{
		Subject: idt.Subject,
		Email:   extra.Email,
		Name:    extra.Name,
		Nonce:   idt.Nonce,
	}, nil
}
