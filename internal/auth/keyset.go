// internal/auth/keyset.go
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"edu-portal/pkg/fetch"
	"edu-portal/pkg/logger"

	"github.com/dgrijalva/jwt-go"
	jose "github.com/go-jose/go-jose/v4"
	"golang.org/x/sync/singleflight"
)

var (
	ErrBearerRejected  = errors.New("bearer token rejected")
	ErrTokenExpired    = fmt.Errorf("%w: token is expired", ErrBearerRejected)
	ErrIncorrectClaims = fmt.Errorf("%w: incorrect claims, please check the audience and issuer", ErrBearerRejected)
	ErrInvalidToken    = fmt.Errorf("%w: unable to parse authentication token", ErrBearerRejected)
	ErrNoMatchingKey   = fmt.Errorf("%w: unable to find appropriate key", ErrBearerRejected)
)

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

type Claims struct {
	Subject string
	Email   string
	Name    string
	Raw     jwt.MapClaims
}

type KeySource interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// KeySetVerifier validates RS256 access tokens against the provider's
// published key set. The set is cached for ttl; a token signed with an
// unknown key forces a refresh at most once per minRefresh.
type KeySetVerifier struct {
	jwksURL    string
	audience   string
	issuer     string
	algorithms []string
	ttl        time.Duration
	minRefresh time.Duration
	source     KeySource
	now        func() time.Time

	mu        sync.RWMutex
	keys      *jose.JSONWebKeySet
	fetchedAt time.Time
	group     singleflight.Group

	log *logger.Logger
}

func NewKeySetVerifier(source KeySource, jwksURL, audience, issuer string, algorithms []string, ttl time.Duration, log *logger.Logger) *KeySetVerifier {
	if len(algorithms) == 0 {
		algorithms = []string{"RS256"}
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &KeySetVerifier{
		jwksURL:    jwksURL,
		audience:   audience,
		issuer:     issuer,
		algorithms: algorithms,
		ttl:        ttl,
		minRefresh: 30 * time.Second,
		source:     source,
		now:        time.Now,
		log:        logger.OrNop(log).With("component", "jwks"),
	}
}

func (v *KeySetVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	parser := &jwt.Parser{ValidMethods: v.algorithms}

	unverified, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, ErrInvalidToken
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, ErrNoMatchingKey
	}

	key, err := v.key(ctx, kid)
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if !audienceMatches(claims["aud"], v.audience) || !claims.VerifyIssuer(v.issuer, true) {
		return nil, ErrIncorrectClaims
	}

	out := &Claims{Raw: claims}
	out.Subject, _ = claims["sub"].(string)
	out.Email, _ = claims["email"].(string)
	out.Name, _ = claims["name"].(string)
	return out, nil
}

// aud may be a single string or a list.
func audienceMatches(aud interface{}, want string) bool {
	switch a := aud.(type) {
	case string:
		return a == want
	case []interface{}:
		for _, item := range a {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

func (v *KeySetVerifier) key(ctx context.Context, kid string) (interface{}, error) {
	v.mu.RLock()
	keys, fetchedAt := v.keys, v.fetchedAt
	v.mu.RUnlock()

	age := v.now().Sub(fetchedAt)
	if keys != nil && age < v.ttl {
		if k := signingKey(keys, kid); k != nil {
			return k, nil
		}
		if age < v.minRefresh {
			return nil, ErrNoMatchingKey
		}
	}

	keys, err := v.refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if k := signingKey(keys, kid); k != nil {
		return k, nil
	}
	return nil, ErrNoMatchingKey
}

func (v *KeySetVerifier) refresh(ctx context.Context) (*jose.JSONWebKeySet, error) {
	res, err, _ := v.group.Do("jwks", func() (interface{}, error) {
		resp, err := v.source.Get(ctx, v.jwksURL)
		if err != nil {
			v.log.Warn("jwks fetch failed", "url", v.jwksURL, "error", err)
			return nil, fmt.Errorf("fetch jwks: %w", err)
		}
		var set jose.JSONWebKeySet
		if err := json.Unmarshal(resp.Body, &set); err != nil {
			return nil, fmt.Errorf("decode jwks: %w", err)
		}

		v.mu.Lock()
		v.keys = &set
		v.fetchedAt = v.now()
		v.mu.Unlock()

		v.log.Debug("jwks refreshed", "keys", len(set.Keys))
		return &set, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*jose.JSONWebKeySet), nil
}

func signingKey(set *jose.JSONWebKeySet, kid string) interface{} {
	for _, k := range set.Key(kid) {
		if k.Use == "" || strings.EqualFold(k.Use, "sig") {
			return k.Key
		}
	}
	return nil
}
