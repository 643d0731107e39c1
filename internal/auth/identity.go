// internal/auth/identity.go
package auth

import "context"

// Identity is the signed-in user for one request.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// CanAdminister is safe to call on a nil identity.
func (i *Identity) CanAdminister() bool {
	return i != nil && i.IsAdmin
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns nil for anonymous requests.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
