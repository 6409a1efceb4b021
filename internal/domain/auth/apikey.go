// Package auth defines API key lookup and the per-request identity that a
// validated key resolves to. Every business row is tenant-scoped, so the
// tenant on the key decides what a request can see.
package auth

import "context"

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID       string
	TenantID string
	StoreID  string
	KeyHash  string
	Name     string
	Scopes   []string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// Identity is the authenticated scope attached to a request context.
type Identity struct {
	KeyID    string
	TenantID string
	StoreID  string
}

type identityKey struct{}

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom extracts the authenticated identity from the context.
// The second return is false when the request was not authenticated.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
