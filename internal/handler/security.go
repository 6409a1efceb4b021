package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/PriyanshuKanyal37/retail-pos-management-sub000/internal/domain/auth"
)

// apiKeyHeader carries the client credential on every API request.
const apiKeyHeader = "api_key"

// SecurityHandler authenticates API requests via HMAC-SHA256 hashed API
// keys. Keys are stored as hex HMAC digests, so a database leak exposes no
// usable credentials.
type SecurityHandler struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurityHandler creates a SecurityHandler with the given API key
// repository and HMAC pepper.
func NewSecurityHandler(apikeys auth.Repository, pepper []byte) *SecurityHandler {
	return &SecurityHandler{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Middleware rejects requests without a valid API key and attaches the
// key's tenant and store scope to the request context.
func (s *SecurityHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		mac := hmac.New(sha256.New, s.pepper)
		mac.Write([]byte(key))
		hash := mac.Sum(nil)

		info, err := s.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		// Constant-time comparison to prevent timing attacks.
		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := auth.WithIdentity(r.Context(), auth.Identity{
			KeyID:    info.ID,
			TenantID: info.TenantID,
			StoreID:  info.StoreID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
