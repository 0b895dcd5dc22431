// Package security guards the HTTP surface with a single static bearer
// token. There is no user-facing login here; callers are trusted dashboard
// backends, authenticated once per request.
package security

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerAuth checks the Authorization header against the configured token.
// Disabled auth admits every request, for deployments that bind only to a
// local unix socket.
type BearerAuth struct {
	Enabled bool
	Token   string
}

// Authorize reports whether r carries the configured token. The comparison
// is constant-time so the token cannot be probed byte by byte.
func (a BearerAuth) Authorize(r *http.Request) bool {
	if !a.Enabled {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	candidate := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if len(candidate) != len(a.Token) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(a.Token)) == 1
}
