package ws

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// tokenFresh reports whether a cached connection token is still worth
// presenting. The token is a JWT issued by the backend; the client does
// not hold the signing key, so the check is an unverified read of the
// exp claim with a small safety margin. Anything unparsable is treated
// as stale and re-fetched.
func tokenFresh(token string) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	parser := &jwt.Parser{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	cmp := time.Now().Add(10 * time.Second).Unix()
	return claims.VerifyExpiresAt(cmp, true)
}
