package clinic

import (
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Role identifies which portal a session belongs to. The two roles hold
// independent tokens and may be logged in concurrently.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
)

// Roles lists all known roles in a stable order.
var Roles = []Role{RoleAdmin, RoleDoctor}

// Valid reports whether r names a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDoctor
}

// ParseRole converts a user-supplied string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q (want admin or doctor)", ErrInvalidRole, s)
	}
	return r, nil
}

// header returns the request header that carries this role's token. The
// backend matches header names case-insensitively.
func (r Role) header() string {
	if r == RoleAdmin {
		return "Atoken"
	}
	return "Dtoken"
}

// TokenExpiry decodes the expiry claim embedded in a token without
// contacting the backend. The client holds no signing secret, so the
// signature is not verified; only the self-contained claim is read.
func TokenExpiry(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("%w: missing expiry claim", ErrInvalidToken)
	}
	return exp.Time, nil
}

// IsTokenExpired reports whether raw should be treated as expired. Decode
// failures count as expired: a token the client cannot read is never sent
// over the wire.
func IsTokenExpired(raw string) bool {
	exp, err := TokenExpiry(raw)
	if err != nil {
		return true
	}
	return !exp.After(time.Now())
}
