package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Staff roles recognized by the portal.
const (
	RoleSalesman  = "salesman"
	RoleEvaluator = "evaluator"
	RoleAdmin     = "admin"
)

// Claims represents the staff identity contained in a bearer token.
type Claims struct {
	Role     string `json:"role"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

// SignJWT signs staff claims with HS256. Intended for tests and dev tooling;
// production tokens come from the identity service.
func SignJWT(secret, userID, role, username string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now().UTC()
	claims := Claims{
		Role:     role,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyJWT verifies a staff bearer token and returns its claims.
func VerifyJWT(secret, token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}

// IsStaffRole reports whether role is one of the recognized staff roles.
func IsStaffRole(role string) bool {
	switch role {
	case RoleSalesman, RoleEvaluator, RoleAdmin:
		return true
	default:
		return false
	}
}
