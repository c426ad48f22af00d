package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"riddleme-service/internal/domain"
)

const adminRole = "admin"

// IssueAdminToken signs an HS256 token carrying the admin role.
func IssueAdminToken(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("admin secret is not configured")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": adminRole,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// requireAdmin rejects requests without a valid admin bearer token.
// An empty secret leaves the route open.
func requireAdmin(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(secret) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := verifyAdmin(r, secret); err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func verifyAdmin(r *http.Request, secret []byte) error {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return domain.ErrUnauthorized
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return domain.ErrUnauthorized
	}
	if role, _ := claims["role"].(string); role != adminRole {
		return domain.ErrUnauthorized
	}
	return nil
}
