package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestRegenerateOpenWithoutSecret(t *testing.T) {
	srv := newTestServer(t, &sequenceGenerator{}, Options{})

	rec := doJSON(t, srv, http.MethodPost, "/api/riddle/regenerate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if resp := decodeBody[riddleResponse](t, rec); resp.Riddle.ID != 1 {
		t.Fatalf("unexpected regenerate response %+v", resp)
	}
}

func TestRegenerateRequiresAdminToken(t *testing.T) {
	const secret = "s3cret"
	srv := newTestServer(t, &sequenceGenerator{}, Options{AdminSecret: secret})
	now := time.Now()

	valid, err := IssueAdminToken(secret, "ops", time.Hour, now)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	foreign, err := IssueAdminToken("other", "ops", time.Hour, now)
	if err != nil {
		t.Fatalf("issue foreign token: %v", err)
	}
	expired, err := IssueAdminToken(secret, "ops", time.Hour, now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}
	player, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice", "role": "player", "exp": now.Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign player token: %v", err)
	}

	cases := []struct {
		name   string
		auth   string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"not admin", "Bearer " + player, http.StatusUnauthorized},
		{"admin", "Bearer " + valid, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/riddle/regenerate", nil, "Authorization", tc.auth)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestIssueAdminTokenNeedsSecret(t *testing.T) {
	if _, err := IssueAdminToken("", "ops", time.Hour, time.Now()); err == nil {
		t.Fatalf("expected error without a secret")
	}
}
