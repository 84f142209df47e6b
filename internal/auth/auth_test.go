package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndParse(t *testing.T) {
	a := New("secret")
	token, err := a.IssueToken(42, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}
	uid, err := a.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error: %v", err)
	}
	if uid != 42 {
		t.Errorf("uid = %d, want 42", uid)
	}
}

func TestParseTokenRejects(t *testing.T) {
	a := New("secret")

	expired, _ := a.IssueToken(1, -time.Minute)
	otherKey, _ := New("other").IssueToken(1, time.Hour)
	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
	}).SignedString([]byte("secret"))
	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"user_id": 1, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong key", otherKey},
		{"missing user_id", noUser},
		{"missing exp", noExp},
		{"wrong algorithm", wrongAlg},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		if _, err := a.ParseToken(tt.token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: error = %v, want ErrInvalidToken", tt.name, err)
		}
	}
}

func TestMiddleware(t *testing.T) {
	a := New("secret")
	token, _ := a.IssueToken(7, time.Hour)

	var seen int64
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantUser   int64
	}{
		{"bearer header", "Bearer " + token, "", http.StatusNoContent, 7},
		{"query token", "", "?token=" + token, http.StatusNoContent, 7},
		{"no token", "", "", http.StatusUnauthorized, 0},
		{"basic auth", "Basic abc", "", http.StatusUnauthorized, 0},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized, 0},
	}
	for _, tt := range tests {
		seen = 0
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/ws"+tt.query, nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.wantStatus)
		}
		if seen != tt.wantUser {
			t.Errorf("%s: user = %d, want %d", tt.name, seen, tt.wantUser)
		}
	}
}
