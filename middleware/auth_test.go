package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/walker-tournament/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const testSecret = "middleware-secret"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func validClaims(userID uuid.UUID, role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	userID := uuid.New()

	var seen uuid.UUID
	protected := Authenticate(testSecret)(RequireRole(models.RoleOrganizer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		seen = id
		w.WriteHeader(http.StatusNoContent)
	})))

	expired := validClaims(userID, "organizer")
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid organizer", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(userID, "organizer")), http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.SigningMethodHS256, validClaims(userID, "organizer")), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, expired), http.StatusUnauthorized},
		{"unknown role", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(userID, "player")), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}

	if seen != userID {
		t.Errorf("expected user id %s in context, got %s", userID, seen)
	}
}

func TestGetUserIDFromContextWithoutClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := GetUserIDFromContext(req.Context()); err == nil {
		t.Errorf("expected an error without claims")
	}
	if _, err := GetUserRoleFromContext(req.Context()); err == nil {
		t.Errorf("expected an error without claims")
	}
}
