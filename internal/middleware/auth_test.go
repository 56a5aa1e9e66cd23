package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"campus-vibe-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	auth := services.NewAuthService("s3cret")
	token, err := auth.GenerateJWT("member-1")
	require.NoError(t, err)

	var seen string
	handler := AuthMiddleware(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, "member-1", seen)
			} else {
				assert.Empty(t, seen)
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestValidateWebSocketToken(t *testing.T) {
	auth := services.NewAuthService("s3cret")
	_, err := ValidateWebSocketToken("", auth)
	assert.Error(t, err)

	token, err := auth.GenerateJWT("member-2")
	require.NoError(t, err)
	id, err := ValidateWebSocketToken(token, auth)
	require.NoError(t, err)
	assert.Equal(t, "member-2", id)
}

func TestGetUserID_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetUserID(req.Context()))
	assert.Equal(t, "x", GetUserID(WithUserID(req.Context(), "x")))
}
