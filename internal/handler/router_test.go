package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zechsoft/global-backfinal-sub000/internal/app/identity"
	"github.com/zechsoft/global-backfinal-sub000/internal/configs"
)

func testDeps() *AppDeps {
	return &AppDeps{
		Verifier: identity.NewVerifier("test-secret", nil),
		Config: &configs.AppConfig{
			Environment:    "development",
			Port:           8080,
			AllowedOrigins: []string{},
			JWTSecret:      "test-secret",
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := Router(testDeps())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

// TestAPIRequiresIdentity verifies every /api route rejects requests without a
// bearer token using the error envelope.
func TestAPIRequiresIdentity(t *testing.T) {
	router := Router(testDeps())

	paths := []string{
		"/api/conversations",
		"/api/rooms",
	}

	for _, path := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code, path)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body["error"], path)
	}
}

func TestUnknownRoute(t *testing.T) {
	router := Router(testDeps())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/definitely-not-a-route", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
