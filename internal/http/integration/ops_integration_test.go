package integration_test

import (
	"net/http"
	"strings"
	"testing"
)

func TestOpsIntegration_Endpoints(t *testing.T) {
	router := setupRouter(t, testConfig())

	mustStatus(t, doRequest(router, http.MethodGet, "/healthz", "", ""), http.StatusOK)
	mustStatus(t, doRequest(router, http.MethodGet, "/readyz", "", ""), http.StatusOK)

	w := doRequest(router, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/docs/openapi.yaml", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "openapi:") {
		t.Fatalf("openapi: unexpected response %d", w.Code)
	}

	env := mustStatus(t, doRequest(router, http.MethodGet, "/api/nope", "", ""), http.StatusNotFound)
	if env.Success || env.Errors == nil || env.Errors.Code != "not_found" {
		t.Fatalf("unexpected not-found envelope: %+v", env)
	}
	if env.Errors.RequestID == "" {
		t.Fatalf("request id missing from error envelope")
	}

	env = mustStatus(t, doRequest(router, http.MethodDelete, "/api/auth/login", "", ""), http.StatusMethodNotAllowed)
	if env.Errors == nil || env.Errors.Code != "method_not_allowed" {
		t.Fatalf("unexpected 405 envelope: %+v", env)
	}
}

func TestOpsIntegration_RejectsNonJSONBody(t *testing.T) {
	router := setupRouter(t, testConfig())

	w := doRequest(router, http.MethodPost, "/api/auth/login", "email=a", "",
		"Content-Type", "application/x-www-form-urlencoded")
	mustStatus(t, w, http.StatusUnsupportedMediaType)
}
