package gin_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	ginpkg "github.com/gin-gonic/gin"
	infragin "github.com/jonesrussell/north-cloud/quality-engine/infrastructure/gin"
	"github.com/jonesrussell/north-cloud/quality-engine/infrastructure/logger"
)

func TestMain(m *testing.M) {
	ginpkg.SetMode(ginpkg.TestMode)
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) *ginpkg.Engine {
	t.Helper()

	log := logger.NewNop()
	router := ginpkg.New()
	router.Use(infragin.RecoveryMiddleware(log), infragin.RequestIDMiddleware(log))
	router.GET("/test", func(c *ginpkg.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/panic", func(*ginpkg.Context) { panic("boom") })
	return router
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	const expectedLen = 32
	if got := len(w.Header().Get(infragin.RequestIDHeader)); got != expectedLen {
		t.Errorf("request ID length = %d, want %d", got, expectedLen)
	}
}

func TestRequestIDMiddleware_PreservesInboundID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(infragin.RequestIDHeader, "upstream-123")
	w := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(w, req)

	if got := w.Header().Get(infragin.RequestIDHeader); got != "upstream-123" {
		t.Errorf("X-Request-ID = %q, want upstream-123", got)
	}
}

func TestRecoveryMiddleware_Returns500(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", http.NoBody))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.CORSMiddleware(infragin.CORSConfig{Enabled: true, AllowedOrigins: []string{"https://mydub.ai"}}))
	router.OPTIONS("/x", func(c *ginpkg.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", http.NoBody)
	req.Header.Set("Origin", "https://mydub.ai")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://mydub.ai" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

// Build switches the global gin mode, so this test stays sequential.
func TestBuild_HealthReportsDegradedDependency(t *testing.T) {
	srv := infragin.NewServerBuilder("quality-engine", 0).
		WithHealthCheck("redis", infragin.PingChecker(func(context.Context) error { return errors.New("down") }, false)).
		Build()

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body infragin.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != infragin.HealthStatusDegraded {
		t.Errorf("status = %s, want degraded", body.Status)
	}
}
