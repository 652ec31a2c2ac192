package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"easypro/backend/config"
	"easypro/backend/internal/api/handler"
	"easypro/backend/internal/service"
	"easypro/backend/pkg/jwt"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-for-unit-testing",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		Upload: config.UploadConfig{MaxSize: 1 << 20, MaxFiles: 2},
	}
}

func setupEngine(health HealthChecker) (*jwt.Manager, http.Handler) {
	cfg := testConfig()
	mgr := jwt.NewManager(&cfg.Auth)
	h := handler.NewHandler(cfg, &service.Service{}, nil)
	return mgr, Setup(cfg, h, mgr, nil, nil, health, zap.NewNop())
}

func TestHealth_OK(t *testing.T) {
	_, r := setupEngine(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际: %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("期望响应携带 X-Request-ID")
	}
}

func TestHealth_Degraded(t *testing.T) {
	_, r := setupEngine(func(context.Context) error { return errors.New("db down") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("依赖异常时期望 503，实际: %d", w.Code)
	}
}

func TestProtectedRoute_RequiresToken(t *testing.T) {
	_, r := setupEngine(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("未携带 Token 期望 401，实际: %d", w.Code)
	}
}

func TestAdminRoute_WriterForbidden(t *testing.T) {
	mgr, r := setupEngine(nil)
	token, _ := mgr.GenerateAccessToken(jwt.Subject{UserID: "u1", Role: "writer", WriterID: "w1"})

	for _, target := range []string{"/api/v1/payments", "/api/v1/export/writers", "/api/v1/system-config"} {
		method := http.MethodGet
		if target == "/api/v1/payments" {
			method = http.MethodPost
		}
		req := httptest.NewRequest(method, target, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Errorf("%s %s 写手访问期望 403，实际: %d", method, target, w.Code)
		}
	}
}

func TestWriterRoute_AdminForbidden(t *testing.T) {
	mgr, r := setupEngine(nil)
	token, _ := mgr.GenerateAccessToken(jwt.Subject{UserID: "u1", Role: "admin"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("管理员提交工作量期望 403，实际: %d", w.Code)
	}
}

func TestUploadBodyLimit(t *testing.T) {
	got := uploadBodyLimit(&config.UploadConfig{MaxSize: 100, MaxFiles: 3})
	if got != 300+jsonBodyLimit {
		t.Errorf("期望 %d，实际: %d", 300+jsonBodyLimit, got)
	}
}
