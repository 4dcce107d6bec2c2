package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/repository"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/service"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

func TestAdminRoutesRequireAdminSession(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	hygiene := service.NewEmailHygieneService(repository.NewIdentityRepository(db), service.Options{})
	sessions := service.NewSessionService("secret", "admin")
	e := newHTTPServer(hygiene, sessions)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/fix-invalid-emails", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}

	claims := &service.SessionClaims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	for _, q := range []string{"users", "staff", "admin"} {
		mock.ExpectQuery(`(?s)SELECT id, email, name FROM ` + q).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name"}))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/fix-invalid-emails", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfigureLogging(t *testing.T) {
	defer logrus.SetFormatter(&logrus.TextFormatter{})
	defer logrus.SetLevel(logrus.InfoLevel)

	cfg := &config.Config{Log: config.LogConfig{Level: "debug", Format: "json"}}
	if err := configureLogging(cfg); err != nil {
		t.Fatalf("configure failed: %v", err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", logrus.GetLevel())
	}
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected json formatter")
	}

	if err := configureLogging(&config.Config{Log: config.LogConfig{Level: "loud"}}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if err := configureLogging(&config.Config{Log: config.LogConfig{Level: "info", Format: "xml"}}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
