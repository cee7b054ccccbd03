package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sheetledger/internal/config"
	"sheetledger/internal/session"
)

func TestSetupLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "component=app") {
		t.Fatalf("component missing:\n%s", out)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}

	p := filepath.Join(dir, "test.env")
	if err := os.WriteFile(p, []byte("SHEETLEDGER_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SHEETLEDGER_TEST_VALUE", "")
	os.Unsetenv("SHEETLEDGER_TEST_VALUE")
	if err := LoadEnvFile(p); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("SHEETLEDGER_TEST_VALUE"); got != "from-file" {
		t.Fatalf("value=%q", got)
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DATA_BACKEND", "memory")
	if _, err := LoadAndValidateConfig(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	t.Setenv("DATA_BACKEND", "postgres")
	if _, err := LoadAndValidateConfig(); err == nil {
		t.Fatalf("invalid backend accepted")
	}
}

func TestGracefulShutdown(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, "info")

	var order []string
	err := GracefulShutdown(logger, time.Second,
		func(context.Context) error { order = append(order, "http"); return nil },
		nil,
		func(context.Context) error { order = append(order, "amqp"); return nil },
	)
	if err != nil {
		t.Fatalf("GracefulShutdown: %v", err)
	}
	if strings.Join(order, ",") != "http,amqp" {
		t.Fatalf("order=%v", order)
	}

	boom := errors.New("boom")
	err = GracefulShutdown(logger, time.Second, func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

func TestOAuthProviderConfig(t *testing.T) {
	cfg := &config.Config{Port: "8081"}
	if _, err := OAuthProviderConfig(cfg, false); !errors.Is(err, session.ErrMissingCredentials) {
		t.Fatalf("err=%v", err)
	}

	pc, err := OAuthProviderConfig(cfg, true)
	if err != nil || !pc.Local {
		t.Fatalf("local mode: pc=%+v err=%v", pc, err)
	}

	cfg.GoogleOAuthClientID = "id"
	cfg.GoogleOAuthClientSecret = "secret"
	pc, err = OAuthProviderConfig(cfg, false)
	if err != nil {
		t.Fatalf("OAuthProviderConfig: %v", err)
	}
	if pc.ClientID != "id" || pc.RedirectURL != "http://localhost:8081/auth/callback" {
		t.Fatalf("pc=%+v", pc)
	}
}
