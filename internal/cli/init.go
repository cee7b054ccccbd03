// Package cli holds the start-up steps shared by the sheetledger commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sheetledger/internal/config"
	"sheetledger/internal/log"
	"sheetledger/internal/session"
)

// SetupLogger builds the text logger at the LOG_LEVEL value and installs it
// as the slog default.
func SetupLogger(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := log.NewText(w, log.ParseLevel(level), log.ComponentApp)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. A missing file is
// not an error; any other problem is.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadAndValidateConfig reads the environment and validates the result.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// OAuthProviderConfig maps the OAuth settings onto the sign-in provider
// config. Outside local mode it fails with session.ErrMissingCredentials when
// no client credentials are configured.
func OAuthProviderConfig(cfg *config.Config, local bool) (session.ProviderConfig, error) {
	pc := session.ProviderConfig{
		Local:        local,
		ClientID:     cfg.GoogleOAuthClientID,
		ClientSecret: cfg.GoogleOAuthClientSecret,
		ClientJSON:   cfg.GoogleOAuthClientJSON,
		ClientFile:   cfg.GoogleOAuthClientFile,
		RedirectURL:  cfg.RedirectURL(),
	}
	if !local && !cfg.HasOAuthCredentials() {
		return pc, fmt.Errorf("%w: set GOOGLE_OAUTH_CLIENT_ID and GOOGLE_OAUTH_CLIENT_SECRET, GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE",
			session.ErrMissingCredentials)
	}
	return pc, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// GracefulShutdown runs every step with a shared deadline and joins their
// errors. Steps run in order so later ones may depend on earlier ones having
// drained.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, steps ...func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, step := range steps {
		if step == nil {
			continue
		}
		if err := step(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if ctx.Err() != nil {
		logger.Warn("Shutdown timeout reached", log.FieldOperation, log.OpShutdown)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
	return nil
}
