package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sheetledger/internal/backend"
	"sheetledger/internal/cache"
	"sheetledger/internal/cli"
	apphttp "sheetledger/internal/http"
	"sheetledger/internal/log"
	"sheetledger/internal/middleware/ratelimit"
	"sheetledger/internal/services"
	"sheetledger/internal/session"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = 5 * time.Minute
)

func serveCmd() *cobra.Command {
	var backendFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if backendFlag != "" {
				os.Setenv("DATA_BACKEND", backendFlag)
			}
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&backendFlag, "backend", "", "override DATA_BACKEND (sheets or memory)")
	return cmd
}

func runServe(ctx context.Context) error {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}

	gate := session.NewGate(logger.WithComponent(log.ComponentSession))
	pc, err := cli.OAuthProviderConfig(cfg, res.Local)
	if err == nil {
		err = gate.Initialize(pc)
	}
	switch {
	case errors.Is(err, session.ErrMissingCredentials):
		logger.Warn("Google OAuth credentials missing, sign-in disabled",
			log.FieldOperation, log.OpStartup, log.FieldError, err)
	case err != nil:
		return err
	}

	ledger := services.NewLedgerService(res.Source, services.Options{
		ResourceName: cfg.LedgerResourceName,
		Timeout:      cfg.RequestTimeout,
		Publisher:    res.Publisher,
		Logger:       logger.WithComponent(log.ComponentLedger),
	})
	ledger.Attach(gate)

	sessions := session.NewStore(cfg.SessionMax, cfg.SessionTTL, strings.HasPrefix(cfg.RedirectURL(), "https://"),
		logger.WithComponent(log.ComponentSession))
	caches := cache.NewManager(logger.Logger)
	caches.Register(sessions.Cleaner())

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:    ledger,
		Gate:      gate,
		Sessions:  sessions,
		Logger:    logger.WithComponent(log.ComponentHTTP),
		RateLimit: ratelimit.DefaultConfig(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting sheetledger server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"sign_in", gate.Ready())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return caches.Run(gctx, sweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
		return cli.GracefulShutdown(logger, shutdownTimeout,
			srv.Shutdown,
			ledger.Flush,
			func(context.Context) error {
				if res.Cleanup == nil {
					return nil
				}
				return res.Cleanup()
			},
		)
	})
	return g.Wait()
}
