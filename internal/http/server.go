package http

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"sheetledger/internal/log"
	"sheetledger/internal/middleware/ratelimit"
	"sheetledger/internal/middleware/security"
	"sheetledger/internal/middleware/trace"
	"sheetledger/internal/services"
	"sheetledger/internal/session"
	"sheetledger/internal/view"
	appweb "sheetledger/web"
)

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Ledger   *services.LedgerService
	Gate     *session.Gate
	Sessions *session.Store
	Logger   *log.Logger

	// Renderer defaults to the embedded templates.
	Renderer *view.Renderer
	// RateLimit applies to POST requests per client address.
	RateLimit ratelimit.Config
}

// Server serves the ledger page, its HTMX partials and the sign-in routes.
type Server struct {
	http.Server

	ledger   *services.LedgerService
	gate     *session.Gate
	sessions *session.Store
	renderer *view.Renderer
	logger   *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	metrics  *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	started        time.Time
	entriesAdded   int64
	appendFailures int64
	loadFailures   int64
}

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	renderer := deps.Renderer
	if renderer == nil {
		r, err := view.NewRenderer(appweb.TemplatesFS)
		if err != nil {
			logger.Warn("Failed parsing templates", log.FieldError, err)
		}
		renderer = r
	}

	detector := security.NewDetector()
	s := &Server{
		ledger:   deps.Ledger,
		gate:     deps.Gate,
		sessions: deps.Sessions,
		renderer: renderer,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(deps.RateLimit),
		detector: detector,
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
		metrics:  &appMetrics{started: time.Now()},
	}

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	auth := log.ComponentMiddleware(log.ComponentSession)
	mux.Handle("/auth/login", auth(http.HandlerFunc(s.handleLogin)))
	mux.Handle("/auth/callback", auth(http.HandlerFunc(s.handleCallback)))
	mux.Handle("/auth/logout", auth(http.HandlerFunc(s.handleLogout)))

	mux.HandleFunc("/entries", s.handleCreateEntry)
	// UI partials
	mux.HandleFunc("/ui/entries", s.handleEntries)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, http.HandlerFunc(handleRateLimited))(h)
	h = detector.Handler(h)
	h = headers.Handler(h)
	h = s.tracer.Handler(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background work and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	})
	return err
}

func (m *appMetrics) entryAdded() { atomic.AddInt64(&m.entriesAdded, 1) }
func (m *appMetrics) appendFailed() { atomic.AddInt64(&m.appendFailures, 1) }
func (m *appMetrics) loadFailed() { atomic.AddInt64(&m.loadFailures, 1) }
