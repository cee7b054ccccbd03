package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sheetledger/internal/amqp"
	"sheetledger/internal/session"
	"sheetledger/internal/sheets"
	gsheet "sheetledger/internal/sheets/google"
	"sheetledger/internal/sheets/memory"
)

// ErrNoToken is returned when a signed-out session asks for a Google backend.
var ErrNoToken = errors.New("session has no OAuth token")

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var res *BackendResult
	switch config.Type {
	case SheetsBackend:
		res = &BackendResult{Source: SheetsSource{}}
		f.logger.Info("Initialized Google Sheets backend", "component", "backend")
	case MemoryBackend:
		store := memory.NewFromFile(config.SeedFile)
		res = &BackendResult{Source: MemorySource{Store: store}, Local: true}
		f.logger.Info("Initialized memory backend", "component", "backend", "seed_file", config.SeedFile)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	// Initialize AMQP client (optional)
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.Publisher = client
			res.Cleanup = client.Close
		}
	}
	return res, nil
}

// SheetsSource builds a Drive/Sheets client from the session's token.
type SheetsSource struct{}

func (SheetsSource) Backend(ctx context.Context, s *session.Session) (sheets.Backend, error) {
	ts := s.TokenSource()
	if ts == nil {
		return nil, ErrNoToken
	}
	return gsheet.NewForToken(ctx, ts)
}

// MemorySource serves every session from one in-process store.
type MemorySource struct {
	Store *memory.Store
}

func (m MemorySource) Backend(context.Context, *session.Session) (sheets.Backend, error) {
	return m.Store, nil
}
