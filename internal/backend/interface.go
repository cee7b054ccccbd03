package backend

import (
	"context"

	"sheetledger/internal/services"
	"sheetledger/internal/session"
	"sheetledger/internal/sheets"
)

// Source hands out the backend acting for a session.
type Source interface {
	Backend(ctx context.Context, s *session.Session) (sheets.Backend, error)
}

var _ services.BackendSource = Source(nil)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend source, the optional event publisher and
// a cleanup function.
type BackendResult struct {
	Source    Source
	Publisher services.EventPublisher
	Cleanup   CleanupFunc
	// Local is true when sign-in should use the local provider.
	Local bool
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory backend
	SeedFile string

	// Events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
