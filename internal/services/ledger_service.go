// Package services orchestrates the ledger on top of the sheets ports.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"sheetledger/internal/amqp"
	"sheetledger/internal/core"
	"sheetledger/internal/log"
	"sheetledger/internal/session"
	"sheetledger/internal/sheets"
)

// Status lines set on the session when resolving fails.
const (
	StatusLocateFailed = "Error accessing Google Drive. Please try again."
	StatusCreateFailed = "Error creating spreadsheet. Please try again."
)

// publishTimeout bounds one event publish, which runs after the request that
// appended the row has been answered.
const publishTimeout = 10 * time.Second

var (
	ErrNotResolved = errors.New("ledger resource not resolved")
	ErrSignedOut   = errors.New("not signed in")
)

// BackendSource hands out the provider backend acting for a session.
type BackendSource interface {
	Backend(ctx context.Context, s *session.Session) (sheets.Backend, error)
}

// EventPublisher receives entry.appended events. Optional.
type EventPublisher interface {
	PublishEntryAppended(ctx context.Context, msg *amqp.EntryAppendedMessage) error
}

// LoadResult is the outcome of a load. Resolved is false when the session has
// no resource yet, which is distinct from an empty ledger.
type LoadResult struct {
	Entries  []core.Entry
	Total    int
	Resolved bool
}

// LedgerService locates the ledger resource for a session and reads or
// appends rows through the session's backend.
type LedgerService struct {
	backends     BackendSource
	publisher    EventPublisher
	resourceName string
	timeout      time.Duration
	logger       *log.Logger
	structured   *log.StructuredLogger
	resolves     singleflight.Group
	publishes    sync.WaitGroup
}

// Options for NewLedgerService. Zero values get defaults.
type Options struct {
	ResourceName string
	Timeout      time.Duration
	Publisher    EventPublisher
	Logger       *log.Logger
}

func NewLedgerService(backends BackendSource, opts Options) *LedgerService {
	if opts.ResourceName == "" {
		opts.ResourceName = sheets.ResourceName
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 7 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.FromContext(context.Background())
	}
	logger := opts.Logger.WithComponent(log.ComponentLedger)
	return &LedgerService{
		backends:     backends,
		publisher:    opts.Publisher,
		resourceName: opts.ResourceName,
		timeout:      opts.Timeout,
		logger:       logger,
		structured:   log.NewStructuredLogger(logger),
	}
}

// Attach makes the service resolve the resource as soon as a user signs in.
// Failures are already reflected on the session status, so they are only
// logged here.
func (s *LedgerService) Attach(g *session.Gate) {
	g.OnChange(func(ctx context.Context, sess *session.Session, signedIn bool) {
		if !signedIn {
			return
		}
		if _, err := s.Resolve(ctx, sess); err != nil {
			s.logger.WarnContext(ctx, "Resolve after sign-in failed",
				log.FieldSessionID, sess.ID, log.FieldError, err)
		}
	})
}

// Resolve returns the session's resource, locating or creating it on first
// use. Concurrent calls for one session share a single provider round trip.
func (s *LedgerService) Resolve(ctx context.Context, sess *session.Session) (*session.ResourceRef, error) {
	if ref := sess.Resource(); ref != nil {
		return ref, nil
	}
	if !sess.SignedIn() {
		return nil, ErrSignedOut
	}
	v, err, _ := s.resolves.Do(sess.ID, func() (interface{}, error) {
		if ref := sess.Resource(); ref != nil {
			return ref, nil
		}
		return s.resolve(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return v.(*session.ResourceRef), nil
}

func (s *LedgerService) resolve(ctx context.Context, sess *session.Session) (*session.ResourceRef, error) {
	backend, err := s.backends.Backend(ctx, sess)
	if err != nil {
		sess.SetStatus(StatusLocateFailed)
		return nil, fmt.Errorf("backend for session: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := backend.Locate(callCtx, s.resourceName)
	switch {
	case errors.Is(err, sheets.ErrNotFound):
		id, cerr := backend.Create(callCtx, s.resourceName)
		if cerr != nil {
			sess.SetStatus(StatusCreateFailed)
			s.structured.LogError(ctx, "Create ledger resource failed", cerr, log.ComponentLedger, log.OpCreate, nil)
			return nil, fmt.Errorf("create %s: %w", s.resourceName, cerr)
		}
		s.logger.InfoContext(ctx, "Created ledger resource",
			log.FieldSessionID, sess.ID, log.FieldResourceID, id)
		res = sheets.LocateResult{ResourceID: id, Matches: 1}
	case err != nil:
		sess.SetStatus(StatusLocateFailed)
		s.structured.LogError(ctx, "Locate ledger resource failed", err, log.ComponentLedger, log.OpLocate, nil)
		return nil, fmt.Errorf("locate %s: %w", s.resourceName, err)
	}

	if res.Matches > 1 {
		s.logger.WarnContext(ctx, "Duplicate ledger resources, using the oldest",
			log.FieldSessionID, sess.ID,
			log.FieldResourceID, res.ResourceID,
			log.FieldCount, res.Matches)
		sess.SetNotice(fmt.Sprintf("Found %d spreadsheets named %q; using the oldest one.", res.Matches, s.resourceName))
	}

	ref := &session.ResourceRef{ResourceID: res.ResourceID, SheetName: sheets.SheetName}
	sess.SetResource(ref)
	sess.ResetStatus()
	return ref, nil
}

// Load reads every row of the session's resource and applies filter.
// Without a resolved resource it returns a zero result with Resolved false.
func (s *LedgerService) Load(ctx context.Context, sess *session.Session, filter core.Filter) (LoadResult, error) {
	ref := sess.Resource()
	if ref == nil {
		return LoadResult{}, nil
	}
	backend, err := s.backends.Backend(ctx, sess)
	if err != nil {
		return LoadResult{Resolved: true}, fmt.Errorf("backend for session: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := backend.ReadEntries(callCtx, ref.ResourceID)
	if err != nil {
		s.structured.LogError(ctx, "Load entries failed", err, log.ComponentLedger, log.OpLoad,
			log.LogFields{log.FieldFilter: filter.String(), log.FieldResourceID: ref.ResourceID})
		return LoadResult{Resolved: true}, fmt.Errorf("load entries: %w", err)
	}
	return LoadResult{
		Entries:  filter.Apply(rows),
		Total:    len(rows),
		Resolved: true,
	}, nil
}

// Append writes e as a new row. Nothing is cached locally, so a failed write
// leaves no state to roll back.
func (s *LedgerService) Append(ctx context.Context, sess *session.Session, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	ref, err := s.Resolve(ctx, sess)
	if err != nil {
		if errors.Is(err, ErrSignedOut) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrNotResolved, err)
	}
	backend, err := s.backends.Backend(ctx, sess)
	if err != nil {
		return fmt.Errorf("backend for session: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := backend.AppendEntry(callCtx, ref.ResourceID, e); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	s.structured.LogEntryAppended(ctx, e.Name, e.Amount.StringFixed(2), e.Type.String(), ref.ResourceID)

	if s.publisher != nil {
		s.publish(ctx, amqp.NewEntryAppendedMessage(sess.UserEmail(), ref.ResourceID, e))
	}
	return nil
}

// publish sends msg in the background. The context keeps the request's
// values but not its cancellation.
func (s *LedgerService) publish(ctx context.Context, msg *amqp.EntryAppendedMessage) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	s.publishes.Add(1)
	go func() {
		defer s.publishes.Done()
		defer cancel()
		if err := s.publisher.PublishEntryAppended(pctx, msg); err != nil {
			s.logger.WarnContext(pctx, "Failed to publish entry appended event",
				log.FieldOperation, log.OpPublish,
				"event_id", msg.EventID,
				log.FieldError, err)
		}
	}()
}

// Flush waits for background publishes to finish or for ctx to end.
func (s *LedgerService) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.publishes.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
