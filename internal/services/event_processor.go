package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"sheetledger/internal/amqp"
	"sheetledger/internal/cache"
	"sheetledger/internal/core"
	"sheetledger/internal/log"
)

// Totals is the running sum of appended entries for one user.
type Totals struct {
	Expense decimal.Decimal
	Income  decimal.Decimal
	Entries int
}

// Net is income minus expense.
func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// EventConsumer is satisfied by the AMQP client.
type EventConsumer interface {
	ConsumeEntryAppended(ctx context.Context, handler func(context.Context, *amqp.EntryAppendedMessage) error) error
}

// EventProcessor consumes entry.appended events, drops redeliveries and keeps
// per-user totals for the events command.
type EventProcessor struct {
	logger *log.Logger
	seen   *cache.LRUCache[struct{}]

	mu     sync.Mutex
	totals map[string]Totals
}

func NewEventProcessor(logger *log.Logger) *EventProcessor {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &EventProcessor{
		logger: logger.WithComponent(log.ComponentAMQP),
		seen:   cache.NewLRUCache[struct{}](10000, 24*time.Hour),
		totals: make(map[string]Totals),
	}
}

// Handle applies one event. Redelivered events are acknowledged without
// being counted twice.
func (p *EventProcessor) Handle(ctx context.Context, msg *amqp.EntryAppendedMessage) error {
	if msg == nil || msg.EventID == "" {
		return errors.New("event without id")
	}
	if _, dup := p.seen.Get(msg.EventID); dup {
		p.logger.DebugContext(ctx, "Duplicate event ignored", "event_id", msg.EventID)
		return nil
	}
	p.seen.Set(msg.EventID, struct{}{})

	e := msg.Entry()
	p.mu.Lock()
	t := p.totals[msg.UserEmail]
	if e.Type == core.Income {
		t.Income = t.Income.Add(e.Amount)
	} else {
		t.Expense = t.Expense.Add(e.Amount)
	}
	t.Entries++
	p.totals[msg.UserEmail] = t
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "Entry appended event",
		log.FieldUser, msg.UserEmail,
		log.FieldResourceID, msg.ResourceID,
		log.FieldEntryName, e.Name,
		log.FieldEntryAmount, core.FormatAmount(e.Amount),
		log.FieldEntryType, e.Type.String(),
		"net", core.FormatAmount(t.Net()))
	return nil
}

// Totals returns the running totals for user.
func (p *EventProcessor) Totals(user string) Totals {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totals[user]
}

// Run consumes from c until ctx is done.
func (p *EventProcessor) Run(ctx context.Context, c EventConsumer) error {
	err := c.ConsumeEntryAppended(ctx, p.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
