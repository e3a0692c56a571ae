package worker

import (
	"context"
	"errors"
	"fmt"

	"spendings/internal/amqp"
	"spendings/internal/log"
	"spendings/internal/spendings"
	"spendings/internal/store"
)

// ErrRefreshFailed is returned when a refresh committed an error to the
// store. The consumer requeues the event once.
var ErrRefreshFailed = errors.New("refresh failed")

// Refresher is the part of the actions the worker drives.
type Refresher interface {
	Reload(ctx context.Context)
	FetchSpendingByID(ctx context.Context, id int64)
	Store() *store.Store[spendings.State]
}

var _ Refresher = (*spendings.Actions)(nil)

// EventSource delivers spending events until ctx is done. *amqp.Client
// implements it.
type EventSource interface {
	ConsumeSpendingEvents(ctx context.Context, handler func(context.Context, *amqp.SpendingEvent) error) error
}

var _ EventSource = (*amqp.Client)(nil)

// RefreshWorker keeps a client-side store in step with writes announced
// over AMQP. Creates and deletes can move items across pages, so they
// reload the current page; updates only refresh the changed spending.
type RefreshWorker struct {
	actions Refresher
	logger  *log.Logger
}

func NewRefreshWorker(actions Refresher, logger *log.Logger) *RefreshWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &RefreshWorker{
		actions: actions,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSpendingEvent applies a single event to the store. A failed refresh
// is still committed to the store and is also returned as ErrRefreshFailed.
func (w *RefreshWorker) HandleSpendingEvent(ctx context.Context, e *amqp.SpendingEvent) error {
	w.logger.InfoContext(ctx, "Processing spending event",
		log.FieldSpendingID, e.ID,
		log.FieldEventOp, string(e.Op),
		"event_id", e.EventID)

	switch e.Op {
	case amqp.OpCreated, amqp.OpDeleted:
		w.actions.Reload(ctx)
	case amqp.OpUpdated:
		w.actions.FetchSpendingByID(ctx, e.ID)
	default:
		return fmt.Errorf("unknown event op %q", e.Op)
	}

	if st := w.actions.Store().Get(); st.HasError() {
		return fmt.Errorf("%w: %s event for spending %d: %s", ErrRefreshFailed, e.Op, e.ID, st.Error)
	}
	return nil
}

// StartupRefresh loads the current page before any event arrives, so
// writes made while the worker was down are picked up.
func (w *RefreshWorker) StartupRefresh(ctx context.Context) {
	w.logger.InfoContext(ctx, "Loading current page on startup")
	w.actions.Reload(ctx)
}

// Run refreshes once and then consumes events until ctx is cancelled.
func (w *RefreshWorker) Run(ctx context.Context, source EventSource) error {
	w.StartupRefresh(ctx)

	err := source.ConsumeSpendingEvents(ctx, w.HandleSpendingEvent)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
