package spendings

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"spendings/internal/api"
	"spendings/internal/core"
	"spendings/internal/log"
	"spendings/internal/store"
)

// Messages committed when a failure carries no message of its own.
const (
	FallbackFetch    = "Failed to fetch spendings"
	FallbackFetchOne = "Failed to fetch spending by ID"
	FallbackAdd      = "Failed to add spending"
	FallbackUpdate   = "Failed to update spending"
	FallbackDelete   = "Failed to delete spending"
)

// DefaultRefreshConcurrency bounds RefreshByIDs when no limit is given.
const DefaultRefreshConcurrency = 4

// API is the remote side of the actions. *api.Client implements it.
type API interface {
	List(ctx context.Context, filters core.Filters, page int) (core.Page, error)
	Get(ctx context.Context, id int64) (core.Spending, error)
	Create(ctx context.Context, s core.NewSpending) (core.Spending, error)
	Update(ctx context.Context, id int64, u core.SpendingUpdate) (core.Spending, error)
	Delete(ctx context.Context, id int64) error
}

var _ API = (*api.Client)(nil)

// Actions are the use cases that change State. Each network action marks
// the store loading, performs exactly one API call and commits the outcome.
// Failures are never returned: they end up in State.Error.
//
// Actions block until committed; run them on a goroutine for
// fire-and-forget behavior. Concurrent actions are not coordinated, so a
// fast action may clear Loading while a slower one is still in flight.
type Actions struct {
	store  *store.Store[State]
	api    API
	logger *log.Logger

	refreshConcurrency int
}

// Option configures Actions.
type Option func(*Actions)

// WithRefreshConcurrency bounds the parallelism of RefreshByIDs.
func WithRefreshConcurrency(n int) Option {
	return func(a *Actions) {
		if n > 0 {
			a.refreshConcurrency = n
		}
	}
}

// New wires actions to st and client. A nil logger discards output.
func New(st *store.Store[State], client API, logger *log.Logger, opts ...Option) *Actions {
	if logger == nil {
		logger = log.Discard()
	}
	a := &Actions{
		store:              st,
		api:                client,
		logger:             logger.WithComponent(log.ComponentActions),
		refreshConcurrency: DefaultRefreshConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Store returns the store the actions commit to.
func (a *Actions) Store() *store.Store[State] {
	return a.store
}

// FetchSpendings loads one page of spendings matching filters and replaces
// the list and the page count with the response.
func (a *Actions) FetchSpendings(ctx context.Context, filters core.Filters, page int) {
	a.store.Update(begin)

	res, err := a.api.List(ctx, filters, page)
	if err != nil {
		a.failed(ctx, log.OpList, err, FallbackFetch)
		return
	}

	a.store.Update(func(s State) State {
		s.Spendings = nonNil(res.Data)
		s.TotalPages = res.TotalPages
		s.Loading = false
		return s
	})
	a.logger.DebugContext(ctx, "Spendings fetched",
		log.FieldOperation, log.OpList,
		log.FieldPage, page,
		log.FieldTotalPages, res.TotalPages,
		log.FieldCount, len(res.Data))
}

// FetchSpendingByID refreshes the element with the given id. A spending
// that is not already in the list is not inserted.
func (a *Actions) FetchSpendingByID(ctx context.Context, id int64) {
	a.store.Update(begin)

	sp, err := a.api.Get(ctx, id)
	if err != nil {
		a.failed(ctx, log.OpRead, err, FallbackFetchOne, log.FieldSpendingID, id)
		return
	}

	a.store.Update(func(s State) State {
		s.Spendings = replaceByID(s.Spendings, id, sp)
		s.Loading = false
		return s
	})
}

// AddSpending creates a spending and appends the stored record.
func (a *Actions) AddSpending(ctx context.Context, n core.NewSpending) {
	a.store.Update(begin)

	sp, err := a.api.Create(ctx, n)
	if err != nil {
		a.failed(ctx, log.OpCreate, err, FallbackAdd)
		return
	}

	a.store.Update(func(s State) State {
		s.Spendings = appendSpending(s.Spendings, sp)
		s.Loading = false
		return s
	})
	a.logger.InfoContext(ctx, "Spending added", log.FieldSpendingID, sp.ID)
}

// UpdateSpending sends userid, count, type and model for id and replaces
// the matching element with the response.
func (a *Actions) UpdateSpending(ctx context.Context, id int64, u core.SpendingUpdate) {
	a.store.Update(begin)

	sp, err := a.api.Update(ctx, id, u)
	if err != nil {
		a.failed(ctx, log.OpUpdate, err, FallbackUpdate, log.FieldSpendingID, id)
		return
	}

	a.store.Update(func(s State) State {
		s.Spendings = replaceByID(s.Spendings, id, sp)
		s.Loading = false
		return s
	})
	a.logger.InfoContext(ctx, "Spending updated", log.FieldSpendingID, id)
}

// DeleteSpending deletes id remotely and drops it from the list.
func (a *Actions) DeleteSpending(ctx context.Context, id int64) {
	a.store.Update(begin)

	if err := a.api.Delete(ctx, id); err != nil {
		a.failed(ctx, log.OpDelete, err, FallbackDelete, log.FieldSpendingID, id)
		return
	}

	a.store.Update(func(s State) State {
		s.Spendings = removeByID(s.Spendings, id)
		s.Loading = false
		return s
	})
	a.logger.InfoContext(ctx, "Spending deleted", log.FieldSpendingID, id)
}

// SetFilters merges the set fields of patch into the current filters and
// goes back to page 1.
func (a *Actions) SetFilters(patch core.Filters) {
	a.store.Update(func(s State) State {
		s.Filters = s.Filters.Merge(patch)
		s.CurrentPage = 1
		return s
	})
}

// SetCurrentPage changes the current page only.
func (a *Actions) SetCurrentPage(page int) {
	a.store.Update(func(s State) State {
		s.CurrentPage = page
		return s
	})
}

// Reload fetches the current page with the current filters.
func (a *Actions) Reload(ctx context.Context) {
	s := a.store.Get()
	a.FetchSpendings(ctx, s.Filters, s.CurrentPage)
}

// RefreshByIDs runs FetchSpendingByID for every id with bounded
// parallelism. Each call commits on its own.
func (a *Actions) RefreshByIDs(ctx context.Context, ids ...int64) {
	ids = uniqueIDs(ids)
	var g errgroup.Group
	g.SetLimit(a.refreshConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			a.FetchSpendingByID(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
}

func (a *Actions) failed(ctx context.Context, op string, err error, fallback string, args ...any) {
	msg := errorMessage(err, fallback)
	a.store.Update(fail(msg))

	fields := log.NewFields().WithOperation(op).WithError(err)
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		fields["kind"] = string(apiErr.Kind)
		if apiErr.StatusCode != 0 {
			fields[log.FieldStatusCode] = apiErr.StatusCode
		}
	}
	a.logger.WarnContext(ctx, "Action failed", append(fields.ToSlice(), args...)...)
}

// errorMessage returns the user-facing text of err, or fallback when err
// has none.
func errorMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}

func nonNil(list []core.Spending) []core.Spending {
	if list == nil {
		return []core.Spending{}
	}
	return list
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
