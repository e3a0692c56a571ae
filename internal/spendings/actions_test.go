package spendings

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendings/internal/api"
	"spendings/internal/core"
)

// fakeAPI answers from canned values and records what each call observed in
// the store while the request was "in flight".
type fakeAPI struct {
	mu      sync.Mutex
	t       *testing.T
	actions *Actions

	page    core.Page
	item    core.Spending
	err     error
	calls   []string
	queries []string
	updates []core.SpendingUpdate
}

func (f *fakeAPI) inFlight(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if f.actions != nil {
		s := f.actions.Store().Get()
		assert.True(f.t, s.Loading, "%s: loading must be true while the request is in flight", name)
		assert.Empty(f.t, s.Error, "%s: error must be cleared at begin", name)
	}
}

func (f *fakeAPI) List(_ context.Context, filters core.Filters, page int) (core.Page, error) {
	f.inFlight("list")
	f.mu.Lock()
	f.queries = append(f.queries, core.ListQuery(filters, page))
	f.mu.Unlock()
	return f.page, f.err
}

func (f *fakeAPI) Get(_ context.Context, id int64) (core.Spending, error) {
	f.inFlight("get")
	if f.err != nil {
		return core.Spending{}, f.err
	}
	item := f.item
	if item.ID == 0 {
		item = core.Spending{ID: id, Type: "fetched"}
	}
	return item, nil
}

func (f *fakeAPI) Create(_ context.Context, n core.NewSpending) (core.Spending, error) {
	f.inFlight("create")
	if f.err != nil {
		return core.Spending{}, f.err
	}
	return core.Spending{ID: 42, UserID: n.UserID, Count: n.Count, Type: n.Type, Model: n.Model, CreatedAt: "2025-01-01T00:00:00Z"}, nil
}

func (f *fakeAPI) Update(_ context.Context, id int64, u core.SpendingUpdate) (core.Spending, error) {
	f.inFlight("update")
	f.mu.Lock()
	f.updates = append(f.updates, u)
	f.mu.Unlock()
	if f.err != nil {
		return core.Spending{}, f.err
	}
	return u.Apply(core.Spending{ID: id, UserID: 1, Type: "old", Model: "old"}), nil
}

func (f *fakeAPI) Delete(_ context.Context, id int64) error {
	f.inFlight("delete")
	return f.err
}

func seed() []core.Spending {
	return []core.Spending{
		{ID: 1, UserID: 1, Count: core.MustAmount("1"), Type: "api", Model: "a"},
		{ID: 5, UserID: 1, Count: core.MustAmount("5"), Type: "api", Model: "b"},
		{ID: 7, UserID: 2, Count: core.MustAmount("7"), Type: "ui", Model: "c"},
	}
}

func setup(t *testing.T, f *fakeAPI) *Actions {
	t.Helper()
	st := NewStore()
	st.Update(func(s State) State {
		s.Spendings = seed()
		return s
	})
	f.t = t
	a := New(st, f, nil)
	f.actions = a
	return a
}

func TestInitialState(t *testing.T) {
	s := InitialState()
	assert.Empty(t, s.Spendings)
	assert.NotNil(t, s.Spendings)
	assert.False(t, s.Loading)
	assert.False(t, s.HasError())
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, 1, s.TotalPages)
}

func TestNetworkActionsSuccessClearLoading(t *testing.T) {
	ctx := context.Background()
	n := core.NewSpending{UserID: 1, Count: core.MustAmount("2"), Type: "t", Model: "m"}
	u := core.SpendingUpdate{Type: core.Ptr("x")}
	runs := map[string]func(a *Actions){
		"list":   func(a *Actions) { a.FetchSpendings(ctx, core.Filters{}, 1) },
		"get":    func(a *Actions) { a.FetchSpendingByID(ctx, 5) },
		"create": func(a *Actions) { a.AddSpending(ctx, n) },
		"update": func(a *Actions) { a.UpdateSpending(ctx, 5, u) },
		"delete": func(a *Actions) { a.DeleteSpending(ctx, 5) },
	}
	for name, run := range runs {
		t.Run(name, func(t *testing.T) {
			f := &fakeAPI{page: core.Page{Data: seed(), TotalPages: 1}}
			a := setup(t, f)
			// Leave an error behind to prove begin clears it.
			a.Store().Update(fail("previous failure"))

			run(a)

			s := a.Store().Get()
			assert.False(t, s.Loading)
			assert.Empty(t, s.Error)
			assert.Equal(t, []string{name}, f.calls)
		})
	}
}

func TestNetworkActionsFailure(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		run      func(a *Actions)
		fallback string
	}{
		{"list", func(a *Actions) { a.FetchSpendings(ctx, core.Filters{}, 1) }, FallbackFetch},
		{"get", func(a *Actions) { a.FetchSpendingByID(ctx, 5) }, FallbackFetchOne},
		{"create", func(a *Actions) { a.AddSpending(ctx, core.NewSpending{}) }, FallbackAdd},
		{"update", func(a *Actions) { a.UpdateSpending(ctx, 5, core.SpendingUpdate{}) }, FallbackUpdate},
		{"delete", func(a *Actions) { a.DeleteSpending(ctx, 5) }, FallbackDelete},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/message", func(t *testing.T) {
			f := &fakeAPI{err: &api.Error{Kind: api.KindStatus, StatusCode: 500, Message: "Request failed with status code 500"}}
			a := setup(t, f)

			tt.run(a)

			s := a.Store().Get()
			assert.False(t, s.Loading)
			assert.Equal(t, "Request failed with status code 500", s.Error)
			assert.Equal(t, seed(), s.Spendings, "failure must not touch the list")
		})
		t.Run(tt.name+"/fallback", func(t *testing.T) {
			f := &fakeAPI{err: &api.Error{Kind: api.KindTransport}}
			a := setup(t, f)

			tt.run(a)

			s := a.Store().Get()
			assert.False(t, s.Loading)
			assert.Equal(t, tt.fallback, s.Error)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", errorMessage(errors.New("boom"), "fb"))
	assert.Equal(t, "fb", errorMessage(errors.New(""), "fb"))
	assert.Equal(t, "fb", errorMessage(&api.Error{}, "fb"))
	assert.Equal(t, "fb", errorMessage(nil, "fb"))
	assert.Equal(t, "x", errorMessage(&api.Error{Message: "x"}, "fb"))
}

func TestFetchSpendingsReplacesListAndPages(t *testing.T) {
	fresh := []core.Spending{{ID: 100, Type: "api"}}
	f := &fakeAPI{page: core.Page{Data: fresh, TotalPages: 9}}
	a := setup(t, f)

	a.FetchSpendings(context.Background(), core.Filters{Type: core.Ptr("api"), UserID: core.Ptr(int64(0))}, 2)

	s := a.Store().Get()
	assert.Equal(t, fresh, s.Spendings)
	assert.Equal(t, 9, s.TotalPages)
	assert.Equal(t, []string{"type=api&page=2"}, f.queries)
}

func TestFetchSpendingsNilDataBecomesEmpty(t *testing.T) {
	f := &fakeAPI{page: core.Page{TotalPages: 1}}
	a := setup(t, f)

	a.FetchSpendings(context.Background(), core.Filters{}, 1)

	s := a.Store().Get()
	assert.NotNil(t, s.Spendings)
	assert.Empty(t, s.Spendings)
}

func TestFetchSpendingByIDUnknownIDLeavesListUnchanged(t *testing.T) {
	f := &fakeAPI{item: core.Spending{ID: 99, Type: "new"}}
	a := setup(t, f)

	a.FetchSpendingByID(context.Background(), 99)

	s := a.Store().Get()
	assert.Equal(t, seed(), s.Spendings)
}

func TestFetchSpendingByIDReplacesMatch(t *testing.T) {
	f := &fakeAPI{}
	a := setup(t, f)

	a.FetchSpendingByID(context.Background(), 7)

	s := a.Store().Get()
	require.Len(t, s.Spendings, 3)
	assert.Equal(t, "fetched", s.Spendings[2].Type)
	assert.Equal(t, seed()[:2], s.Spendings[:2])
}

func TestAddSpendingAppendsAtEnd(t *testing.T) {
	f := &fakeAPI{}
	a := setup(t, f)

	a.AddSpending(context.Background(), core.NewSpending{UserID: 3, Count: core.MustAmount("4"), Type: "t", Model: "m"})

	s := a.Store().Get()
	require.Len(t, s.Spendings, 4)
	assert.Equal(t, int64(42), s.Spendings[3].ID)
	n := 0
	for _, sp := range s.Spendings {
		if sp.ID == 42 {
			n++
		}
	}
	assert.Equal(t, 1, n)
	assert.Equal(t, seed(), s.Spendings[:3])
}

func TestUpdateSpendingReplacesOnlyMatch(t *testing.T) {
	f := &fakeAPI{}
	a := setup(t, f)
	before := a.Store().Get().Spendings

	u := core.SpendingUpdate{Count: core.Ptr(core.MustAmount("50")), Model: core.Ptr("z")}
	a.UpdateSpending(context.Background(), 5, u)

	s := a.Store().Get()
	require.Len(t, s.Spendings, 3)
	assert.Equal(t, before[0], s.Spendings[0])
	assert.Equal(t, before[2], s.Spendings[2])
	assert.Equal(t, int64(5), s.Spendings[1].ID)
	assert.Equal(t, "z", s.Spendings[1].Model)
	assert.Equal(t, []core.SpendingUpdate{u}, f.updates)

	// The previous snapshot was not modified in place.
	assert.Equal(t, "b", before[1].Model)
}

func TestDeleteSpendingPreservesOrder(t *testing.T) {
	f := &fakeAPI{}
	a := setup(t, f)

	a.DeleteSpending(context.Background(), 5)

	s := a.Store().Get()
	ids := make([]int64, 0, len(s.Spendings))
	for _, sp := range s.Spendings {
		ids = append(ids, sp.ID)
	}
	assert.Equal(t, []int64{1, 7}, ids)
}

func TestSetFiltersResetsPage(t *testing.T) {
	a := setup(t, &fakeAPI{})
	for _, page := range []int{1, 4, 17} {
		a.SetCurrentPage(page)
		a.SetFilters(core.Filters{Type: core.Ptr("api")})
		assert.Equal(t, 1, a.Store().Get().CurrentPage)
	}

	a.SetFilters(core.Filters{Model: core.Ptr("m")})
	s := a.Store().Get()
	require.NotNil(t, s.Filters.Type)
	require.NotNil(t, s.Filters.Model)
	assert.Equal(t, "api", *s.Filters.Type)
	assert.Equal(t, "m", *s.Filters.Model)
}

func TestSetCurrentPageKeepsFilters(t *testing.T) {
	a := setup(t, &fakeAPI{})
	a.SetFilters(core.Filters{Type: core.Ptr("api")})
	a.SetCurrentPage(3)

	s := a.Store().Get()
	assert.Equal(t, 3, s.CurrentPage)
	require.NotNil(t, s.Filters.Type)
	assert.Equal(t, "api", *s.Filters.Type)
	assert.Equal(t, seed(), s.Spendings)
}

func TestReloadUsesStateFiltersAndPage(t *testing.T) {
	f := &fakeAPI{page: core.Page{TotalPages: 3}}
	a := setup(t, f)
	a.SetFilters(core.Filters{Model: core.Ptr("m")})
	a.SetCurrentPage(3)

	a.Reload(context.Background())

	assert.Equal(t, []string{"model=m&page=3"}, f.queries)
}

func TestSubscribersSeeBeginAndCommit(t *testing.T) {
	f := &fakeAPI{}
	a := setup(t, f)
	var loading []bool
	a.Store().Subscribe(func(s State) { loading = append(loading, s.Loading) })

	a.DeleteSpending(context.Background(), 1)

	assert.Equal(t, []bool{false, true, false}, loading)
}

func TestRefreshByIDs(t *testing.T) {
	f := &fakeAPI{}
	st := NewStore()
	st.Set(State{Spendings: seed(), CurrentPage: 1, TotalPages: 1})
	a := New(st, f, nil, WithRefreshConcurrency(2))

	a.RefreshByIDs(context.Background(), 7, 1, 7)

	s := st.Get()
	assert.False(t, s.Loading)
	assert.Equal(t, "fetched", s.Spendings[0].Type)
	assert.Equal(t, "api", s.Spendings[1].Type)
	assert.Equal(t, "fetched", s.Spendings[2].Type)
	assert.Len(t, f.calls, 2)
}
