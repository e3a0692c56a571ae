package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendings/internal/amqp"
	"spendings/internal/cache"
	"spendings/internal/core"
	"spendings/internal/repository"
	"spendings/internal/repository/memory"
)

type publishedEvent struct {
	id int64
	op amqp.EventOp
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
	closed bool
}

func (p *fakePublisher) PublishSpendingEvent(_ context.Context, id int64, op amqp.EventOp) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{id, op})
	return p.err
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

type countingRepo struct {
	repository.SpendingRepository
	lists int
}

func (r *countingRepo) ListSpendings(ctx context.Context, f core.Filters, limit, offset int) ([]core.Spending, int, error) {
	r.lists++
	return r.SpendingRepository.ListSpendings(ctx, f, limit, offset)
}

func seeded(n int) *memory.Store {
	seed := make([]core.NewSpending, n)
	for i := range seed {
		seed[i] = core.NewSpending{UserID: 1, Count: core.MustAmount("1"), Type: "api", Model: "m"}
	}
	return memory.New(seed...)
}

func TestSpendingServiceListPages(t *testing.T) {
	ctx := context.Background()
	svc := NewSpendingService(seeded(5), nil, nil, 2, nil)

	page, err := svc.ListSpendings(ctx, core.Filters{}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, int64(5), page.Data[0].ID)

	page, err = svc.ListSpendings(ctx, core.Filters{}, 0)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2, "page 0 is read as page 1")

	page, err = svc.ListSpendings(ctx, core.Filters{Type: core.Ptr("ui")}, 1)
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, 1, page.TotalPages)
}

func TestSpendingServiceCachesPagesUntilWrite(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{SpendingRepository: seeded(3)}
	pages := cache.NewLRUCache[core.Page](10, time.Minute)
	svc := NewSpendingService(repo, pages, nil, 10, nil)

	_, err := svc.ListSpendings(ctx, core.Filters{}, 1)
	require.NoError(t, err)
	_, err = svc.ListSpendings(ctx, core.Filters{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists, "second list should hit the cache")

	_, err = svc.CreateSpending(ctx, core.NewSpending{UserID: 2, Count: core.MustAmount("3"), Type: "ui", Model: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0, pages.Size(ctx))

	page, err := svc.ListSpendings(ctx, core.Filters{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.lists)
	assert.Len(t, page.Data, 4)
}

// pausingRepo parks the first list after it has read from the store until
// release is closed.
type pausingRepo struct {
	repository.SpendingRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (r *pausingRepo) ListSpendings(ctx context.Context, f core.Filters, limit, offset int) ([]core.Spending, int, error) {
	items, total, err := r.SpendingRepository.ListSpendings(ctx, f, limit, offset)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return items, total, err
}

func TestSpendingServiceDoesNotCachePageReadBeforeWrite(t *testing.T) {
	ctx := context.Background()
	repo := &pausingRepo{
		SpendingRepository: seeded(1),
		read:               make(chan struct{}),
		release:            make(chan struct{}),
	}
	pages := cache.NewLRUCache[core.Page](10, time.Minute)
	svc := NewSpendingService(repo, pages, nil, 10, nil)

	done := make(chan core.Page)
	go func() {
		page, err := svc.ListSpendings(ctx, core.Filters{}, 1)
		assert.NoError(t, err)
		done <- page
	}()

	<-repo.read
	_, err := svc.CreateSpending(ctx, core.NewSpending{UserID: 2, Count: core.MustAmount("3"), Type: "ui", Model: "x"})
	require.NoError(t, err)
	close(repo.release)

	stale := <-done
	assert.Len(t, stale.Data, 1, "the list in flight saw the store before the create")
	assert.Equal(t, 0, pages.Size(ctx), "a page read before a write must not be cached")

	page, err := svc.ListSpendings(ctx, core.Filters{}, 1)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
}

func TestSpendingServicePublishesWrites(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewSpendingService(seeded(1), nil, pub, 10, nil)

	created, err := svc.CreateSpending(ctx, core.NewSpending{UserID: 2, Count: core.MustAmount("3"), Type: "ui", Model: "x"})
	require.NoError(t, err)
	_, err = svc.UpdateSpending(ctx, created.ID, core.SpendingUpdate{Model: core.Ptr("y")})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSpending(ctx, 1))

	assert.Equal(t, []publishedEvent{
		{created.ID, amqp.OpCreated},
		{created.ID, amqp.OpUpdated},
		{1, amqp.OpDeleted},
	}, pub.events)
}

func TestSpendingServiceFailuresDoNotPublish(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewSpendingService(seeded(0), nil, pub, 10, nil)

	_, err := svc.UpdateSpending(ctx, 9, core.SpendingUpdate{Model: core.Ptr("y")})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.ErrorIs(t, svc.DeleteSpending(ctx, 9), repository.ErrNotFound)
	_, err = svc.CreateSpending(ctx, core.NewSpending{})
	assert.Error(t, err)
	assert.Empty(t, pub.events)
}

func TestSpendingServicePublishErrorKeepsWrite(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewSpendingService(seeded(0), nil, pub, 10, nil)

	created, err := svc.CreateSpending(ctx, core.NewSpending{UserID: 2, Count: core.MustAmount("3"), Type: "ui", Model: "x"})
	require.NoError(t, err)
	_, err = svc.GetSpending(ctx, created.ID)
	assert.NoError(t, err)
}

func TestSpendingServiceClose(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		svc := NewSpendingService(seeded(0), nil, nil, 0, nil)
		assert.NoError(t, svc.Close())
		assert.Equal(t, DefaultPageSize, svc.PageSize())
	})

	t.Run("closes publisher", func(t *testing.T) {
		pub := &fakePublisher{}
		svc := NewSpendingService(seeded(0), nil, pub, 10, nil)
		assert.NoError(t, svc.Close())
		assert.True(t, pub.closed)
	})
}
