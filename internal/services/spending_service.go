package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"spendings/internal/amqp"
	"spendings/internal/cache"
	"spendings/internal/core"
	"spendings/internal/log"
	"spendings/internal/repository"
)

// DefaultPageSize is used when the service is built with a non-positive size.
const DefaultPageSize = 10

// EventPublisher announces writes. *amqp.Client implements it.
type EventPublisher interface {
	PublishSpendingEvent(ctx context.Context, id int64, op amqp.EventOp) error
}

var _ EventPublisher = (*amqp.Client)(nil)

// SpendingService orchestrates spending operations across the repository,
// the list cache and AMQP.
type SpendingService struct {
	repo      repository.SpendingRepository
	pages     cache.Cache[core.Page]
	publisher EventPublisher
	pageSize  int
	logger    *log.Logger

	// generation counts writes. A page read from the repository is cached
	// only if no write happened since the read started.
	cacheMu    sync.Mutex
	generation uint64
}

// NewSpendingService wires the service. pages and publisher may be nil.
func NewSpendingService(repo repository.SpendingRepository, pages cache.Cache[core.Page], publisher EventPublisher, pageSize int, logger *log.Logger) *SpendingService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &SpendingService{
		repo:      repo,
		pages:     pages,
		publisher: publisher,
		pageSize:  pageSize,
		logger:    logger.WithComponent(log.ComponentBackend),
	}
}

// PageSize returns the number of spendings per page.
func (s *SpendingService) PageSize() int {
	return s.pageSize
}

// ListSpendings returns one page of spendings matching filters. Pages
// start at 1; anything lower is treated as the first page.
func (s *SpendingService) ListSpendings(ctx context.Context, filters core.Filters, page int) (core.Page, error) {
	if page < 1 {
		page = 1
	}
	key := core.ListQuery(filters, page)
	gen := s.currentGeneration()
	if s.pages != nil {
		if cached, ok := s.pages.Get(ctx, key); ok {
			s.logger.DebugContext(ctx, "List served from cache", log.FieldQuery, key)
			return cached, nil
		}
	}

	items, total, err := s.repo.ListSpendings(ctx, filters, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return core.Page{}, fmt.Errorf("list spendings: %w", err)
	}
	if items == nil {
		items = []core.Spending{}
	}
	result := core.Page{Data: items, TotalPages: core.TotalPages(total, s.pageSize)}

	s.storePage(ctx, gen, key, result)
	return result, nil
}

func (s *SpendingService) currentGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.generation
}

// storePage caches result unless a write landed after gen was read.
func (s *SpendingService) storePage(ctx context.Context, gen uint64, key string, result core.Page) {
	if s.pages == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.generation != gen {
		s.logger.DebugContext(ctx, "Skipping cache of page read before a write", log.FieldQuery, key)
		return
	}
	s.pages.Set(ctx, key, result)
}

func (s *SpendingService) GetSpending(ctx context.Context, id int64) (core.Spending, error) {
	return s.repo.GetSpending(ctx, id)
}

// CreateSpending saves a spending and publishes a created event
func (s *SpendingService) CreateSpending(ctx context.Context, n core.NewSpending) (core.Spending, error) {
	sp, err := s.repo.CreateSpending(ctx, n)
	if err != nil {
		return core.Spending{}, err
	}
	s.afterWrite(ctx, sp.ID, amqp.OpCreated)
	return sp, nil
}

// UpdateSpending applies the set fields of u and publishes an updated event
func (s *SpendingService) UpdateSpending(ctx context.Context, id int64, u core.SpendingUpdate) (core.Spending, error) {
	sp, err := s.repo.UpdateSpending(ctx, id, u)
	if err != nil {
		return core.Spending{}, err
	}
	s.afterWrite(ctx, id, amqp.OpUpdated)
	return sp, nil
}

// DeleteSpending removes a spending and publishes a deleted event
func (s *SpendingService) DeleteSpending(ctx context.Context, id int64) error {
	if err := s.repo.DeleteSpending(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, id, amqp.OpDeleted)
	return nil
}

// afterWrite drops cached pages and announces the change. Publishing
// failures are logged only: the write already succeeded.
func (s *SpendingService) afterWrite(ctx context.Context, id int64, op amqp.EventOp) {
	s.cacheMu.Lock()
	s.generation++
	if s.pages != nil {
		s.pages.Purge(ctx)
	}
	s.cacheMu.Unlock()

	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping spending event",
			log.FieldSpendingID, id, log.FieldEventOp, string(op))
		return
	}
	if err := s.publisher.PublishSpendingEvent(ctx, id, op); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish spending event",
			log.FieldSpendingID, id,
			log.FieldEventOp, string(op),
			log.FieldError, err)
	}
}

// Close closes the repository and the publisher when they hold resources
func (s *SpendingService) Close() error {
	var errs []error

	if c, ok := s.repo.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close spending service: %v", errs)
	}

	return nil
}
