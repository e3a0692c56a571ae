// Package repository declares the persistence ports behind the spendings API.
package repository

import (
	"context"
	"errors"

	"spendings/internal/core"
)

// ErrNotFound is returned when no spending has the requested id.
var ErrNotFound = errors.New("spending not found")

// Ports for outbound adapters.
type (
	SpendingReader interface {
		// ListSpendings returns at most limit spendings matching filters,
		// ordered by id, skipping offset, together with the total number of
		// matches.
		ListSpendings(ctx context.Context, filters core.Filters, limit, offset int) ([]core.Spending, int, error)
		GetSpending(ctx context.Context, id int64) (core.Spending, error)
	}

	SpendingWriter interface {
		CreateSpending(ctx context.Context, n core.NewSpending) (core.Spending, error)
		UpdateSpending(ctx context.Context, id int64, u core.SpendingUpdate) (core.Spending, error)
		DeleteSpending(ctx context.Context, id int64) error
	}

	SpendingRepository interface {
		SpendingReader
		SpendingWriter
	}
)
