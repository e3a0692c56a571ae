package memory

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"spendings/internal/core"
	"spendings/internal/repository"
)

var _ repository.SpendingRepository = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Spending
	now    func() time.Time
}

func New(seed ...core.NewSpending) *Store {
	s := &Store{nextID: 1, now: time.Now}
	for _, n := range seed {
		if n.Validate() != nil {
			continue
		}
		s.insert(n)
	}
	return s
}

// NewFromFile seeds the store from a file with one "userid;count;type;model"
// line per spending. A missing file yields an empty store.
func NewFromFile(path string) *Store {
	return New(readSeed(path)...)
}

func (s *Store) ListSpendings(_ context.Context, filters core.Filters, limit, offset int) ([]core.Spending, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []core.Spending
	for _, sp := range s.items {
		if filters.Match(sp) {
			matched = append(matched, sp)
		}
	}
	total := len(matched)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []core.Spending{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]core.Spending(nil), matched[offset:end]...), total, nil
}

func (s *Store) GetSpending(_ context.Context, id int64) (core.Spending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.items[i], nil
	}
	return core.Spending{}, repository.ErrNotFound
}

// CreateSpending stores n with the next id and the current time.
func (s *Store) CreateSpending(_ context.Context, n core.NewSpending) (core.Spending, error) {
	if err := n.Validate(); err != nil {
		return core.Spending{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(n), nil
}

func (s *Store) UpdateSpending(_ context.Context, id int64, u core.SpendingUpdate) (core.Spending, error) {
	if err := u.Validate(); err != nil {
		return core.Spending{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return core.Spending{}, repository.ErrNotFound
	}
	s.items[i] = u.Apply(s.items[i])
	return s.items[i], nil
}

func (s *Store) DeleteSpending(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return nil
}

func (s *Store) insert(n core.NewSpending) core.Spending {
	sp := core.Spending{
		ID:        s.nextID,
		UserID:    n.UserID,
		Count:     n.Count,
		Type:      n.Type,
		Model:     n.Model,
		CreatedAt: core.Timestamp(s.now()),
	}
	s.nextID++
	s.items = append(s.items, sp)
	return sp
}

func (s *Store) index(id int64) int {
	for i, sp := range s.items {
		if sp.ID == id {
			return i
		}
	}
	return -1
}

func readSeed(path string) []core.NewSpending {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.NewSpending
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ";")
		if len(parts) != 4 {
			continue
		}
		userID, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			continue
		}
		count, err := core.ParseAmount(parts[1])
		if err != nil {
			continue
		}
		out = append(out, core.NewSpending{
			UserID: userID,
			Count:  count,
			Type:   strings.TrimSpace(parts[2]),
			Model:  strings.TrimSpace(parts[3]),
		})
	}
	return out
}
