package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the format of the startdate/enddate filters.
const DateLayout = "2006-01-02"

type (
	// Spending is a single expenditure record as returned by the API.
	Spending struct {
		ID        int64  `json:"id"`
		UserID    int64  `json:"userid"`
		Count     Amount `json:"count"`
		Type      string `json:"type"`
		Model     string `json:"model"`
		CreatedAt string `json:"createdat"`
	}

	// NewSpending is the create payload: a Spending without the
	// server-assigned id and createdat.
	NewSpending struct {
		UserID int64  `json:"userid"`
		Count  Amount `json:"count"`
		Type   string `json:"type"`
		Model  string `json:"model"`
	}

	// SpendingUpdate carries the updatable fields. A nil field means
	// "no change".
	SpendingUpdate struct {
		UserID *int64  `json:"userid"`
		Count  *Amount `json:"count"`
		Type   *string `json:"type"`
		Model  *string `json:"model"`
	}

	// Page is the list response shape.
	Page struct {
		Data       []Spending `json:"data"`
		TotalPages int        `json:"totalPages"`
	}
)

var (
	ErrInvalidUser   = errors.New("invalid user id")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyType     = errors.New("empty type")
	ErrEmptyModel    = errors.New("empty model")
	ErrInvalidDate   = errors.New("invalid date")
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func (n NewSpending) Validate() error {
	if n.UserID <= 0 {
		return ErrInvalidUser
	}
	if err := n.Count.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(n.Type) == "" {
		return ErrEmptyType
	}
	if strings.TrimSpace(n.Model) == "" {
		return ErrEmptyModel
	}
	return nil
}

// Validate checks only the fields that are set.
func (u SpendingUpdate) Validate() error {
	if u.UserID != nil && *u.UserID <= 0 {
		return ErrInvalidUser
	}
	if u.Count != nil {
		if err := u.Count.Validate(); err != nil {
			return err
		}
	}
	if u.Type != nil && strings.TrimSpace(*u.Type) == "" {
		return ErrEmptyType
	}
	if u.Model != nil && strings.TrimSpace(*u.Model) == "" {
		return ErrEmptyModel
	}
	return nil
}

// IsEmpty reports whether the update changes nothing.
func (u SpendingUpdate) IsEmpty() bool {
	return u.UserID == nil && u.Count == nil && u.Type == nil && u.Model == nil
}

// Apply returns s with the set fields of u applied.
func (u SpendingUpdate) Apply(s Spending) Spending {
	if u.UserID != nil {
		s.UserID = *u.UserID
	}
	if u.Count != nil {
		s.Count = *u.Count
	}
	if u.Type != nil {
		s.Type = *u.Type
	}
	if u.Model != nil {
		s.Model = *u.Model
	}
	return s
}

// Day returns the YYYY-MM-DD part of CreatedAt, or "" if it can't be parsed.
func (s Spending) Day() string {
	if t, err := time.Parse(time.RFC3339, s.CreatedAt); err == nil {
		return t.UTC().Format(DateLayout)
	}
	if len(s.CreatedAt) >= len(DateLayout) {
		if _, err := time.Parse(DateLayout, s.CreatedAt[:len(DateLayout)]); err == nil {
			return s.CreatedAt[:len(DateLayout)]
		}
	}
	return ""
}

// Timestamp formats t the way createdat is stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// TotalPages returns the number of pages needed for total items, never
// less than one.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
