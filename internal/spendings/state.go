// Package spendings holds the client-side spendings state and the actions
// that keep it in sync with the remote API.
package spendings

import (
	"spendings/internal/core"
	"spendings/internal/store"
)

// State is one snapshot of everything a view needs. Snapshots are values:
// transitions build a new slice instead of editing Spendings in place.
type State struct {
	Spendings   []core.Spending
	Loading     bool
	Error       string // empty when there is no error
	Filters     core.Filters
	CurrentPage int
	TotalPages  int
}

// HasError reports whether the last action failed.
func (s State) HasError() bool {
	return s.Error != ""
}

// Find returns the spending with the given id.
func (s State) Find(id int64) (core.Spending, bool) {
	for _, sp := range s.Spendings {
		if sp.ID == id {
			return sp, true
		}
	}
	return core.Spending{}, false
}

// InitialState is the snapshot a new store starts from.
func InitialState() State {
	return State{
		Spendings:   []core.Spending{},
		Filters:     core.Filters{},
		CurrentPage: 1,
		TotalPages:  1,
	}
}

// NewStore creates a store holding InitialState.
func NewStore() *store.Store[State] {
	return store.New(InitialState())
}

func begin(s State) State {
	s.Loading = true
	s.Error = ""
	return s
}

func fail(message string) func(State) State {
	return func(s State) State {
		s.Loading = false
		s.Error = message
		return s
	}
}

func replaceByID(list []core.Spending, id int64, with core.Spending) []core.Spending {
	out := make([]core.Spending, len(list))
	for i, sp := range list {
		if sp.ID == id {
			out[i] = with
			continue
		}
		out[i] = sp
	}
	return out
}

func appendSpending(list []core.Spending, sp core.Spending) []core.Spending {
	out := make([]core.Spending, len(list), len(list)+1)
	copy(out, list)
	return append(out, sp)
}

func removeByID(list []core.Spending, id int64) []core.Spending {
	out := make([]core.Spending, 0, len(list))
	for _, sp := range list {
		if sp.ID != id {
			out = append(out, sp)
		}
	}
	return out
}
