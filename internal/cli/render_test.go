package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendings/internal/core"
	"spendings/internal/spendings"
)

func TestColorOutputPlainWhenDisabled(t *testing.T) {
	assert.Equal(t, "hello", ColorOutput("hello", "red", "bold", "unknown"))
}

func TestRenderState(t *testing.T) {
	tests := []struct {
		name    string
		state   spendings.State
		want    []string
		notWant []string
	}{
		{
			name:  "empty list",
			state: spendings.InitialState(),
			want:  []string{"No spendings found", "Page 1 of 1"},
		},
		{
			name: "loading with error",
			state: spendings.State{
				Loading:     true,
				Error:       "Failed to fetch spendings",
				CurrentPage: 2,
				TotalPages:  3,
			},
			want: []string{"Loading...", "Error: Failed to fetch spendings", "Page 2 of 3"},
		},
		{
			name: "table",
			state: spendings.State{
				Spendings:   fixtures(),
				CurrentPage: 1,
				TotalPages:  1,
			},
			want:    []string{"ID", "MODEL", "12.5", "claude", "2025-01-10T08:00:00Z"},
			notWant: []string{"No spendings found", "Error:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderState(&buf, tt.state))
			out := buf.String()
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, out, w)
			}
		})
	}
}

func TestRenderSpendingsOneRowPerItem(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSpendings(&buf, fixtures()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1 "))
	assert.True(t, strings.HasPrefix(lines[2], "2 "))
}

func TestCreatedLabel(t *testing.T) {
	assert.Equal(t, "yesterday-ish", createdLabel("yesterday-ish"))
	assert.True(t, strings.HasPrefix(createdLabel("2020-01-01T00:00:00Z"), "2020-01-01T00:00:00Z ("))
	assert.True(t, strings.HasSuffix(createdLabel("2020-01-01T00:00:00Z"), "ago)"))
}

func TestRenderSpending(t *testing.T) {
	var buf bytes.Buffer
	sp := core.Spending{ID: 9, UserID: 3, Count: core.MustAmount("1.5"), Type: "api", Model: "gpt"}
	require.NoError(t, RenderSpending(&buf, sp))

	out := buf.String()
	assert.Contains(t, out, "id:")
	assert.Contains(t, out, "1.5")
	assert.Contains(t, out, "gpt")
}
