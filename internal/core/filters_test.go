package core

import (
	"net/url"
	"testing"
)

func TestListQueryOmitsFalsyFilters(t *testing.T) {
	f := Filters{Type: Ptr("api"), UserID: Ptr(int64(0))}
	if got, want := ListQuery(f, 2), "type=api&page=2"; got != want {
		t.Fatalf("ListQuery = %q, want %q", got, want)
	}
}

func TestListQuery(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		page    int
		want    string
	}{
		{"no filters", Filters{}, 1, "page=1"},
		{"empty strings dropped", Filters{Model: Ptr(""), StartDate: Ptr("")}, 3, "page=3"},
		{
			name: "all filters",
			filters: Filters{
				UserID:    Ptr(int64(7)),
				StartDate: Ptr("2025-01-01"),
				EndDate:   Ptr("2025-01-31"),
				Type:      Ptr("api"),
				Model:     Ptr("gpt 4"),
			},
			page: 1,
			want: "enddate=2025-01-31&model=gpt+4&startdate=2025-01-01&type=api&userid=7&page=1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ListQuery(tt.filters, tt.page); got != tt.want {
				t.Errorf("ListQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFiltersMerge(t *testing.T) {
	base := Filters{Type: Ptr("api"), UserID: Ptr(int64(3))}
	merged := base.Merge(Filters{Type: Ptr("ui"), Model: Ptr("m")})

	if *merged.Type != "ui" || *merged.Model != "m" || *merged.UserID != 3 {
		t.Fatalf("unexpected merge: %+v", merged)
	}
	if *base.Type != "api" || base.Model != nil {
		t.Fatalf("merge modified the receiver: %+v", base)
	}
}

func TestParseFilters(t *testing.T) {
	q := url.Values{}
	q.Set("userid", "4")
	q.Set("type", "api")
	q.Set("startdate", "2025-02-01")
	q.Set("model", "  ")
	f, err := ParseFilters(q)
	if err != nil {
		t.Fatalf("ParseFilters: %v", err)
	}
	if f.UserID == nil || *f.UserID != 4 || f.Type == nil || *f.Type != "api" {
		t.Fatalf("unexpected filters: %+v", f)
	}
	if f.Model != nil || f.EndDate != nil {
		t.Fatalf("blank values should stay nil: %+v", f)
	}

	for _, bad := range []url.Values{
		{"userid": {"x"}},
		{"enddate": {"31/01/2025"}},
	} {
		if _, err := ParseFilters(bad); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}

func TestFiltersMatch(t *testing.T) {
	s := Spending{ID: 1, UserID: 2, Type: "api", Model: "m1", CreatedAt: "2025-02-10T08:00:00Z"}
	cases := []struct {
		name string
		f    Filters
		want bool
	}{
		{"empty", Filters{}, true},
		{"zero user is unconstrained", Filters{UserID: Ptr(int64(0))}, true},
		{"user mismatch", Filters{UserID: Ptr(int64(9))}, false},
		{"type match", Filters{Type: Ptr("api")}, true},
		{"model mismatch", Filters{Model: Ptr("m2")}, false},
		{"inside range", Filters{StartDate: Ptr("2025-02-10"), EndDate: Ptr("2025-02-10")}, true},
		{"before start", Filters{StartDate: Ptr("2025-02-11")}, false},
		{"after end", Filters{EndDate: Ptr("2025-02-09")}, false},
	}
	for _, tc := range cases {
		if got := tc.f.Match(s); got != tc.want {
			t.Errorf("%s: Match() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
