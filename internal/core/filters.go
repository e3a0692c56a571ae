package core

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Query parameter names shared by the client and the dev API.
const (
	ParamUserID    = "userid"
	ParamStartDate = "startdate"
	ParamEndDate   = "enddate"
	ParamType      = "type"
	ParamModel     = "model"
	ParamPage      = "page"
)

// Filters is the optional predicate set for listing spendings. A nil field
// is unconstrained.
type Filters struct {
	UserID    *int64  `json:"userid,omitempty"`
	StartDate *string `json:"startdate,omitempty"`
	EndDate   *string `json:"enddate,omitempty"`
	Type      *string `json:"type,omitempty"`
	Model     *string `json:"model,omitempty"`
}

// Merge returns f with every non-nil field of patch copied over.
func (f Filters) Merge(patch Filters) Filters {
	if patch.UserID != nil {
		f.UserID = Ptr(*patch.UserID)
	}
	if patch.StartDate != nil {
		f.StartDate = Ptr(*patch.StartDate)
	}
	if patch.EndDate != nil {
		f.EndDate = Ptr(*patch.EndDate)
	}
	if patch.Type != nil {
		f.Type = Ptr(*patch.Type)
	}
	if patch.Model != nil {
		f.Model = Ptr(*patch.Model)
	}
	return f
}

// Values serializes the filters as query parameters. Only truthy values are
// included: a zero user id or an empty string is treated the same as an
// absent filter.
func (f Filters) Values() url.Values {
	v := url.Values{}
	if f.UserID != nil && *f.UserID != 0 {
		v.Set(ParamUserID, strconv.FormatInt(*f.UserID, 10))
	}
	setString := func(key string, s *string) {
		if s != nil && *s != "" {
			v.Set(key, *s)
		}
	}
	setString(ParamStartDate, f.StartDate)
	setString(ParamEndDate, f.EndDate)
	setString(ParamType, f.Type)
	setString(ParamModel, f.Model)
	return v
}

// ListQuery builds the list query string: the truthy filters followed by
// page.
func ListQuery(f Filters, page int) string {
	q := f.Values().Encode()
	p := ParamPage + "=" + strconv.Itoa(page)
	if q == "" {
		return p
	}
	return q + "&" + p
}

// ParseFilters reads filters from query parameters. Empty values are
// ignored; malformed user ids and dates are reported.
func ParseFilters(q url.Values) (Filters, error) {
	var f Filters
	if s := strings.TrimSpace(q.Get(ParamUserID)); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Filters{}, ErrInvalidUser
		}
		f.UserID = &id
	}
	for _, d := range []struct {
		key string
		dst **string
	}{
		{ParamStartDate, &f.StartDate},
		{ParamEndDate, &f.EndDate},
	} {
		s := strings.TrimSpace(q.Get(d.key))
		if s == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, s); err != nil {
			return Filters{}, ErrInvalidDate
		}
		*d.dst = Ptr(s)
	}
	if s := strings.TrimSpace(q.Get(ParamType)); s != "" {
		f.Type = Ptr(s)
	}
	if s := strings.TrimSpace(q.Get(ParamModel)); s != "" {
		f.Model = Ptr(s)
	}
	return f, nil
}

// Match reports whether s satisfies the truthy filters.
func (f Filters) Match(s Spending) bool {
	if f.UserID != nil && *f.UserID != 0 && s.UserID != *f.UserID {
		return false
	}
	if f.Type != nil && *f.Type != "" && s.Type != *f.Type {
		return false
	}
	if f.Model != nil && *f.Model != "" && s.Model != *f.Model {
		return false
	}
	day := s.Day()
	if f.StartDate != nil && *f.StartDate != "" && day < *f.StartDate {
		return false
	}
	if f.EndDate != nil && *f.EndDate != "" && day > *f.EndDate {
		return false
	}
	return true
}
