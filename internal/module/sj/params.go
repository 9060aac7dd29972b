package sj

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/project-tktt/go-vacancies/internal/domain"
)

// SearchField selects the part of a vacancy a keyword is matched against
type SearchField int

const (
	FieldTitle   SearchField = 1
	FieldCompany SearchField = 2
	FieldDuties  SearchField = 3
)

func (f SearchField) valid() bool {
	return f >= FieldTitle && f <= FieldDuties
}

// SearchKey is a decoded "field=text" keyword
type SearchKey struct {
	Field SearchField
	Text  string
}

// ParseSearchKey decodes "field=text" where field is 1 (title), 2 (company) or 3 (duties)
func ParseSearchKey(s string) (SearchKey, error) {
	field, text, ok := strings.Cut(s, "=")
	if !ok {
		return SearchKey{}, domain.ErrMalformedParam
	}

	n, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil || !SearchField(n).valid() {
		return SearchKey{}, domain.ErrMalformedParam
	}

	return SearchKey{Field: SearchField(n), Text: text}, nil
}

type params struct {
	Keyword string
	Key     *SearchKey
	Count   int
	Period  int
	Town    string
	Page    int
}

const (
	DefaultCount  = 20
	DefaultPeriod = 1
	MaxCount      = 100
)

// periods accepted by the API: 1, 3 or 7 days, 0 for all time
var periods = map[int]bool{0: true, 1: true, 3: true, 7: true}

func defaultParams() params {
	return params{Count: DefaultCount, Period: DefaultPeriod}
}

func (p params) values() url.Values {
	v := url.Values{}
	if p.Keyword != "" {
		v.Set("keyword", p.Keyword)
	}
	if p.Key != nil {
		v.Set("keys[0][srws]", strconv.Itoa(int(p.Key.Field)))
		v.Set("keys[0][skwc]", "and")
		v.Set("keys[0][keys]", p.Key.Text)
	}
	v.Set("count", strconv.Itoa(p.Count))
	v.Set("period", strconv.Itoa(p.Period))
	if p.Town != "" {
		v.Set("town", p.Town)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	return v
}
