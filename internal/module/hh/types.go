package hh

import "encoding/json"

// SearchResponse is the HH /vacancies response. Items are decoded one by one
// so a malformed item does not discard the whole page.
type SearchResponse struct {
	Items   []json.RawMessage `json:"items"`
	Found   int               `json:"found"`
	Pages   int               `json:"pages"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

// Vacancy represents a single item from the HH search API
type Vacancy struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	CreatedAt    string  `json:"created_at"`
	PublishedAt  string  `json:"published_at"`
	Salary       *Salary `json:"salary"`
	Area         Ref     `json:"area"`
	AlternateURL string  `json:"alternate_url"`
	Employer     Ref     `json:"employer"`
	Snippet      Snippet `json:"snippet"`
}

// Salary is null when the employer did not publish one; either bound may be null too
type Salary struct {
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Currency string `json:"currency"`
	Gross    *bool  `json:"gross"`
}

// Ref is an id/name pair used for areas and employers
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snippet holds short requirement and responsibility texts with highlight markup
type Snippet struct {
	Requirement    *string `json:"requirement"`
	Responsibility *string `json:"responsibility"`
}

// Bounds resolves the salary range, 0 standing for an unspecified bound
func (s *Salary) Bounds() (from, to int) {
	if s == nil {
		return 0, 0
	}
	return bound(s.From), bound(s.To)
}

func bound(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
