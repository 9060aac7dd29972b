package sj

import "encoding/json"

// SearchResponse is the SuperJob /vacancies response
type SearchResponse struct {
	Objects []json.RawMessage `json:"objects"`
	Total   int               `json:"total"`
	More    bool              `json:"more"`
}

// Vacancy represents a single object from the SuperJob search API
type Vacancy struct {
	ID            int64   `json:"id"`
	Profession    string  `json:"profession"`
	DatePublished int64   `json:"date_published"`
	PaymentFrom   *int    `json:"payment_from"`
	PaymentTo     *int    `json:"payment_to"`
	Currency      string  `json:"currency"`
	Town          Town    `json:"town"`
	Link          string  `json:"link"`
	FirmName      string  `json:"firm_name"`
	Candidat      *string `json:"candidat"`
	Work          *string `json:"work"`
}

type Town struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Bounds resolves the salary range. SuperJob reports a missing bound as 0 or null.
func (v Vacancy) Bounds() (from, to int) {
	return bound(v.PaymentFrom), bound(v.PaymentTo)
}

func bound(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
