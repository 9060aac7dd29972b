package domain

import (
	"strings"
	"time"
)

// DateLayout is the day-precision layout of Record.CreatedAt
const DateLayout = "2006-01-02"

// Record is a vacancy normalized from any provider.
// Salaries of 0 mean the provider did not specify that bound; empty text fields
// mean the provider has no equivalent field.
type Record struct {
	IDVac      string `json:"id_vac" validate:"required,vacancy_id"`
	NameVac    string `json:"name_vac" validate:"required"`
	CreatedAt  string `json:"created_at" validate:"required,datetime=2006-01-02"`
	SalaryFrom int    `json:"salary_from" validate:"min=0"`
	SalaryTo   int    `json:"salary_to" validate:"min=0"`
	Place      string `json:"place"`
	URLVac     string `json:"url_vac"`
	Employer   string `json:"employer"`
	Skills     string `json:"skills"`
	Charge     string `json:"charge"`
}

// JobSource identifies a job board
type JobSource string

const (
	SourceHH JobSource = "hh"
	SourceSJ JobSource = "sj"
)

// Sources lists every supported job board
var Sources = []JobSource{SourceHH, SourceSJ}

// Prefix returns the id prefix used for records of this source, e.g. "hh_"
func (s JobSource) Prefix() string {
	return string(s) + "_"
}

// ID builds a globally unique record id from a provider-native id
func (s JobSource) ID(nativeID string) string {
	return s.Prefix() + nativeID
}

// ParseSource resolves a source name, case-insensitively
func ParseSource(name string) (JobSource, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range Sources {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

// SourceOf recovers the origin provider from a record id
func SourceOf(idVac string) (JobSource, bool) {
	for _, s := range Sources {
		if strings.HasPrefix(idVac, s.Prefix()) && len(idVac) > len(s.Prefix()) {
			return s, true
		}
	}
	return "", false
}

// RecordState is the soft-delete lifecycle tag of a persisted record
type RecordState string

const (
	StateActive  RecordState = "active"
	StateMarked  RecordState = "marked"
	StateDeleted RecordState = "deleted"
)

// CanTransition reports whether a record may move from s to next.
// active -> marked -> deleted, marked -> active; anything -> deleted via delete-all.
// Deleted is terminal.
func (s RecordState) CanTransition(next RecordState) bool {
	switch s {
	case StateActive:
		return next == StateMarked || next == StateDeleted
	case StateMarked:
		return next == StateActive || next == StateDeleted
	default:
		return false
	}
}

// StoredRecord is the persisted representation of a Record
type StoredRecord struct {
	Record
	State     RecordState `json:"state"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Batch is a group of records fetched from one source in one crawl cycle
type Batch struct {
	ID        string    `json:"id"`
	Source    JobSource `json:"source"`
	Records   []Record  `json:"records"`
	FetchedAt time.Time `json:"fetched_at"`
}
