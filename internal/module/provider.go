package module

import (
	"context"
	"net/http"

	"github.com/project-tktt/go-vacancies/internal/domain"
)

// Provider is the common interface for all job board clients.
// A Provider is not safe for concurrent use; each instance belongs to one goroutine.
type Provider interface {
	// Source returns the source identifier
	Source() domain.JobSource
	// SetParam validates and stores one query parameter. Rejected keys or values
	// are logged and returned as *domain.ParamError, leaving prior state unchanged.
	SetParam(key, value string) error
	// ResetParams restores the provider's default query parameters
	ResetParams()
	// SetHeaders (re)derives the authorization headers, if the board needs any
	SetHeaders()
	// Fetch performs one request with the current parameters. A non-2xx status is
	// recorded in Status, not returned; only transport failures are errors.
	Fetch(ctx context.Context) error
	// Normalize maps the items of the last successful fetch to records.
	// A failed or empty fetch yields an empty slice.
	Normalize() []domain.Record
	// Status describes the last fetch
	Status() Status
}

// Status is a snapshot of the last fetch of a provider
type Status struct {
	Source domain.JobSource
	// HTTP status code, 0 before the first fetch
	Code int
	// Raw items held by the provider
	Items int
}

// Fetched reports whether the last request got a 2xx answer
func (s Status) Fetched() bool {
	return s.Code >= http.StatusOK && s.Code < http.StatusMultipleChoices
}

// Err classifies the status: nil when there is something to normalize,
// *domain.RequestError for a failed request, domain.ErrNoResults for an empty one.
func (s Status) Err() error {
	if !s.Fetched() {
		return &domain.RequestError{Source: s.Source, Status: s.Code}
	}
	if s.Items == 0 {
		return domain.ErrNoResults
	}
	return nil
}
