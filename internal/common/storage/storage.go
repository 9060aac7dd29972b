// Package storage persists normalized vacancies with a soft-delete lifecycle.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/project-tktt/go-vacancies/internal/vacancy"
	"github.com/project-tktt/go-vacancies/pkg/logging"
)

// Storage defines the persistence lifecycle every backend honors.
//
// Records are keyed by id_vac. A record is active after Update, marked after
// MarkDeleted and removed by DeleteMarked or DeleteAll. Load only returns
// active records.
type Storage interface {
	// Update upserts a batch of records. Existing records keep their state.
	Update(ctx context.Context, records []domain.Record) error
	// Load returns active records whose text fields contain every keyword.
	Load(ctx context.Context, keywords string) ([]domain.Record, error)
	// MarkDeleted flags one record for deletion. Unknown ids return domain.ErrNotFound.
	MarkDeleted(ctx context.Context, id string) error
	// ClearMarks returns every marked record to active
	ClearMarks(ctx context.Context) error
	// DeleteMarked removes every marked record
	DeleteMarked(ctx context.Context) error
	// DeleteAll removes every record regardless of state
	DeleteAll(ctx context.Context) error
	Close() error
}

// ToStored converts an entity into its persisted representation
func ToStored(e *vacancy.Entity) domain.StoredRecord {
	return domain.StoredRecord{Record: e.Record, State: domain.StateActive}
}

// FromStored rebuilds an entity from its persisted representation
func FromStored(s domain.StoredRecord) *vacancy.Entity {
	return vacancy.NewEntity(s.Record)
}

// Display renders records in the same text format as the ranking collection
func Display(w io.Writer, records []domain.Record) error {
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%s\n\n", vacancy.Render(r)); err != nil {
			return err
		}
	}
	return nil
}

// splitKeywords lower-cases and splits a free-text query into words
func splitKeywords(keywords string) []string {
	return strings.Fields(strings.ToLower(keywords))
}

// matchKeywords reports whether every word occurs in one of the searchable fields
func matchKeywords(r domain.Record, words []string) bool {
	if len(words) == 0 {
		return true
	}

	haystack := strings.ToLower(strings.Join([]string{r.NameVac, r.Employer, r.Place, r.Skills, r.Charge}, "\n"))
	for _, w := range words {
		if !strings.Contains(haystack, w) {
			return false
		}
	}
	return true
}

// prepare drops invalid records and keeps the last occurrence of each id,
// in first-seen order
func prepare(records []domain.Record, logger *logging.Logger) []domain.Record {
	index := make(map[string]int, len(records))
	out := make([]domain.Record, 0, len(records))

	for _, r := range records {
		if err := r.Validate(); err != nil {
			logger.Warn("skipping invalid record", "id_vac", r.IDVac, "error", err)
			continue
		}
		if i, ok := index[r.IDVac]; ok {
			out[i] = r
			continue
		}
		index[r.IDVac] = len(out)
		out = append(out, r)
	}
	return out
}
