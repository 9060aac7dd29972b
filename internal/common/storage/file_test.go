package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/project-tktt/go-vacancies/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "vacancies.json"), logging.NewNop())
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func ids(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.IDVac)
	}
	return out
}

func TestFileStore_LoadEmpty(t *testing.T) {
	s := newTestFileStore(t)

	got, err := s.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_UpdateIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)
	batch := []domain.Record{sample("hh_1", "Go developer"), sample("sj_2", "Analyst")}

	require.NoError(t, s.Update(ctx, batch))
	first, err := os.ReadFile(s.path)
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, batch))
	second, err := os.ReadFile(s.path)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	got, err := s.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, batch, got)
}

func TestFileStore_UpdateReplacesAndKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)

	require.NoError(t, s.Update(ctx, []domain.Record{sample("hh_1", "old"), sample("hh_2", "other")}))

	changed := sample("hh_1", "new")
	changed.SalaryTo = 5000
	require.NoError(t, s.Update(ctx, []domain.Record{changed, sample("sj_3", "third")}))

	got, err := s.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"hh_1", "hh_2", "sj_3"}, ids(got))
	assert.Equal(t, changed, got[0])
}

func TestFileStore_UpdatePreservesMark(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)

	require.NoError(t, s.Update(ctx, []domain.Record{sample("hh_1", "Go developer")}))
	require.NoError(t, s.MarkDeleted(ctx, "hh_1"))
	require.NoError(t, s.Update(ctx, []domain.Record{sample("hh_1", "Go developer, again")}))

	got, err := s.Load(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got, "a marked record stays marked after upsert")
}

func TestFileStore_SoftDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)
	require.NoError(t, s.Update(ctx, []domain.Record{sample("hh_1", "one"), sample("hh_2", "two")}))

	require.NoError(t, s.MarkDeleted(ctx, "hh_1"))
	got, err := s.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"hh_2"}, ids(got))

	require.NoError(t, s.ClearMarks(ctx))
	got, err = s.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"hh_1", "hh_2"}, ids(got))

	require.NoError(t, s.MarkDeleted(ctx, "hh_2"))
	require.NoError(t, s.DeleteMarked(ctx))
	require.NoError(t, s.ClearMarks(ctx))
	got, err = s.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"hh_1"}, ids(got), "deleted records do not come back")

	assert.ErrorIs(t, s.MarkDeleted(ctx, "hh_2"), domain.ErrNotFound)
}

func TestFileStore_MarkUnknown(t *testing.T) {
	s := newTestFileStore(t)
	assert.ErrorIs(t, s.MarkDeleted(context.Background(), "hh_404"), domain.ErrNotFound)
}

func TestFileStore_DeleteAll(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)
	require.NoError(t, s.Update(ctx, []domain.Record{sample("hh_1", "one"), sample("hh_2", "two")}))
	require.NoError(t, s.MarkDeleted(ctx, "hh_1"))

	require.NoError(t, s.DeleteAll(ctx))
	require.NoError(t, s.ClearMarks(ctx))

	got, err := s.Load(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_LoadKeywords(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)

	other := sample("sj_2", "Python developer")
	other.Skills = "Django"
	require.NoError(t, s.Update(ctx, []domain.Record{sample("hh_1", "Go developer"), other}))

	got, err := s.Load(ctx, "developer")
	require.NoError(t, err)
	assert.Equal(t, []string{"hh_1", "sj_2"}, ids(got))

	got, err = s.Load(ctx, "PYTHON django")
	require.NoError(t, err)
	assert.Equal(t, []string{"sj_2"}, ids(got))
}

func TestFileStore_CorruptFile(t *testing.T) {
	s := newTestFileStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.path), 0o755))
	require.NoError(t, os.WriteFile(s.path, []byte("{not json"), 0o644))

	_, err := s.Load(context.Background(), "")
	assert.Error(t, err)
}
