package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/project-tktt/go-vacancies/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordClause(t *testing.T) {
	clause, args := keywordClause(nil, 2)
	assert.Empty(t, clause)
	assert.Nil(t, args)

	clause, args = keywordClause([]string{"go", "100%_fit"}, 2)
	assert.Equal(t, []any{"%go%", `%100\%\_fit%`}, args)
	assert.Contains(t, clause, " AND (name_vac ILIKE $2 OR employer ILIKE $2 OR place ILIKE $2 OR skills ILIKE $2 OR charge ILIKE $2)")
	assert.Contains(t, clause, " AND (name_vac ILIKE $3 OR")
}

// Runs against a real database when POSTGRES_URL is set
func TestPostgresStore_Lifecycle(t *testing.T) {
	connStr := os.Getenv("POSTGRES_URL")
	if connStr == "" {
		t.Skip("POSTGRES_URL not set")
	}

	ctx := context.Background()
	table := fmt.Sprintf("vacancies_test_%d", time.Now().UnixNano())

	s, err := NewPostgresStore(ctx, connStr, table, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		s.db.Exec("DROP TABLE IF EXISTS " + s.table)
		s.Close()
	})

	batch := []domain.Record{sample("hh_1", "Go developer"), sample("sj_2", "Analyst")}
	require.NoError(t, s.Update(ctx, batch))
	require.NoError(t, s.Update(ctx, batch))

	got, err := s.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, batch, got)

	got, err = s.Load(ctx, "go DEVELOPER")
	require.NoError(t, err)
	assert.Equal(t, []string{"hh_1"}, ids(got))

	require.NoError(t, s.MarkDeleted(ctx, "hh_1"))
	got, err = s.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"sj_2"}, ids(got))

	require.NoError(t, s.ClearMarks(ctx))
	got, err = s.Load(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, s.MarkDeleted(ctx, "sj_2"))
	require.NoError(t, s.DeleteMarked(ctx))
	assert.ErrorIs(t, s.MarkDeleted(ctx, "sj_2"), domain.ErrNotFound)

	require.NoError(t, s.DeleteAll(ctx))
	got, err = s.Load(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
