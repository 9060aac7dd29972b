package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/project-tktt/go-vacancies/internal/domain"
	"github.com/project-tktt/go-vacancies/pkg/logging"
)

// PostgresStore persists records in a PostgreSQL table
type PostgresStore struct {
	db     *sql.DB
	table  string
	logger *logging.Logger
}

var _ Storage = (*PostgresStore)(nil)

// NewPostgresStore connects to PostgreSQL and creates the table if needed
func NewPostgresStore(ctx context.Context, connStr, tableName string, logger *logging.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{
		db:     db,
		table:  pq.QuoteIdentifier(tableName),
		logger: logger.With("storage", "postgres", "table", tableName),
	}

	if err := store.ensureTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure table: %w", err)
	}

	return store, nil
}

// ensureTable creates the vacancies table if it doesn't exist
func (s *PostgresStore) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL,
			id_vac TEXT PRIMARY KEY,
			name_vac TEXT NOT NULL,
			created_at DATE NOT NULL,
			salary_from INTEGER NOT NULL DEFAULT 0,
			salary_to INTEGER NOT NULL DEFAULT 0,
			place TEXT NOT NULL DEFAULT '',
			url_vac TEXT NOT NULL DEFAULT '',
			employer TEXT NOT NULL DEFAULT '',
			skills TEXT NOT NULL DEFAULT '',
			charge TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT 'active',
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, s.table)

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Update upserts records in one transaction. State is never touched and
// updated_at only moves when a field actually changed.
func (s *PostgresStore) Update(ctx context.Context, records []domain.Record) error {
	records = prepare(records, s.logger)
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s AS t (
			id_vac, name_vac, created_at, salary_from, salary_to,
			place, url_vac, employer, skills, charge
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10
		)
		ON CONFLICT (id_vac) DO UPDATE SET
			name_vac = EXCLUDED.name_vac,
			created_at = EXCLUDED.created_at,
			salary_from = EXCLUDED.salary_from,
			salary_to = EXCLUDED.salary_to,
			place = EXCLUDED.place,
			url_vac = EXCLUDED.url_vac,
			employer = EXCLUDED.employer,
			skills = EXCLUDED.skills,
			charge = EXCLUDED.charge,
			updated_at = CASE
				WHEN (t.name_vac, t.created_at, t.salary_from, t.salary_to, t.place, t.url_vac, t.employer, t.skills, t.charge)
					IS DISTINCT FROM
					(EXCLUDED.name_vac, EXCLUDED.created_at, EXCLUDED.salary_from, EXCLUDED.salary_to, EXCLUDED.place, EXCLUDED.url_vac, EXCLUDED.employer, EXCLUDED.skills, EXCLUDED.charge)
				THEN NOW()
				ELSE t.updated_at
			END
	`, s.table)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.IDVac, r.NameVac, r.CreatedAt, r.SalaryFrom, r.SalaryTo,
			r.Place, r.URLVac, r.Employer, r.Skills, r.Charge,
		)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", r.IDVac, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Debug("records upserted", "count", len(records))
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, keywords string) ([]domain.Record, error) {
	where, args := keywordClause(splitKeywords(keywords), 2)

	query := fmt.Sprintf(`
		SELECT id_vac, name_vac, created_at, salary_from, salary_to,
			place, url_vac, employer, skills, charge
		FROM %s
		WHERE state = $1%s
		ORDER BY seq
	`, s.table, where)

	rows, err := s.db.QueryContext(ctx, query, append([]any{string(domain.StateActive)}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := []domain.Record{}
	for rows.Next() {
		var (
			r         domain.Record
			createdAt time.Time
		)
		if err := rows.Scan(
			&r.IDVac, &r.NameVac, &createdAt, &r.SalaryFrom, &r.SalaryTo,
			&r.Place, &r.URLVac, &r.Employer, &r.Skills, &r.Charge,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.CreatedAt = createdAt.Format(domain.DateLayout)
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkDeleted(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET state = $1, updated_at = NOW() WHERE id_vac = $2 AND state = $3`, s.table)

	res, err := s.db.ExecContext(ctx, query, string(domain.StateMarked), id, string(domain.StateActive))
	if err != nil {
		return fmt.Errorf("mark %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	var exists bool
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id_vac = $1)`, s.table), id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("mark %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ClearMarks(ctx context.Context) error {
	query := fmt.Sprintf(`UPDATE %s SET state = $1, updated_at = NOW() WHERE state = $2`, s.table)

	if _, err := s.db.ExecContext(ctx, query, string(domain.StateActive), string(domain.StateMarked)); err != nil {
		return fmt.Errorf("clear marks: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteMarked(ctx context.Context) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE state = $1`, s.table)

	res, err := s.db.ExecContext(ctx, query, string(domain.StateMarked))
	if err != nil {
		return fmt.Errorf("delete marked: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Info("marked records deleted", "count", n)
	}
	return nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table)); err != nil {
		return fmt.Errorf("delete all: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

var keywordColumns = []string{"name_vac", "employer", "place", "skills", "charge"}

// keywordClause builds one ILIKE group per word, numbering placeholders from first
func keywordClause(words []string, first int) (string, []any) {
	if len(words) == 0 {
		return "", nil
	}

	var (
		b    strings.Builder
		args = make([]any, 0, len(words))
	)
	for i, w := range words {
		n := first + i
		ors := make([]string, len(keywordColumns))
		for j, col := range keywordColumns {
			ors[j] = fmt.Sprintf("%s ILIKE $%d", col, n)
		}
		fmt.Fprintf(&b, " AND (%s)", strings.Join(ors, " OR "))
		args = append(args, "%"+escapeLike(w)+"%")
	}
	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
