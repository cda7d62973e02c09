package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/ports"
)

const processedTable = "processed_articles"

const createProcessedTable = `CREATE TABLE IF NOT EXISTS processed_articles (
    identity   TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresRepository keeps processed identities in a single Postgres table.
// Statements run in auto-commit mode, so each mark is durable once Exec returns.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var (
	_ ports.ProcessedStore = (*PostgresRepository)(nil)
	_ ports.Pruner         = (*PostgresRepository)(nil)
)

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Init creates the table if it does not exist yet.
func (r *PostgresRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createProcessedTable); err != nil {
		return fmt.Errorf("create processed table: %w", err)
	}
	return nil
}

// HasSeen reports whether the identity was marked before.
func (r *PostgresRepository) HasSeen(ctx context.Context, id domain.Identity) (bool, error) {
	query, args, err := r.builder.
		Select("1").
		From(processedTable).
		Where(sq.Eq{"identity": string(id)}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query processed: %w", err)
	}
	return true, nil
}

// MarkSeen inserts the identity; an existing row is left untouched.
func (r *PostgresRepository) MarkSeen(ctx context.Context, id domain.Identity) error {
	query, args, err := r.builder.
		Insert(processedTable).
		Columns("identity").
		Values(string(id)).
		Suffix("ON CONFLICT (identity) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert processed: %w", err)
	}
	return nil
}

// Prune deletes identities first marked before olderThan.
func (r *PostgresRepository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	query, args, err := r.builder.
		Delete(processedTable).
		Where(sq.Lt{"created_at": olderThan}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune processed: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}
