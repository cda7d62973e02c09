package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"FeedNotifier/internal/domain"
)

func newMockRepository(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestPostgresInit(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS processed_articles")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresHasSeen(t *testing.T) {
	t.Parallel()

	const selectSQL = "SELECT 1 FROM processed_articles WHERE identity = $1"
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
		WithArgs("feed||known").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
		WithArgs("feed||unknown").
		WillReturnRows(sqlmock.NewRows([]string{"one"}))

	seen, err := repo.HasSeen(context.Background(), domain.Identity("feed||known"))
	if err != nil || !seen {
		t.Fatalf("HasSeen(known) = (%v, %v)", seen, err)
	}
	seen, err = repo.HasSeen(context.Background(), domain.Identity("feed||unknown"))
	if err != nil || seen {
		t.Fatalf("HasSeen(unknown) = (%v, %v)", seen, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresHasSeenPropagatesErrors(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	mock.ExpectQuery("SELECT 1 FROM processed_articles").
		WillReturnError(errors.New("connection reset"))

	if _, err := repo.HasSeen(context.Background(), domain.Identity("feed||x")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPostgresMarkSeenIsIdempotent(t *testing.T) {
	t.Parallel()

	const insertSQL = "INSERT INTO processed_articles (identity) VALUES ($1) ON CONFLICT (identity) DO NOTHING"
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(insertSQL)).
		WithArgs("feed||a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertSQL)).
		WithArgs("feed||a").
		WillReturnResult(sqlmock.NewResult(0, 0))

	for range 2 {
		if err := repo.MarkSeen(context.Background(), domain.Identity("feed||a")); err != nil {
			t.Fatalf("MarkSeen error: %v", err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresPrune(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t)
	cutoff := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM processed_articles WHERE created_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.Prune(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed rows, got %d", removed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
