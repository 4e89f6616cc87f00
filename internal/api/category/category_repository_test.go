package category

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-account-api/internal/types"
)

var categoryCols = []string{"id", "name", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresCategoryRepo) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresCategoryRepo(mock, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPostgresCategoryRepo_Create(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Inserted", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO categories (name) VALUES ($1)")).
			WithArgs("books").
			WillReturnRows(pgxmock.NewRows(categoryCols).AddRow(id, "books", ts, ts))

		c, err := repo.CreateCategory(ctx, "books")
		require.NoError(t, err)
		assert.Equal(t, id, c.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate", func(t *testing.T) {
		mock, repo := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO categories")).
			WithArgs("books").
			WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := repo.CreateCategory(ctx, "books")
		assert.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestPostgresCategoryRepo_GetAndRename(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	mock, repo := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM categories WHERE id = $1")).WithArgs(id).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND updated_at <= $4")).
		WithArgs(id, "novels", now, cutoff).
		WillReturnRows(pgxmock.NewRows(categoryCols).AddRow(id, "novels", cutoff, now))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND updated_at <= $4")).
		WithArgs(id, "comics", now, cutoff).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)")).WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.GetCategory(ctx, id)
	assert.ErrorIs(t, err, types.ErrNotFound)

	c, err := repo.RenameCategory(ctx, id, "novels", now, cutoff)
	require.NoError(t, err)
	assert.Equal(t, "novels", c.Name)

	_, err = repo.RenameCategory(ctx, id, "comics", now, cutoff)
	assert.ErrorIs(t, err, types.ErrCooldown)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCategoryRepo_RenameDeleted(t *testing.T) {
	id := uuid.New()
	now := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	mock, repo := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND updated_at <= $4")).
		WithArgs(id, "novels", now, cutoff).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)")).WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.RenameCategory(context.Background(), id, "novels", now, cutoff)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NotErrorIs(t, err, types.ErrCooldown)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCategoryRepo_List(t *testing.T) {
	mock, repo := newMockRepo(t)
	ts := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM categories ORDER BY name ASC")).
		WillReturnRows(pgxmock.NewRows(categoryCols).
			AddRow(uuid.New(), "books", ts, ts).
			AddRow(uuid.New(), "toys", ts, ts))

	list, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
