package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-account-api/app/db"
	"github.com/FACorreiaa/go-account-api/internal/types"
)

var _ CategoryRepo = (*PostgresCategoryRepo)(nil)

type CategoryRepo interface {
	CreateCategory(ctx context.Context, name string) (*types.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*types.Category, error)
	// RenameCategory applies only when updated_at is not after cutoff; otherwise types.ErrCooldown.
	RenameCategory(ctx context.Context, id uuid.UUID, name string, now, cutoff time.Time) (*types.Category, error)
	ListCategories(ctx context.Context) ([]types.Category, error)
}

type PostgresCategoryRepo struct {
	logger *slog.Logger
	db     database.DBTX
}

func NewPostgresCategoryRepo(db database.DBTX, logger *slog.Logger) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{logger: logger, db: db}
}

func span(ctx context.Context, name, operation string) (context.Context, trace.Span) {
	return otel.Tracer("CategoryRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", "categories"),
	))
}

func scanCategory(row pgx.Row) (*types.Category, error) {
	var c types.Category
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresCategoryRepo) CreateCategory(ctx context.Context, name string) (*types.Category, error) {
	ctx, sp := span(ctx, "CreateCategory", "INSERT")
	defer sp.End()

	start := time.Now()
	c, err := scanCategory(r.db.QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id, name, created_at, updated_at`, name))
	database.ObserveQuery(ctx, "CreateCategory", start, err)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: category already exists", types.ErrConflict)
		}
		sp.RecordError(err)
		sp.SetStatus(codes.Error, "insert failed")
		r.logger.ErrorContext(ctx, "Failed to insert category", slog.Any("error", err))
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *PostgresCategoryRepo) GetCategory(ctx context.Context, id uuid.UUID) (*types.Category, error) {
	ctx, sp := span(ctx, "GetCategory", "SELECT")
	defer sp.End()

	start := time.Now()
	c, err := scanCategory(r.db.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`, id))
	database.ObserveQuery(ctx, "GetCategory", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: category not found", types.ErrNotFound)
		}
		sp.RecordError(err)
		return nil, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

func (r *PostgresCategoryRepo) RenameCategory(ctx context.Context, id uuid.UUID, name string, now, cutoff time.Time) (*types.Category, error) {
	ctx, sp := span(ctx, "RenameCategory", "UPDATE")
	defer sp.End()

	start := time.Now()
	c, err := scanCategory(r.db.QueryRow(ctx,
		`UPDATE categories SET name = $2, updated_at = $3
		WHERE id = $1 AND updated_at <= $4
		RETURNING id, name, created_at, updated_at`, id, name, now, cutoff))
	database.ObserveQuery(ctx, "RenameCategory", start, err)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, pgx.ErrNoRows):
		var found bool
		if existsErr := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&found); existsErr != nil {
			sp.RecordError(existsErr)
			return nil, fmt.Errorf("rename category: %w", existsErr)
		}
		if !found {
			return nil, fmt.Errorf("%w: category not found", types.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: category renamed too recently", types.ErrCooldown)
	case database.IsUniqueViolation(err):
		return nil, fmt.Errorf("%w: category already exists", types.ErrConflict)
	default:
		sp.RecordError(err)
		sp.SetStatus(codes.Error, "update failed")
		return nil, fmt.Errorf("rename category: %w", err)
	}
}

func (r *PostgresCategoryRepo) ListCategories(ctx context.Context) ([]types.Category, error) {
	ctx, sp := span(ctx, "ListCategories", "SELECT")
	defer sp.End()

	start := time.Now()
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at, updated_at FROM categories ORDER BY name ASC`)
	if err != nil {
		database.ObserveQuery(ctx, "ListCategories", start, err)
		sp.RecordError(err)
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]types.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, *c)
	}
	err = rows.Err()
	database.ObserveQuery(ctx, "ListCategories", start, err)
	if err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}
