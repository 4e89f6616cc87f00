package category

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-account-api/internal/types"
)

var _ CategoryService = (*CategoryServiceImpl)(nil)

type CategoryService interface {
	CreateCategory(ctx context.Context, name string) (*types.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*types.Category, error)
	ListCategories(ctx context.Context) ([]types.Category, error)
}

type CategoryServiceImpl struct {
	logger   *slog.Logger
	repo     CategoryRepo
	cooldown time.Duration
	now      func() time.Time
}

func NewCategoryService(repo CategoryRepo, cooldown time.Duration, logger *slog.Logger) *CategoryServiceImpl {
	return &CategoryServiceImpl{
		logger:   logger,
		repo:     repo,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// NormalizeName removes every whitespace rune, so "Home Decor" is stored as "HomeDecor".
func NormalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
}

func (s *CategoryServiceImpl) CreateCategory(ctx context.Context, name string) (*types.Category, error) {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "CreateCategory")
	defer span.End()

	l := s.logger.With(slog.String("method", "CreateCategory"))

	name = NormalizeName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be blank", types.ErrValidation)
	}

	c, err := s.repo.CreateCategory(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, fmt.Errorf("create category: %w", err)
	}

	l.InfoContext(ctx, "Category created", slog.String("categoryID", c.ID.String()), slog.String("name", c.Name))
	return c, nil
}

func (s *CategoryServiceImpl) UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*types.Category, error) {
	ctx, span := otel.Tracer("CategoryService").Start(ctx, "UpdateCategory", trace.WithAttributes(
		attribute.String("category.id", id.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateCategory"), slog.String("categoryID", id.String()))

	name = NormalizeName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be blank", types.ErrValidation)
	}

	current, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}

	now := s.now()
	cutoff := now.Add(-s.cooldown)
	if current.UpdatedAt.After(cutoff) {
		l.InfoContext(ctx, "Category rename inside cooldown")
		return nil, fmt.Errorf("%w: category changed recently, wait until %s", types.ErrCooldown,
			current.UpdatedAt.Add(s.cooldown).UTC().Format(time.RFC3339))
	}

	c, err := s.repo.RenameCategory(ctx, id, name, now, cutoff)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("rename category: %w", err)
	}

	l.InfoContext(ctx, "Category renamed", slog.String("name", c.Name))
	return c, nil
}

func (s *CategoryServiceImpl) ListCategories(ctx context.Context) ([]types.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
