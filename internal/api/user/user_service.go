package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-account-api/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService covers profile reads and updates for the caller and the admin user management.
type UserService interface {
	GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.PublicUser, error)

	ListUsers(ctx context.Context) ([]types.PublicUser, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.PublicUser, error)
	UpdateUserByID(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.PublicUser, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type UserServiceImpl struct {
	logger   *slog.Logger
	repo     UserRepo
	cooldown time.Duration
	now      func() time.Time
}

func NewUserService(repo UserRepo, cooldown time.Duration, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger:   logger,
		repo:     repo,
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (s *UserServiceImpl) GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "GetCurrentProfile", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &types.UserProfile{Username: user.Username, Email: user.Email}, nil
}

func (s *UserServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.PublicUser, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateProfile", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	user, err := s.rename(ctx, userID, params.Username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "profile updated")
	return user, nil
}

func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]types.PublicUser, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "ListUsers")
	defer span.End()

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]types.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

func (s *UserServiceImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.PublicUser, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	public := user.Public()
	return &public, nil
}

func (s *UserServiceImpl) UpdateUserByID(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.PublicUser, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateUserByID", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	user, err := s.rename(ctx, userID, params.Username)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a non-admin account.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	ctx, span := otel.Tracer("UserService").Start(ctx, "DeleteUser", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "DeleteUser"), slog.String("userID", userID.String()))

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.IsAdmin {
		l.WarnContext(ctx, "Refusing to delete admin user")
		span.SetStatus(codes.Error, "admin target")
		return fmt.Errorf("%w: cannot delete admin user", types.ErrForbidden)
	}
	if err = s.repo.DeleteUser(ctx, userID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete user: %w", err)
	}

	l.InfoContext(ctx, "User deleted")
	return nil
}

// rename enforces the rolling cooldown on updated_at, then the username uniqueness.
func (s *UserServiceImpl) rename(ctx context.Context, userID uuid.UUID, username string) (*types.PublicUser, error) {
	l := s.logger.With(slog.String("method", "rename"), slog.String("userID", userID.String()))

	current, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	// Unchanged name: nothing to write, and the cooldown window stays where it is.
	if username == current.Username {
		public := current.Public()
		return &public, nil
	}

	now := s.now()
	cutoff := now.Add(-s.cooldown)
	if current.UpdatedAt != nil && current.UpdatedAt.After(cutoff) {
		retryAt := current.UpdatedAt.Add(s.cooldown)
		l.InfoContext(ctx, "Profile update inside cooldown", slog.Time("retry_at", retryAt))
		return nil, fmt.Errorf("%w: profile can be updated again after %s", types.ErrCooldown, retryAt.UTC().Format(time.RFC3339))
	}

	taken, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken && !sameName(current.Username, username) {
		return nil, fmt.Errorf("%w: username already taken", types.ErrConflict)
	}

	updated, err := s.repo.UpdateUsername(ctx, userID, username, now, cutoff)
	if err != nil {
		if errors.Is(err, types.ErrCooldown) || errors.Is(err, types.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("update username: %w", err)
	}

	l.InfoContext(ctx, "Username changed", slog.String("username", updated.Username))
	public := updated.Public()
	return &public, nil
}

func sameName(a, b string) bool {
	return strings.EqualFold(a, b)
}
