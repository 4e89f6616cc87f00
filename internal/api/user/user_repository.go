package user

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
	"github.com/FACorreiaa/go-account-api/internal/api/auth"
	"github.com/FACorreiaa/go-account-api/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo is the credential store plus the admin-facing operations.
type UserRepo interface {
	auth.CredentialStore

	// ListUsers returns every user ordered by username.
	ListUsers(ctx context.Context) ([]types.User, error)
	// UpdateUsername renames the user only when updated_at is NULL or not after cutoff,
	// stamping updated_at with now. Returns types.ErrCooldown when the window is still open
	// and types.ErrConflict when the name is taken.
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string, now, cutoff time.Time) (*types.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	// PromoteAdmin sets is_admin for the user with the given email.
	PromoteAdmin(ctx context.Context, email string) error
}

const userColumns = `id, username, email, password_hash, is_admin, is_verified,
	verification_token, verification_token_expires_at,
	reset_password_token, reset_password_expires_at, created_at, updated_at`

type PostgresUserRepo struct {
	logger *slog.Logger
	db     database.DBTX
}

func NewPostgresUserRepo(db database.DBTX, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		db:     db,
	}
}

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.IsAdmin,
		&u.IsVerified,
		&u.VerificationToken,
		&u.VerificationTokenExpiresAt,
		&u.ResetPasswordToken,
		&u.ResetPasswordExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func startSpan(ctx context.Context, name, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", "users"),
	)
	return otel.Tracer("UserRepo").Start(ctx, name, trace.WithAttributes(attrs...))
}

func (r *PostgresUserRepo) getOne(ctx context.Context, name, query string, args ...any) (*types.User, error) {
	ctx, span := startSpan(ctx, name, "SELECT")
	defer span.End()

	start := time.Now()
	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	database.ObserveQuery(ctx, name, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user not found", types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		r.logger.ErrorContext(ctx, "Failed to load user", slog.String("method", name), slog.Any("error", err))
		return nil, fmt.Errorf("query user: %w", err)
	}
	span.SetStatus(codes.Ok, "user loaded")
	return u, nil
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return r.getOne(ctx, "GetUserByID", "SELECT "+userColumns+" FROM users WHERE id = $1", userID)
}

func (r *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return r.getOne(ctx, "GetUserByEmail", "SELECT "+userColumns+" FROM users WHERE lower(email) = lower($1)", email)
}

func (r *PostgresUserRepo) GetUserByResetToken(ctx context.Context, token string) (*types.User, error) {
	return r.getOne(ctx, "GetUserByResetToken", "SELECT "+userColumns+" FROM users WHERE reset_password_token = $1", token)
}

func (r *PostgresUserRepo) exists(ctx context.Context, name, query string, arg any) (bool, error) {
	ctx, span := startSpan(ctx, name, "SELECT")
	defer span.End()

	var found bool
	start := time.Now()
	err := r.db.QueryRow(ctx, query, arg).Scan(&found)
	database.ObserveQuery(ctx, name, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return false, fmt.Errorf("check %s: %w", name, err)
	}
	return found, nil
}

func (r *PostgresUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "UsernameExists", "SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = lower($1))", username)
}

func (r *PostgresUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "EmailExists", "SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))", email)
}

func (r *PostgresUserRepo) CreateUser(ctx context.Context, params types.NewUserParams) (*types.User, error) {
	ctx, span := startSpan(ctx, "CreateUser", "INSERT", attribute.String("user.username", params.Username))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateUser"), slog.String("username", params.Username))

	query := `
		INSERT INTO users (username, email, password_hash, verification_token, verification_token_expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	start := time.Now()
	u, err := scanUser(r.db.QueryRow(ctx, query,
		params.Username, params.Email, params.PasswordHash,
		params.VerificationToken, params.VerificationTokenExpiresAt))
	database.ObserveQuery(ctx, "CreateUser", start, err)
	if err != nil {
		if database.IsUniqueViolation(err) {
			l.WarnContext(ctx, "Unique constraint hit on insert")
			span.SetStatus(codes.Error, "conflict")
			return nil, fmt.Errorf("%w: account already exists", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, fmt.Errorf("insert user: %w", err)
	}

	l.DebugContext(ctx, "User inserted", slog.String("userID", u.ID.String()))
	span.SetStatus(codes.Ok, "user created")
	return u, nil
}

func (r *PostgresUserRepo) execOne(ctx context.Context, name string, missing error, query string, args ...any) error {
	ctx, span := startSpan(ctx, name, "UPDATE")
	defer span.End()

	start := time.Now()
	tag, err := r.db.Exec(ctx, query, args...)
	database.ObserveQuery(ctx, name, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exec failed")
		r.logger.ErrorContext(ctx, "User update failed", slog.String("method", name), slog.Any("error", err))
		return fmt.Errorf("%s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return missing
	}
	return nil
}

func (r *PostgresUserRepo) SetVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	return r.execOne(ctx, "SetVerificationToken", fmt.Errorf("%w: user not found", types.ErrNotFound),
		`UPDATE users SET verification_token = $2, verification_token_expires_at = $3 WHERE id = $1`,
		userID, token, expiresAt)
}

func (r *PostgresUserRepo) ConsumeVerificationToken(ctx context.Context, userID uuid.UUID, token string, now time.Time) error {
	return r.execOne(ctx, "ConsumeVerificationToken", fmt.Errorf("%w: verification token already used or expired", types.ErrBadRequest),
		`UPDATE users
		SET is_verified = TRUE, verification_token = NULL, verification_token_expires_at = NULL
		WHERE id = $1 AND verification_token = $2 AND verification_token_expires_at > $3`,
		userID, token, now)
}

func (r *PostgresUserRepo) SetResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	return r.execOne(ctx, "SetResetToken", fmt.Errorf("%w: user not found", types.ErrNotFound),
		`UPDATE users SET reset_password_token = $2, reset_password_expires_at = $3 WHERE id = $1`,
		userID, token, expiresAt)
}

func (r *PostgresUserRepo) ConsumeResetToken(ctx context.Context, userID uuid.UUID, token, passwordHash string, now time.Time) error {
	return r.execOne(ctx, "ConsumeResetToken", fmt.Errorf("%w: reset token already used or expired", types.ErrBadRequest),
		`UPDATE users
		SET password_hash = $3, reset_password_token = NULL, reset_password_expires_at = NULL
		WHERE id = $1 AND reset_password_token = $2 AND reset_password_expires_at > $4`,
		userID, token, passwordHash, now)
}

func (r *PostgresUserRepo) ListUsers(ctx context.Context) ([]types.User, error) {
	ctx, span := startSpan(ctx, "ListUsers", "SELECT")
	defer span.End()

	start := time.Now()
	rows, err := r.db.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY username ASC")
	if err != nil {
		database.ObserveQuery(ctx, "ListUsers", start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			database.ObserveQuery(ctx, "ListUsers", start, err)
			span.RecordError(err)
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, *u)
	}
	err = rows.Err()
	database.ObserveQuery(ctx, "ListUsers", start, err)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	span.SetAttributes(attribute.Int("users.count", len(users)))
	return users, nil
}

func (r *PostgresUserRepo) UpdateUsername(ctx context.Context, userID uuid.UUID, username string, now, cutoff time.Time) (*types.User, error) {
	ctx, span := startSpan(ctx, "UpdateUsername", "UPDATE", attribute.String("db.user.id", userID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdateUsername"), slog.String("userID", userID.String()))

	query := `
		UPDATE users SET username = $2, updated_at = $3
		WHERE id = $1 AND (updated_at IS NULL OR updated_at <= $4)
		RETURNING ` + userColumns
	start := time.Now()
	u, err := scanUser(r.db.QueryRow(ctx, query, userID, username, now, cutoff))
	database.ObserveQuery(ctx, "UpdateUsername", start, err)
	switch {
	case err == nil:
		l.InfoContext(ctx, "Username updated")
		return u, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Either the row vanished or the cooldown window is still open.
		found, existsErr := r.exists(ctx, "UserExists", "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", userID)
		if existsErr != nil {
			return nil, fmt.Errorf("update username: %w", existsErr)
		}
		if !found {
			return nil, fmt.Errorf("%w: user not found", types.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: username changed too recently", types.ErrCooldown)
	case database.IsUniqueViolation(err):
		return nil, fmt.Errorf("%w: username already taken", types.ErrConflict)
	default:
		l.ErrorContext(ctx, "Failed to update username", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, fmt.Errorf("update username: %w", err)
	}
}

func (r *PostgresUserRepo) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return r.execOne(ctx, "DeleteUser", fmt.Errorf("%w: user not found", types.ErrNotFound),
		`DELETE FROM users WHERE id = $1`, userID)
}

func (r *PostgresUserRepo) PromoteAdmin(ctx context.Context, email string) error {
	return r.execOne(ctx, "PromoteAdmin", fmt.Errorf("%w: no user with email %s", types.ErrNotFound, email),
		`UPDATE users SET is_admin = TRUE WHERE lower(email) = lower($1)`, email)
}
