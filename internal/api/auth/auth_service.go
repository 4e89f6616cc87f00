package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-account-api/app/observability/metrics"
	"github.com/FACorreiaa/go-account-api/internal/notify"
	"github.com/FACorreiaa/go-account-api/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// CredentialStore is the slice of the user store the account lifecycle needs.
type CredentialStore interface {
	IdentityLookup
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*types.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, params types.NewUserParams) (*types.User, error)
	SetVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	// ConsumeVerificationToken marks the user verified and clears the token,
	// only if token still matches and is unexpired at now. Returns
	// types.ErrBadRequest when nothing was consumed.
	ConsumeVerificationToken(ctx context.Context, userID uuid.UUID, token string, now time.Time) error
	SetResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	// ConsumeResetToken swaps the password hash and clears the reset token
	// under the same conditions as ConsumeVerificationToken.
	ConsumeResetToken(ctx context.Context, userID uuid.UUID, token, passwordHash string, now time.Time) error
}

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*types.PublicUser, *Session, error)
	Login(ctx context.Context, email, password string) (*types.PublicUser, *Session, error)
	VerifyEmail(ctx context.Context, userID uuid.UUID, code string) error
	ResendVerification(ctx context.Context, userID uuid.UUID) error
	RequestPasswordReset(ctx context.Context, email string) error
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
}

type AuthServiceImpl struct {
	logger  *slog.Logger
	repo    CredentialStore
	hasher  PasswordHasher
	issuer  TokenIssuer
	secrets SecretGenerator
	mailer  notify.Sender
	policy  TokenPolicy
	now     func() time.Time
	// dummyHash is compared against when the email is unknown, so both
	// login failures cost one bcrypt comparison.
	dummyHash string
}

func NewAuthService(repo CredentialStore, hasher PasswordHasher, issuer TokenIssuer,
	secrets SecretGenerator, mailer notify.Sender, policy TokenPolicy, logger *slog.Logger) (*AuthServiceImpl, error) {
	dummy, err := hasher.Hash("dummy-Passw0rd!")
	if err != nil {
		return nil, fmt.Errorf("hash login placeholder: %w", err)
	}
	return &AuthServiceImpl{
		logger:    logger,
		repo:      repo,
		hasher:    hasher,
		issuer:    issuer,
		secrets:   secrets,
		mailer:    mailer,
		policy:    policy,
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

// Register creates an unverified account, signs the caller in and mails the verification code.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (*types.PublicUser, *Session, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("user.username", username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"), slog.String("username", username))
	l.DebugContext(ctx, "Registering user")

	var usernameTaken, emailTaken bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		usernameTaken, err = s.repo.UsernameExists(gctx, username)
		return err
	})
	g.Go(func() error {
		var err error
		emailTaken, err = s.repo.EmailExists(gctx, email)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "uniqueness check failed")
		return nil, nil, fmt.Errorf("check existing account: %w", err)
	}
	if usernameTaken || emailTaken {
		l.InfoContext(ctx, "Registration conflict", slog.Bool("username_taken", usernameTaken), slog.Bool("email_taken", emailTaken))
		span.SetStatus(codes.Error, "conflict")
		return nil, nil, fmt.Errorf("%w: account already exists", types.ErrConflict)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	code, err := s.secrets.Generate()
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("generate verification token: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, types.NewUserParams{
		Username:                   username,
		Email:                      email,
		PasswordHash:               hash,
		VerificationToken:          code,
		VerificationTokenExpiresAt: s.now().Add(s.policy.VerificationTTL),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create user failed")
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.issuer.Issue(user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("issue session: %w", err)
	}

	s.mailer.Dispatch(ctx, notify.VerificationEmail(user.Email, user.Username, code))
	metrics.Get().RegisterRequestsTotal.Add(ctx, 1)

	l.InfoContext(ctx, "User registered", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "registered")
	public := user.Public()
	return &public, session, nil
}

// Login checks credentials. Unknown email wraps types.ErrNotFound, a wrong
// password wraps types.ErrUnauthenticated; callers show the same text for both.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*types.PublicUser, *Session, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"))
	m := metrics.Get()

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			s.hasher.Compare(password, s.dummyHash)
			m.LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "unknown_email")))
			l.InfoContext(ctx, "Login for unknown email")
			return nil, nil, fmt.Errorf("%w: invalid credentials", types.ErrNotFound)
		}
		span.RecordError(err)
		return nil, nil, fmt.Errorf("load user: %w", err)
	}

	if !s.hasher.Compare(password, user.PasswordHash) {
		m.LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "bad_password")))
		l.InfoContext(ctx, "Login with wrong password", slog.String("userID", user.ID.String()))
		return nil, nil, fmt.Errorf("%w: invalid credentials", types.ErrUnauthenticated)
	}

	session, err := s.issuer.Issue(user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, nil, fmt.Errorf("issue session: %w", err)
	}

	m.LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))
	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID.String()))
	public := user.Public()
	return &public, session, nil
}

// VerifyEmail consumes the verification code. A wrong and an expired code are
// reported identically.
func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, userID uuid.UUID, code string) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "VerifyEmail", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "VerifyEmail"), slog.String("userID", userID.String()))
	m := metrics.Get()

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	now := s.now()
	if !tokenMatches(user.VerificationToken, user.VerificationTokenExpiresAt, code, now) {
		m.EmailVerificationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "rejected")))
		l.InfoContext(ctx, "Verification code rejected")
		return fmt.Errorf("%w: invalid or expired verification code", types.ErrBadRequest)
	}

	if err = s.repo.ConsumeVerificationToken(ctx, userID, code, now); err != nil {
		return fmt.Errorf("consume verification token: %w", err)
	}

	s.mailer.Dispatch(ctx, notify.WelcomeEmail(user.Email, user.Username))
	m.EmailVerificationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "verified")))
	l.InfoContext(ctx, "Email verified")
	return nil
}

// ResendVerification replaces the pending verification code with a fresh one.
func (s *AuthServiceImpl) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "ResendVerification"), slog.String("userID", userID.String()))

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.IsVerified {
		return fmt.Errorf("%w: email already verified", types.ErrBadRequest)
	}

	code, err := s.secrets.Generate()
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}
	if err = s.repo.SetVerificationToken(ctx, userID, code, s.now().Add(s.policy.VerificationTTL)); err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}

	s.mailer.Dispatch(ctx, notify.VerificationEmail(user.Email, user.Username, code))
	l.InfoContext(ctx, "Verification code reissued")
	return nil
}

// RequestPasswordReset stores a one-hour reset token and mails the link.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "RequestPasswordReset")
	defer span.End()

	l := s.logger.With(slog.String("method", "RequestPasswordReset"))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.InfoContext(ctx, "Password reset for unknown email")
			return fmt.Errorf("%w: no account with that email", types.ErrBadRequest)
		}
		span.RecordError(err)
		return fmt.Errorf("load user: %w", err)
	}

	token, err := s.secrets.Generate()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err = s.repo.SetResetToken(ctx, user.ID, token, s.now().Add(s.policy.ResetTTL)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("store reset token: %w", err)
	}

	s.mailer.Dispatch(ctx, notify.PasswordResetEmail(user.Email, user.Username, s.resetLink(token)))
	metrics.Get().PasswordResetsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", "requested")))
	l.InfoContext(ctx, "Password reset requested", slog.String("userID", user.ID.String()))
	return nil
}

// CompletePasswordReset sets a new password if token is the stored, unexpired reset token.
func (s *AuthServiceImpl) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "CompletePasswordReset")
	defer span.End()

	l := s.logger.With(slog.String("method", "CompletePasswordReset"))
	invalid := fmt.Errorf("%w: invalid or expired reset token", types.ErrBadRequest)

	user, err := s.repo.GetUserByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return invalid
		}
		span.RecordError(err)
		return fmt.Errorf("load user by reset token: %w", err)
	}

	now := s.now()
	if !tokenMatches(user.ResetPasswordToken, user.ResetPasswordExpiresAt, token, now) {
		l.InfoContext(ctx, "Expired reset token used", slog.String("userID", user.ID.String()))
		return invalid
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("hash password: %w", err)
	}
	if err = s.repo.ConsumeResetToken(ctx, user.ID, token, hash, now); err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}

	metrics.Get().PasswordResetsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", "completed")))
	l.InfoContext(ctx, "Password reset completed", slog.String("userID", user.ID.String()))
	return nil
}

func (s *AuthServiceImpl) resetLink(token string) string {
	return s.policy.PublicBaseURL + "/api/users/reset-password/" + url.PathEscape(token)
}

// tokenMatches reports whether submitted equals stored and now is before expiresAt.
func tokenMatches(stored *string, expiresAt *time.Time, submitted string, now time.Time) bool {
	if stored == nil || expiresAt == nil || submitted == "" {
		return false
	}
	if !secretsEqual(*stored, submitted) {
		return false
	}
	return now.Before(*expiresAt)
}
