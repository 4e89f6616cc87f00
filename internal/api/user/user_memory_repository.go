package user

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-account-api/internal/types"
)

var _ UserRepo = (*MemoryUserRepo)(nil)

// MemoryUserRepo keeps users in a go-cache instance with no expiry. It backs
// the "memory" storage driver and the end-to-end tests. Writes are serialised
// by mu so the conditional updates behave like their SQL counterparts.
type MemoryUserRepo struct {
	logger *slog.Logger
	mu     sync.Mutex
	users  *cache.Cache
	now    func() time.Time
}

func NewMemoryUserRepo(logger *slog.Logger) *MemoryUserRepo {
	return &MemoryUserRepo{
		logger: logger,
		users:  cache.New(cache.NoExpiration, 0),
		now:    time.Now,
	}
}

func (r *MemoryUserRepo) load(key string) (types.User, bool) {
	v, ok := r.users.Get(key)
	if !ok {
		return types.User{}, false
	}
	return v.(types.User), true
}

func (r *MemoryUserRepo) save(u types.User) {
	r.users.Set(u.ID.String(), u, cache.NoExpiration)
}

// find returns a copy of the first user matching pred.
func (r *MemoryUserRepo) find(pred func(u types.User) bool) (types.User, bool) {
	for _, item := range r.users.Items() {
		u := item.Object.(types.User)
		if pred(u) {
			return u, true
		}
	}
	return types.User{}, false
}

func notFound() error {
	return fmt.Errorf("%w: user not found", types.ErrNotFound)
}

func (r *MemoryUserRepo) GetUserByID(_ context.Context, userID uuid.UUID) (*types.User, error) {
	u, ok := r.load(userID.String())
	if !ok {
		return nil, notFound()
	}
	return &u, nil
}

func (r *MemoryUserRepo) GetUserByEmail(_ context.Context, email string) (*types.User, error) {
	u, ok := r.find(func(u types.User) bool { return strings.EqualFold(u.Email, email) })
	if !ok {
		return nil, notFound()
	}
	return &u, nil
}

func (r *MemoryUserRepo) GetUserByResetToken(_ context.Context, token string) (*types.User, error) {
	u, ok := r.find(func(u types.User) bool {
		return u.ResetPasswordToken != nil && *u.ResetPasswordToken == token
	})
	if !ok {
		return nil, notFound()
	}
	return &u, nil
}

func (r *MemoryUserRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	_, ok := r.find(func(u types.User) bool { return strings.EqualFold(u.Username, username) })
	return ok, nil
}

func (r *MemoryUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := r.find(func(u types.User) bool { return strings.EqualFold(u.Email, email) })
	return ok, nil
}

func (r *MemoryUserRepo) CreateUser(_ context.Context, params types.NewUserParams) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.find(func(u types.User) bool {
		return strings.EqualFold(u.Username, params.Username) || strings.EqualFold(u.Email, params.Email)
	}); taken {
		return nil, fmt.Errorf("%w: account already exists", types.ErrConflict)
	}

	token := params.VerificationToken
	expires := params.VerificationTokenExpiresAt
	u := types.User{
		ID:                         uuid.New(),
		Username:                   params.Username,
		Email:                      params.Email,
		PasswordHash:               params.PasswordHash,
		VerificationToken:          &token,
		VerificationTokenExpiresAt: &expires,
		CreatedAt:                  r.now(),
	}
	r.save(u)
	r.logger.Debug("User stored in memory", slog.String("userID", u.ID.String()))
	return &u, nil
}

// update applies fn to the stored user under the write lock. fn returns false to leave it unchanged.
func (r *MemoryUserRepo) update(userID uuid.UUID, fn func(u *types.User) bool) (types.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.load(userID.String())
	if !ok {
		return types.User{}, false, notFound()
	}
	if !fn(&u) {
		return u, false, nil
	}
	r.save(u)
	return u, true, nil
}

func (r *MemoryUserRepo) SetVerificationToken(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	_, _, err := r.update(userID, func(u *types.User) bool {
		u.VerificationToken = &token
		u.VerificationTokenExpiresAt = &expiresAt
		return true
	})
	return err
}

func (r *MemoryUserRepo) ConsumeVerificationToken(_ context.Context, userID uuid.UUID, token string, now time.Time) error {
	_, changed, err := r.update(userID, func(u *types.User) bool {
		if u.VerificationToken == nil || *u.VerificationToken != token ||
			u.VerificationTokenExpiresAt == nil || !now.Before(*u.VerificationTokenExpiresAt) {
			return false
		}
		u.IsVerified = true
		u.VerificationToken = nil
		u.VerificationTokenExpiresAt = nil
		return true
	})
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("%w: verification token already used or expired", types.ErrBadRequest)
	}
	return nil
}

func (r *MemoryUserRepo) SetResetToken(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	_, _, err := r.update(userID, func(u *types.User) bool {
		u.ResetPasswordToken = &token
		u.ResetPasswordExpiresAt = &expiresAt
		return true
	})
	return err
}

func (r *MemoryUserRepo) ConsumeResetToken(_ context.Context, userID uuid.UUID, token, passwordHash string, now time.Time) error {
	_, changed, err := r.update(userID, func(u *types.User) bool {
		if u.ResetPasswordToken == nil || *u.ResetPasswordToken != token ||
			u.ResetPasswordExpiresAt == nil || !now.Before(*u.ResetPasswordExpiresAt) {
			return false
		}
		u.PasswordHash = passwordHash
		u.ResetPasswordToken = nil
		u.ResetPasswordExpiresAt = nil
		return true
	})
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("%w: reset token already used or expired", types.ErrBadRequest)
	}
	return nil
}

func (r *MemoryUserRepo) ListUsers(_ context.Context) ([]types.User, error) {
	items := r.users.Items()
	users := make([]types.User, 0, len(items))
	for _, item := range items {
		users = append(users, item.Object.(types.User))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *MemoryUserRepo) UpdateUsername(_ context.Context, userID uuid.UUID, username string, now, cutoff time.Time) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.load(userID.String())
	if !ok {
		return nil, notFound()
	}
	if u.UpdatedAt != nil && u.UpdatedAt.After(cutoff) {
		return nil, fmt.Errorf("%w: username changed too recently", types.ErrCooldown)
	}
	if _, taken := r.find(func(o types.User) bool {
		return o.ID != userID && strings.EqualFold(o.Username, username)
	}); taken {
		return nil, fmt.Errorf("%w: username already taken", types.ErrConflict)
	}

	u.Username = username
	u.UpdatedAt = &now
	r.save(u)
	return &u, nil
}

func (r *MemoryUserRepo) DeleteUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.load(userID.String()); !ok {
		return notFound()
	}
	r.users.Delete(userID.String())
	return nil
}

func (r *MemoryUserRepo) PromoteAdmin(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.find(func(u types.User) bool { return strings.EqualFold(u.Email, email) })
	if !ok {
		return fmt.Errorf("%w: no user with email %s", types.ErrNotFound, email)
	}
	u.IsAdmin = true
	r.save(u)
	return nil
}
