package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wicart/storefront/internal/auth"
	"github.com/wicart/storefront/internal/logger"
	"github.com/wicart/storefront/internal/mq"
	"github.com/wicart/storefront/internal/store"
	"github.com/wicart/storefront/types"
	"go.uber.org/zap"
)

// UserIDCounter is the counter key backing public user IDs.
const UserIDCounter = "userId"

var (
	ErrEmailTaken         = errors.New("email not available")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("email and password are required")
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByUserID(ctx context.Context, userID string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateProfile(ctx context.Context, userID string, profile types.Profile) (types.User, error)
}

// SequenceAllocator hands out monotonically increasing values per key.
type SequenceAllocator interface {
	Next(ctx context.Context, key string) (int64, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

type TokenIssuer interface {
	Issue(identity auth.Identity) (string, time.Time, error)
}

// LoginResult is returned to a client after a successful login.
type LoginResult struct {
	Email  string `json:"email"`
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// UserService encapsulates signup, login and profile use-cases.
type UserService struct {
	users    UserRepository
	counters SequenceAllocator
	hasher   PasswordHasher
	tokens   TokenIssuer
	events   EventPublisher

	dummyOnce sync.Once
	dummy     string
}

func NewUserService(users UserRepository, counters SequenceAllocator, hasher PasswordHasher, tokens TokenIssuer, events EventPublisher) *UserService {
	return &UserService{
		users:    users,
		counters: counters,
		hasher:   hasher,
		tokens:   tokens,
		events:   events,
	}
}

// NormalizeEmail trims and lower-cases an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FormatUserID renders a counter value as a public user ID.
func FormatUserID(seq int64) string {
	return fmt.Sprintf("WI%d", seq)
}

// Signup registers a new account. An address that is already registered fails
// with ErrEmailTaken before any sequence value is allocated; the unique index
// catches the signups that race past the lookup.
func (s *UserService) Signup(ctx context.Context, email, password string) (types.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return types.User{}, ErrMissingCredentials
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return types.User{}, ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	seq, err := s.counters.Next(ctx, UserIDCounter)
	if err != nil {
		return types.User{}, err
	}

	created, err := s.users.Create(ctx, types.User{
		UserID:       FormatUserID(seq),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, ErrEmailTaken
		}
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	logger.From(ctx).Info("user signed up", zap.String("user_id", created.UserID))
	publishEvent(ctx, s.events, mq.ChannelUserSignedUp, map[string]string{
		"userId": created.UserID,
		"email":  created.Email,
	})
	return created, nil
}

// Login checks credentials and issues a token. Unknown addresses and wrong
// passwords both yield ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// same bcrypt work as a wrong password
			if dummy := s.dummyHash(); dummy != "" {
				_, _ = s.hasher.Verify(password, dummy)
			}
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		logger.From(ctx).Warn("stored password hash unusable", zap.String("user_id", user.UserID), zap.Error(err))
		return LoginResult{}, ErrInvalidCredentials
	}
	if !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(auth.Identity{Email: user.Email, UserID: user.UserID})
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	return LoginResult{Email: user.Email, UserID: user.UserID, Token: token}, nil
}

// dummyHash is a hash at the configured cost that no login can match.
func (s *UserService) dummyHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("storefront-unknown-user")
		if err != nil {
			logger.L().Warn("dummy password hash unavailable", zap.Error(err))
			return
		}
		s.dummy = hash
	})
	return s.dummy
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) GetByUserID(ctx context.Context, userID string) (types.User, error) {
	return s.users.GetByUserID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, profile types.Profile) (types.User, error) {
	return s.users.UpdateProfile(ctx, userID, profile)
}
