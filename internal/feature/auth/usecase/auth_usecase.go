package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"freshreceipt_backend/internal/feature/auth/domain/entity"
)

const (
	minPasswordLength = 8
	refreshTokenBytes = 32
)

// UserRepository abstracts the persistence layer for user entities.
type UserRepository interface {
	// Create persists a new user. It returns ErrEmailAlreadyExists on a duplicate e-mail.
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail returns ErrUserNotFound when no user matches.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID returns ErrUserNotFound when no user matches.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

// JWTGenerator issues access tokens.
type JWTGenerator interface {
	GenerateToken(userID uuid.UUID, email string) (string, error)
	TTL() time.Duration
}

// SessionMeta describes the client a session is issued to.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// TokenPair is the result of a login or a refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	User         *entity.User
}

// Options tune session issuance.
type Options struct {
	RefreshTTL  time.Duration
	MaxSessions int
}

type authUsecase struct {
	users        UserRepository
	sessions     SessionRepository
	jwtGenerator JWTGenerator
	opts         Options
	now          func() time.Time
}

// NewAuthUsecase creates the auth usecase.
func NewAuthUsecase(users UserRepository, sessions SessionRepository, jwtGenerator JWTGenerator, opts Options) *authUsecase {
	if opts.MaxSessions < 1 {
		opts.MaxSessions = 1
	}
	return &authUsecase{
		users:        users,
		sessions:     sessions,
		jwtGenerator: jwtGenerator,
		opts:         opts,
		now:          time.Now,
	}
}

// NormalizeEmail lower-cases and trims an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrWeakPassword, minPasswordLength)
	}
	return nil
}

// Signup registers a new user with a hashed password. It does not sign in.
func (u *authUsecase) Signup(ctx context.Context, email, password string) (*entity.User, error) {
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &entity.User{ID: uuid.New(), Email: NormalizeEmail(email), Password: string(hashed)}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues an access token plus a refresh session.
// bcrypt runs even for unknown e-mails to keep timing uniform.
func (u *authUsecase) Login(ctx context.Context, email, password string, meta SessionMeta) (*TokenPair, error) {
	user, err := u.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	passwordHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
	if err == nil {
		passwordHash = user.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
	if err != nil || compareErr != nil {
		return nil, ErrInvalidCredentials
	}

	return u.issue(ctx, user, meta)
}

// Refresh rotates a refresh session. Presenting a revoked token revokes every
// session of its owner.
func (u *authUsecase) Refresh(ctx context.Context, refreshToken string, meta SessionMeta) (*TokenPair, error) {
	if !validRefreshToken(refreshToken) {
		return nil, ErrInvalidRefreshToken
	}

	session, err := u.sessions.FindByID(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if session.IsRevoked() {
		slog.Warn("revoked refresh token reused", "user_id", session.UserID)
		if err := u.sessions.RevokeAllByUserID(ctx, session.UserID); err != nil {
			slog.Error("failed to revoke sessions after reuse", "user_id", session.UserID, "error", err)
		}
		return nil, ErrSessionRevoked
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	user, err := u.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if err := u.sessions.Revoke(ctx, session.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to revoke rotated session: %w", err)
	}
	return u.issue(ctx, user, meta)
}

// Logout revokes a refresh session. An unknown or already revoked session is
// treated as signed out.
func (u *authUsecase) Logout(ctx context.Context, refreshToken string) error {
	if !validRefreshToken(refreshToken) {
		return nil
	}
	if err := u.sessions.Revoke(ctx, refreshToken); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

// Me returns the user behind an access token.
func (u *authUsecase) Me(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return u.users.FindByID(ctx, userID)
}

// CleanupExpiredSessions removes expired sessions from the backing store.
func (u *authUsecase) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return u.sessions.DeleteExpired(ctx)
}

func (u *authUsecase) issue(ctx context.Context, user *entity.User, meta SessionMeta) (*TokenPair, error) {
	access, err := u.jwtGenerator.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	count, err := u.sessions.CountByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	for ; count >= int64(u.opts.MaxSessions); count-- {
		if err := u.sessions.DeleteOldestByUserID(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to evict session: %w", err)
		}
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	now := u.now()
	session := &entity.Session{
		ID:        refresh,
		UserID:    user.ID,
		UserAgent: truncate(meta.UserAgent, 512),
		IPAddress: truncate(meta.IPAddress, 45),
		CreatedAt: now,
		ExpiresAt: now.Add(u.opts.RefreshTTL),
	}
	if err := u.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    u.jwtGenerator.TTL(),
		User:         user,
	}, nil
}

func newRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validRefreshToken(token string) bool {
	if len(token) != refreshTokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
