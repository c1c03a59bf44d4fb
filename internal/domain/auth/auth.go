// Package auth implements email/password sign-in for the admin dashboard.
// Sessions are opaque random tokens; only their SHA-256 hash is stored, so a
// leaked sessions table cannot be replayed.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors surfaced to the HTTP layer as 401s.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// User is an administrator account. PasswordHash is a bcrypt hash.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is an authenticated admin session. Token is only populated on
// creation; persistence sees TokenHash.
type Session struct {
	Token     string
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Repository persists admin users and sessions.
type Repository interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CreateSession(ctx context.Context, s *Session) error
	FindSessionByTokenHash(ctx context.Context, hash string) (*Session, error)
	DeleteSession(ctx context.Context, hash string) error
}

// Service implements sign-in, session validation, and sign-out.
type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

// NewService creates an auth Service issuing sessions with the given TTL.
func NewService(repo Repository, ttl time.Duration) *Service {
	return &Service{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
}

// HashToken returns the hex SHA-256 of a session token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SignIn verifies the password against the stored bcrypt hash and issues a
// new session. Unknown emails and wrong passwords are indistinguishable to
// the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		// Burn a comparison on a dummy hash so unknown emails cost the same
		// as wrong passwords.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, errors.Wrap(err, "generate session token")
	}

	sess := &Session{
		Token:     token,
		TokenHash: HashToken(token),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "create session")
	}
	return sess, nil
}

// ValidateSession resolves a token to a live session. Expired sessions are
// deleted on sight.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Session, error) {
	hash := HashToken(token)
	sess, err := s.repo.FindSessionByTokenHash(ctx, hash)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if s.now().After(sess.ExpiresAt) {
		_ = s.repo.DeleteSession(ctx, hash)
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// SignOut invalidates the session for the given token. Unknown tokens are
// not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if err := s.repo.DeleteSession(ctx, HashToken(token)); err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// dummyHash is a bcrypt hash of an unguessable value, used to equalize
// timing when the email lookup misses.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("milk-orders-dummy"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()
