package auth

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockRepo struct {
	users    map[string]*User
	sessions map[string]*Session

	createErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		users:    make(map[string]*User),
		sessions: make(map[string]*Session),
	}
}

func (m *mockRepo) FindUserByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, errors.New("no rows")
	}
	return u, nil
}

func (m *mockRepo) CreateSession(_ context.Context, s *Session) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.sessions[s.TokenHash] = s
	return nil
}

func (m *mockRepo) FindSessionByTokenHash(_ context.Context, hash string) (*Session, error) {
	s, ok := m.sessions[hash]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *mockRepo) DeleteSession(_ context.Context, hash string) error {
	delete(m.sessions, hash)
	return nil
}

func addUser(t *testing.T, repo *mockRepo, email, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo.users[email] = &User{
		ID:           "user-1",
		Email:        email,
		PasswordHash: string(hash),
	}
}

func TestSignIn_Success(t *testing.T) {
	repo := newMockRepo()
	addUser(t, repo, "admin@dairy.test", "churn-butter")
	svc := NewService(repo, time.Hour)

	sess, err := svc.SignIn(context.Background(), "admin@dairy.test", "churn-butter")
	require.NoError(t, err)

	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, HashToken(sess.Token), sess.TokenHash)
	assert.Equal(t, "user-1", sess.UserID)
	assert.True(t, sess.ExpiresAt.After(time.Now()))
	assert.Contains(t, repo.sessions, sess.TokenHash)
}

func TestSignIn_WrongPassword(t *testing.T) {
	repo := newMockRepo()
	addUser(t, repo, "admin@dairy.test", "churn-butter")
	svc := NewService(repo, time.Hour)

	_, err := svc.SignIn(context.Background(), "admin@dairy.test", "skimmed")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignIn_UnknownEmail(t *testing.T) {
	svc := NewService(newMockRepo(), time.Hour)

	_, err := svc.SignIn(context.Background(), "nobody@dairy.test", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateSession(t *testing.T) {
	repo := newMockRepo()
	addUser(t, repo, "admin@dairy.test", "churn-butter")
	svc := NewService(repo, time.Hour)

	sess, err := svc.SignIn(context.Background(), "admin@dairy.test", "churn-butter")
	require.NoError(t, err)

	got, err := svc.ValidateSession(context.Background(), sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)

	_, err = svc.ValidateSession(context.Background(), "bogus-token")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestValidateSession_ExpiredIsDeleted(t *testing.T) {
	repo := newMockRepo()
	addUser(t, repo, "admin@dairy.test", "churn-butter")
	svc := NewService(repo, time.Hour)

	sess, err := svc.SignIn(context.Background(), "admin@dairy.test", "churn-butter")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.ValidateSession(context.Background(), sess.Token)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.NotContains(t, repo.sessions, sess.TokenHash, "expired session removed")
}

func TestSignOut(t *testing.T) {
	repo := newMockRepo()
	addUser(t, repo, "admin@dairy.test", "churn-butter")
	svc := NewService(repo, time.Hour)

	sess, err := svc.SignIn(context.Background(), "admin@dairy.test", "churn-butter")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(context.Background(), sess.Token))

	_, err = svc.ValidateSession(context.Background(), sess.Token)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSignOut_UnknownTokenIsNoop(t *testing.T) {
	svc := NewService(newMockRepo(), time.Hour)
	require.NoError(t, svc.SignOut(context.Background(), "never-issued"))
}
