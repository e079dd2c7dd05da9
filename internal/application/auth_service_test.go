package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/chatverse/auth-service/internal/domain/entity"
	"github.com/chatverse/auth-service/pkg/apperr"
	"github.com/chatverse/auth-service/pkg/helpers"
)

// memoryStore mirrors the persistence rules of the real store: BeforeSave on
// every write, duplicate detection on lower-cased email.
type memoryStore struct {
	mu    sync.Mutex
	seq   int
	users map[string]*entity.User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[string]*entity.User)}
}

func (s *memoryStore) Create(ctx context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := u.ValidateNew(); err != nil {
		return err
	}
	if err := u.BeforeSave(true); err != nil {
		return err
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return apperr.New(apperr.KindDuplicateEmail, "email already registered")
		}
	}
	s.seq++
	u.ID = fmt.Sprintf("u-%d", s.seq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = clone(u)
	return nil
}

func (s *memoryStore) Save(ctx context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	if err := u.BeforeSave(false); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()
	s.users[u.ID] = clone(u)
	return nil
}

func (s *memoryStore) FindByID(ctx context.Context, id string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return clone(u), nil
	}
	return nil, apperr.New(apperr.KindNotFound, "user not found")
}

func (s *memoryStore) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "user not found")
}

func (s *memoryStore) FindByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if token != "" && u.VerificationToken == token {
			return clone(u), nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "user not found")
}

func (s *memoryStore) FindByResetTokenHash(ctx context.Context, hash string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if hash != "" && u.PasswordResetTokenHash == hash {
			return clone(u), nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "user not found")
}

func (s *memoryStore) List(ctx context.Context, offset, limit int) ([]*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, clone(u))
	}
	return out, nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	delete(s.users, id)
	return nil
}

func clone(u *entity.User) *entity.User {
	c := *u
	return &c
}

// recordingNotifier captures dispatched emails so tests can assert on the
// verification link and reset secret.
type recordingNotifier struct {
	mu            sync.Mutex
	verifyLinks   []string
	resetSecrets  []string
	verifyTargets []string
}

func (n *recordingNotifier) SendVerificationEmail(ctx context.Context, to, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verifyTargets = append(n.verifyTargets, to)
	n.verifyLinks = append(n.verifyLinks, link)
	return nil
}

func (n *recordingNotifier) SendPasswordResetEmail(ctx context.Context, to, secret string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetSecrets = append(n.resetSecrets, secret)
	return nil
}

func (n *recordingNotifier) lastResetSecret() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.resetSecrets) == 0 {
		return ""
	}
	return n.resetSecrets[len(n.resetSecrets)-1]
}

func (n *recordingNotifier) verifyCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.verifyLinks)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(new(strings.Builder))
	return l
}

func newTestAuthService() (*AuthService, *memoryStore, *recordingNotifier) {
	store := newMemoryStore()
	notifier := &recordingNotifier{}
	jwt := helpers.NewJWTManager("access", "refresh", 15*time.Minute, 7*24*time.Hour)
	svc := NewAuthService(store, jwt, notifier, testLogger(), "http://localhost:8080")
	return svc, store, notifier
}

func signupInput(email string) SignupInput {
	return SignupInput{
		Fullname:        "Test User",
		Email:           email,
		Password:        "password123",
		PasswordConfirm: "password123",
	}
}

func TestSignup_CreatesAccountAndIssuesTokens(t *testing.T) {
	svc, store, notifier := newTestAuthService()
	ctx := context.Background()

	profile, pair, err := svc.Signup(ctx, signupInput("new@example.com"))
	require.NoError(t, err)
	require.NotEmpty(t, profile.ID)
	require.Equal(t, "new@example.com", profile.Email)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.Equal(t, pair.AccessToken, profile.AccessToken)

	u, err := store.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	require.False(t, u.IsVerified)
	require.Len(t, u.VerificationToken, 64) // 32 random bytes, hex
	require.NotEqual(t, "password123", u.PasswordHash)

	require.Equal(t, 1, notifier.verifyCount())
	require.Contains(t, notifier.verifyLinks[0], "/api/auth/verify-email?token="+u.VerificationToken)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, signupInput("dupe@example.com"))
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, signupInput("dupe@example.com"))
	require.True(t, apperr.Is(err, apperr.KindDuplicateEmail))
}

func TestLogin_WrongEmailAndWrongPasswordLookAlike(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, signupInput("who@example.com"))
	require.NoError(t, err)

	_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "password123")
	_, _, errWrongPw := svc.Login(ctx, "who@example.com", "wrong-password")

	require.True(t, apperr.Is(errUnknown, apperr.KindInvalidCredentials))
	require.True(t, apperr.Is(errWrongPw, apperr.KindInvalidCredentials))
	require.Equal(t, apperr.MessageOf(errUnknown), apperr.MessageOf(errWrongPw))
}

// brokenStore simulates an unreachable database on email lookups.
type brokenStore struct {
	*memoryStore
	findByEmailErr error
}

func (s *brokenStore) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, s.findByEmailErr
}

func TestEmailLookupOutageIsNotACredentialsFailure(t *testing.T) {
	svc, store, _ := newTestAuthService()
	ctx := context.Background()

	outage := errors.New("connection refused")
	svc.Store = &brokenStore{memoryStore: store, findByEmailErr: outage}

	_, _, err := svc.Login(ctx, "who@example.com", "password123")
	require.ErrorIs(t, err, outage)
	require.Equal(t, apperr.KindUnknown, apperr.KindOf(err))

	err = svc.ForgotPassword(ctx, "who@example.com")
	require.ErrorIs(t, err, outage)
	require.Equal(t, apperr.KindUnknown, apperr.KindOf(err))

	err = svc.ResendVerification(ctx, "who@example.com")
	require.ErrorIs(t, err, outage)
	require.Equal(t, apperr.KindUnknown, apperr.KindOf(err))
}

func TestLogin_UnverifiedRotatesTokenAndResends(t *testing.T) {
	svc, store, notifier := newTestAuthService()
	ctx := context.Background()

	profile, _, err := svc.Signup(ctx, signupInput("pending@example.com"))
	require.NoError(t, err)

	before, err := store.FindByID(ctx, profile.ID)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "pending@example.com", "password123")
	require.True(t, apperr.Is(err, apperr.KindEmailNotVerified))

	after, err := store.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	require.NotEqual(t, before.VerificationToken, after.VerificationToken)
	require.Equal(t, 2, notifier.verifyCount()) // signup + failed login
}

func TestVerifyEmailThenLogin(t *testing.T) {
	svc, store, _ := newTestAuthService()
	ctx := context.Background()

	profile, _, err := svc.Signup(ctx, signupInput("soon@example.com"))
	require.NoError(t, err)

	u, err := store.FindByID(ctx, profile.ID)
	require.NoError(t, err)

	require.NoError(t, svc.VerifyEmail(ctx, u.VerificationToken))

	verified, err := store.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	require.True(t, verified.IsVerified)
	require.Empty(t, verified.VerificationToken)

	// Token is single use.
	err = svc.VerifyEmail(ctx, u.VerificationToken)
	require.True(t, apperr.Is(err, apperr.KindInvalidVerificationToken))

	_, pair, err := svc.Login(ctx, "soon@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
}

func TestVerifyEmail_EmptyAndUnknownToken(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	require.True(t, apperr.Is(svc.VerifyEmail(ctx, ""), apperr.KindInvalidVerificationToken))
	require.True(t, apperr.Is(svc.VerifyEmail(ctx, "bogus"), apperr.KindInvalidVerificationToken))
}

func TestResendVerification(t *testing.T) {
	svc, store, notifier := newTestAuthService()
	ctx := context.Background()

	profile, _, err := svc.Signup(ctx, signupInput("resend@example.com"))
	require.NoError(t, err)

	require.NoError(t, svc.ResendVerification(ctx, "resend@example.com"))
	require.Equal(t, 2, notifier.verifyCount())

	// Verified accounts and unknown emails fail identically.
	u, err := store.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	require.NoError(t, svc.VerifyEmail(ctx, u.VerificationToken))

	require.True(t, apperr.Is(svc.ResendVerification(ctx, "resend@example.com"), apperr.KindNotFound))
	require.True(t, apperr.Is(svc.ResendVerification(ctx, "ghost@example.com"), apperr.KindNotFound))
}

func TestRefresh_MintsAccessOnly(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	_, pair, err := svc.Signup(ctx, signupInput("fresh@example.com"))
	require.NoError(t, err)

	access, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, access)

	claims, err := svc.JWT.Verify(access, helpers.AccessToken)
	require.NoError(t, err)
	require.NotEmpty(t, claims.UserID)
}

func TestRefresh_FailuresAreForbidden(t *testing.T) {
	svc, store, _ := newTestAuthService()
	ctx := context.Background()

	profile, pair, err := svc.Signup(ctx, signupInput("gone@example.com"))
	require.NoError(t, err)

	// Access token on the refresh path fails verification.
	_, err = svc.Refresh(ctx, pair.AccessToken)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	// Garbage fails verification.
	_, err = svc.Refresh(ctx, "garbage")
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	// A valid token whose subject is gone fails the lookup.
	require.NoError(t, store.Delete(ctx, profile.ID))
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestForgotPassword_PersistsDigestNotSecret(t *testing.T) {
	svc, store, notifier := newTestAuthService()
	ctx := context.Background()

	profile, _, err := svc.Signup(ctx, signupInput("forgot@example.com"))
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, "forgot@example.com"))

	secret := notifier.lastResetSecret()
	require.Len(t, secret, 16) // 8 random bytes, hex

	u, err := store.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	require.NotEqual(t, secret, u.PasswordResetTokenHash)
	require.Equal(t, helpers.HashResetSecret(secret), u.PasswordResetTokenHash)
	require.NotNil(t, u.PasswordResetExpiresAt)
	require.WithinDuration(t, time.Now().Add(10*time.Minute), *u.PasswordResetExpiresAt, 5*time.Second)

	require.True(t, apperr.Is(svc.ForgotPassword(ctx, "ghost@example.com"), apperr.KindNotFound))
}

func TestResetPassword_RedeemsOnce(t *testing.T) {
	svc, store, notifier := newTestAuthService()
	ctx := context.Background()

	profile, _, err := svc.Signup(ctx, signupInput("reset@example.com"))
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(ctx, "reset@example.com"))
	secret := notifier.lastResetSecret()

	_, pair, err := svc.ResetPassword(ctx, PasswordInput{
		Password:        "brand-new-pass",
		PasswordConfirm: "brand-new-pass",
		ResetToken:      secret,
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	u, err := store.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	require.True(t, u.CorrectPassword("brand-new-pass"))
	require.False(t, u.CorrectPassword("password123"))
	require.Empty(t, u.PasswordResetTokenHash)
	require.Nil(t, u.PasswordResetExpiresAt)
	require.NotNil(t, u.PasswordChangedAt)

	// Replay fails with the same shape as a wrong token.
	_, _, err = svc.ResetPassword(ctx, PasswordInput{
		Password:        "another-pass-1",
		PasswordConfirm: "another-pass-1",
		ResetToken:      secret,
	})
	require.True(t, apperr.Is(err, apperr.KindInvalidResetToken))
}

func TestResetPassword_ExpiredTokenIndistinguishableFromWrong(t *testing.T) {
	svc, store, notifier := newTestAuthService()
	ctx := context.Background()

	profile, _, err := svc.Signup(ctx, signupInput("late@example.com"))
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(ctx, "late@example.com"))
	secret := notifier.lastResetSecret()

	// Force the expiry into the past.
	u, err := store.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	past := time.Now().Add(-time.Minute)
	u.PasswordResetExpiresAt = &past
	require.NoError(t, store.Save(ctx, u))

	_, _, errExpired := svc.ResetPassword(ctx, PasswordInput{
		Password: "whatever-pass", PasswordConfirm: "whatever-pass", ResetToken: secret,
	})
	_, _, errWrong := svc.ResetPassword(ctx, PasswordInput{
		Password: "whatever-pass", PasswordConfirm: "whatever-pass", ResetToken: "0000000000000000",
	})

	require.True(t, apperr.Is(errExpired, apperr.KindInvalidResetToken))
	require.True(t, apperr.Is(errWrong, apperr.KindInvalidResetToken))
	require.Equal(t, apperr.MessageOf(errExpired), apperr.MessageOf(errWrong))
}

func TestUpdatePassword(t *testing.T) {
	svc, store, _ := newTestAuthService()
	ctx := context.Background()

	profile, _, err := svc.Signup(ctx, signupInput("change@example.com"))
	require.NoError(t, err)

	_, _, err = svc.UpdatePassword(ctx, profile.ID, PasswordInput{
		Password: "not-the-password", PasswordConfirm: "not-the-password",
	})
	require.True(t, apperr.Is(err, apperr.KindInvalidCurrentPassword))

	_, pair, err := svc.UpdatePassword(ctx, profile.ID, PasswordInput{
		Password: "password123", PasswordConfirm: "password123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	u, err := store.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, u.PasswordChangedAt)

	_, _, err = svc.UpdatePassword(ctx, "missing-id", PasswordInput{
		Password: "password123", PasswordConfirm: "password123",
	})
	require.True(t, apperr.Is(err, apperr.KindInvalidCredentials))
}

func TestUpdatePassword_RevokesOlderTokens(t *testing.T) {
	svc, store, _ := newTestAuthService()
	ctx := context.Background()

	profile, pair, err := svc.Signup(ctx, signupInput("revoke@example.com"))
	require.NoError(t, err)

	claims, err := svc.JWT.Verify(pair.AccessToken, helpers.AccessToken)
	require.NoError(t, err)

	// The change timestamp lands one second before the update, so a token
	// minted in the same instant already reads as stale.
	time.Sleep(2100 * time.Millisecond)
	_, _, err = svc.UpdatePassword(ctx, profile.ID, PasswordInput{
		Password: "password123", PasswordConfirm: "password123",
	})
	require.NoError(t, err)

	u, err := store.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	require.True(t, u.TokenIssuedBeforePasswordChange(claims.IssuedAt.Time))
}
