package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chatverse/auth-service/internal/domain/entity"
	"github.com/chatverse/auth-service/internal/domain/repository"
	"github.com/chatverse/auth-service/pkg/apperr"
	"github.com/chatverse/auth-service/pkg/helpers"
)

const resetTokenTTL = 10 * time.Minute

// Notifier dispatches outbound email. Dispatch is fire-and-forget with
// respect to the caller's response: implementations queue and retry on their
// own, and AuthService only logs a failed handoff.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, to, link string) error
	SendPasswordResetEmail(ctx context.Context, to, secret string) error
}

// AuthService orchestrates the credential and session lifecycle flows.
type AuthService struct {
	Store    repository.CredentialStore
	JWT      *helpers.JWTManager
	Notifier Notifier
	Logger   *logrus.Logger
	BaseURL  string
}

func NewAuthService(store repository.CredentialStore, jwt *helpers.JWTManager, notifier Notifier, logger *logrus.Logger, baseURL string) *AuthService {
	return &AuthService{Store: store, JWT: jwt, Notifier: notifier, Logger: logger, BaseURL: baseURL}
}

// TokenPair is one minted access/refresh pair. The refresh token travels
// only in a cookie; the access token only in the response body.
type TokenPair struct {
	AccessToken   string
	AccessExpiry  time.Time
	RefreshToken  string
	RefreshExpiry time.Time
}

// Profile is the public projection of a user returned by token-issuing
// flows. Hashes and one-time secrets never leave the store layer.
type Profile struct {
	ID          string      `json:"id"`
	Fullname    string      `json:"fullname"`
	Email       string      `json:"email"`
	Pic         string      `json:"pic"`
	Role        entity.Role `json:"role"`
	AccessToken string      `json:"accessToken"`
}

type SignupInput struct {
	Fullname        string
	Email           string
	Password        string
	PasswordConfirm string
	Country         string
	Phone           string
	PhoneCode       string
}

type PasswordInput struct {
	Password        string
	PasswordConfirm string
	ResetToken      string
}

// Signup persists a new local account, issues a verification token, sends
// the verification email best-effort, and returns a freshly minted pair.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Profile, TokenPair, error) {
	u := &entity.User{
		Fullname:  in.Fullname,
		Email:     in.Email,
		Country:   in.Country,
		Phone:     in.Phone,
		PhoneCode: in.PhoneCode,
	}
	u.SetPassword(in.Password, in.PasswordConfirm)

	if err := s.Store.Create(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}
	s.Logger.WithField("user_id", u.ID).Info("user created")

	if err := s.issueVerificationToken(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}
	return s.createSendToken(u)
}

// Login authenticates a local account. An unverified account never logs in:
// it gets a fresh verification token and email, then the call fails. The
// side effect is intentional and survives the failure.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Profile, TokenPair, error) {
	u, err := s.Store.FindByEmail(ctx, email)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, TokenPair{}, err
	}
	if err != nil || !u.CorrectPassword(password) {
		s.Logger.WithField("email", email).Warn("invalid login attempt")
		return nil, TokenPair{}, apperr.New(apperr.KindInvalidCredentials, "invalid email or password")
	}

	if !u.IsVerified {
		if err := s.issueVerificationToken(ctx, u); err != nil {
			return nil, TokenPair{}, err
		}
		s.Logger.WithField("email", email).Warn("email not verified, verification email sent")
		return nil, TokenPair{}, apperr.New(apperr.KindEmailNotVerified, "email not verified, verification email sent")
	}

	s.Logger.WithField("user_id", u.ID).Info("login successful")
	return s.createSendToken(u)
}

// Refresh mints a new access token from a refresh token. The refresh token
// itself is not rotated. Every failure is a Forbidden, not an Unauthorized:
// the refresh path is deliberately asymmetric with the auth gate.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.JWT.Verify(refreshToken, helpers.RefreshToken)
	if err != nil {
		return "", apperr.Wrap(apperr.KindForbidden, "invalid refresh token", err)
	}
	u, err := s.Store.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", apperr.Wrap(apperr.KindForbidden, "invalid refresh token", err)
	}
	access, _, err := s.JWT.Sign(u.ID, helpers.AccessToken)
	if err != nil {
		return "", err
	}
	s.Logger.WithField("user_id", u.ID).Info("access token refreshed")
	return access, nil
}

// VerifyEmail consumes a verification token, flipping the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperr.New(apperr.KindInvalidVerificationToken, "invalid verification token")
	}
	u, err := s.Store.FindByVerificationToken(ctx, token)
	if err != nil {
		return apperr.Wrap(apperr.KindInvalidVerificationToken, "invalid verification token", err)
	}
	u.MarkVerified()
	if err := s.Store.Save(ctx, u); err != nil {
		return err
	}
	s.Logger.WithField("user_id", u.ID).Info("email verified")
	return nil
}

// ResendVerification regenerates the verification token for an unverified
// account and resends the email. Unknown or already-verified emails are a
// NotFound.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	u, err := s.Store.FindByEmail(ctx, email)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	if err != nil || u.IsVerified {
		return apperr.New(apperr.KindNotFound, "user not found or already verified")
	}
	return s.issueVerificationToken(ctx, u)
}

// ForgotPassword issues a short reset secret. Only its digest and a
// ten-minute expiry are persisted; the plaintext goes out in the email and
// nowhere else.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		s.Logger.WithField("email", email).Warn("forgot password for unknown email")
		return apperr.New(apperr.KindNotFound, "user not found")
	}

	secret, err := helpers.GenResetSecret()
	if err != nil {
		return err
	}
	u.SetResetToken(helpers.HashResetSecret(secret), time.Now().Add(resetTokenTTL))
	if err := s.Store.Save(ctx, u); err != nil {
		return err
	}

	s.dispatch("password reset", u.Email, func(ctx context.Context) error {
		return s.Notifier.SendPasswordResetEmail(ctx, u.Email, secret)
	})
	return nil
}

// ResetPassword redeems a reset secret. Wrong and expired tokens are
// indistinguishable to the caller. On success the password is replaced,
// both reset fields are cleared, and a fresh pair is issued.
func (s *AuthService) ResetPassword(ctx context.Context, in PasswordInput) (*Profile, TokenPair, error) {
	invalid := apperr.New(apperr.KindInvalidResetToken, "token is invalid or expired")

	u, err := s.Store.FindByResetTokenHash(ctx, helpers.HashResetSecret(in.ResetToken))
	if err != nil {
		return nil, TokenPair{}, invalid
	}
	if u.ResetTokenExpired(time.Now()) {
		return nil, TokenPair{}, invalid
	}

	u.SetPassword(in.Password, in.PasswordConfirm)
	u.ClearResetToken()
	if err := s.Store.Save(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}
	s.Logger.WithField("user_id", u.ID).Info("password reset")
	return s.createSendToken(u)
}

// UpdatePassword replaces the password of an authenticated subject after
// verifying the submitted current password against the stored hash.
func (s *AuthService) UpdatePassword(ctx context.Context, userID string, in PasswordInput) (*Profile, TokenPair, error) {
	u, err := s.Store.FindByID(ctx, userID)
	if err != nil {
		return nil, TokenPair{}, apperr.Wrap(apperr.KindInvalidCredentials, "user not authenticated", err)
	}
	if !u.CorrectPassword(in.Password) {
		s.Logger.WithField("user_id", userID).Warn("invalid password update attempt")
		return nil, TokenPair{}, apperr.New(apperr.KindInvalidCurrentPassword, "invalid password")
	}

	u.SetPassword(in.Password, in.PasswordConfirm)
	if err := s.Store.Save(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}
	s.Logger.WithField("user_id", u.ID).Info("password updated")
	return s.createSendToken(u)
}

// IssueTokensFor mints a pair for an already-resolved user. The OAuth
// callback path shares this with local login.
func (s *AuthService) IssueTokensFor(u *entity.User) (*Profile, TokenPair, error) {
	return s.createSendToken(u)
}

func (s *AuthService) createSendToken(u *entity.User) (*Profile, TokenPair, error) {
	access, aexp, err := s.JWT.Sign(u.ID, helpers.AccessToken)
	if err != nil {
		return nil, TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.Sign(u.ID, helpers.RefreshToken)
	if err != nil {
		return nil, TokenPair{}, err
	}
	profile := &Profile{
		ID:          u.ID,
		Fullname:    u.Fullname,
		Email:       u.Email,
		Pic:         u.Pic,
		Role:        u.Role,
		AccessToken: access,
	}
	return profile, TokenPair{AccessToken: access, AccessExpiry: aexp, RefreshToken: refresh, RefreshExpiry: rexp}, nil
}

// issueVerificationToken regenerates the single-use verification token,
// invalidating any prior one, and sends the email best-effort.
func (s *AuthService) issueVerificationToken(ctx context.Context, u *entity.User) error {
	token, err := helpers.GenVerificationToken()
	if err != nil {
		return err
	}
	u.VerificationToken = token
	if err := s.Store.Save(ctx, u); err != nil {
		return err
	}

	link := s.BaseURL + "/api/auth/verify-email?token=" + token
	s.dispatch("verification", u.Email, func(ctx context.Context) error {
		return s.Notifier.SendVerificationEmail(ctx, u.Email, link)
	})
	return nil
}

// dispatch hands a notification to the notifier. Failure is logged, never
// propagated: email must not roll back the flow that triggered it.
func (s *AuthService) dispatch(kind, email string, send func(context.Context) error) {
	if s.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := send(ctx); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"email": email, "kind": kind}).Error("notification dispatch failed")
	}
}
