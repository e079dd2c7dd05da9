package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/chatverse/auth-service/pkg/helpers"
)

// Role is the authorization level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Provider names an external identity provider. Empty means a local
// password-backed account.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
)

// ErrNoIdentityPath rejects a record that carries neither a password nor a
// provider id.
var ErrNoIdentityPath = errors.New("either a password or a provider id must be provided")

// ErrAmbiguousIdentityPath rejects creating a record with both identity paths.
var ErrAmbiguousIdentityPath = errors.New("a new account takes exactly one of password or provider id")

const defaultPic = "https://icon-library.com/images/anonymous-avatar-icon/anonymous-avatar-icon-25.jpg"

// User is the aggregate root owned by the credential store. PasswordHash is
// a bcrypt hash, never plaintext; a pending plaintext password set through
// SetPassword is hashed by BeforeSave and discarded.
type User struct {
	ID                     string
	Fullname               string
	Email                  string
	PasswordHash           string
	Phone                  string
	Country                string
	PhoneCode              string
	Pic                    string
	Role                   Role
	IsVerified             bool
	VerificationToken      string
	Provider               Provider
	ProviderID             string
	PasswordChangedAt      *time.Time
	PasswordResetTokenHash string
	PasswordResetExpiresAt *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time

	newPassword     string
	passwordConfirm string
}

// SetPassword stages a plaintext password for the next save. The confirm
// value is validated upstream and discarded at persist time.
func (u *User) SetPassword(plain, confirm string) {
	u.newPassword = plain
	u.passwordConfirm = confirm
}

// PasswordDirty reports whether a plaintext password is staged.
func (u *User) PasswordDirty() bool { return u.newPassword != "" }

// BeforeSave applies the persistence rules the store runs on every write:
// normalize the email, hash a staged password and discard the confirmation,
// bump PasswordChangedAt on existing records (one second in the past so a
// token minted in the same instant still counts as stale), and reject
// records with no identity path at all.
func (u *User) BeforeSave(isNew bool) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if isNew {
		u.applyDefaults()
	}

	if u.PasswordDirty() {
		hash, err := helpers.HashPassword(u.newPassword)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
		u.newPassword = ""
		u.passwordConfirm = ""
		if !isNew {
			changed := time.Now().Add(-time.Second)
			u.PasswordChangedAt = &changed
		}
	}

	if u.PasswordHash == "" && u.ProviderID == "" {
		return ErrNoIdentityPath
	}
	return nil
}

// ValidateNew enforces that a fresh record takes exactly one identity path.
func (u *User) ValidateNew() error {
	hasPassword := u.PasswordDirty() || u.PasswordHash != ""
	hasProvider := u.ProviderID != ""
	if hasPassword == hasProvider {
		if hasPassword {
			return ErrAmbiguousIdentityPath
		}
		return ErrNoIdentityPath
	}
	return nil
}

// CorrectPassword compares a candidate against the stored hash.
func (u *User) CorrectPassword(candidate string) bool {
	return u.PasswordHash != "" && helpers.CompareHashAndPassword(u.PasswordHash, candidate)
}

// TokenIssuedBeforePasswordChange reports whether a token issued at the
// given instant predates the last password change. Comparison is at unix
// second granularity to match token issue-time precision.
func (u *User) TokenIssuedBeforePasswordChange(issuedAt time.Time) bool {
	return u.PasswordChangedAt != nil && issuedAt.Unix() < u.PasswordChangedAt.Unix()
}

// MarkVerified flips the account verified and consumes the verification
// token. The token is cleared exactly once, at this transition.
func (u *User) MarkVerified() {
	u.IsVerified = true
	u.VerificationToken = ""
}

// SetResetToken stores the digest of a reset secret with its expiry. Both
// fields live and die together.
func (u *User) SetResetToken(hash string, expiresAt time.Time) {
	u.PasswordResetTokenHash = hash
	u.PasswordResetExpiresAt = &expiresAt
}

// ClearResetToken removes both reset fields atomically with the next save.
func (u *User) ClearResetToken() {
	u.PasswordResetTokenHash = ""
	u.PasswordResetExpiresAt = nil
}

// ResetTokenExpired reports whether the stored reset token can no longer be
// redeemed. A record with no token counts as expired.
func (u *User) ResetTokenExpired(now time.Time) bool {
	return u.PasswordResetExpiresAt == nil || !u.PasswordResetExpiresAt.After(now)
}

func (u *User) applyDefaults() {
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Pic == "" {
		u.Pic = defaultPic
	}
	if u.Phone == "" {
		u.Phone = "1234567890"
	}
	if u.Country == "" {
		u.Country = "US"
	}
	if u.PhoneCode == "" {
		u.PhoneCode = "+1"
	}
}
