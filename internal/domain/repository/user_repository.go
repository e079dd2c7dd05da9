package repository

import (
	"context"

	"github.com/chatverse/auth-service/internal/domain/entity"
)

// CredentialStore persists user identity records and enforces per-record
// invariants at write time. Implementations run entity.User.BeforeSave on
// every write and surface a DuplicateEmail kind on email conflicts.
type CredentialStore interface {
	Create(ctx context.Context, u *entity.User) error
	// Save persists an existing record, re-applying the hashing rule for a
	// staged password change.
	Save(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*entity.User, error)
	FindByResetTokenHash(ctx context.Context, hash string) (*entity.User, error)
	List(ctx context.Context, offset, limit int) ([]*entity.User, error)
	Delete(ctx context.Context, id string) error
}
