package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatverse/auth-service/internal/domain/entity"
	"github.com/chatverse/auth-service/internal/domain/repository"
	"github.com/chatverse/auth-service/pkg/apperr"
)

const uniqueViolation = "23505"

const userColumns = `id, fullname, email, password_hash, phone, country, phone_code, pic,
	role, is_verified, verification_token, provider, provider_id,
	password_changed_at, password_reset_token_hash, password_reset_expires_at,
	created_at, updated_at`

// UserRepository is the pgx-backed CredentialStore. Every write goes through
// entity.User.BeforeSave so the hashing and identity-path rules cannot be
// bypassed.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := u.ValidateNew(); err != nil {
		return err
	}
	if err := u.BeforeSave(true); err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (fullname, email, password_hash, phone, country, phone_code, pic,
			role, is_verified, verification_token, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, u.Fullname, u.Email, nullable(u.PasswordHash), u.Phone, u.Country, u.PhoneCode, u.Pic,
		string(u.Role), u.IsVerified, nullable(u.VerificationToken),
		nullable(string(u.Provider)), nullable(u.ProviderID))

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.KindDuplicateEmail, "email already in use", err)
		}
		return err
	}
	return nil
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User) error {
	if err := u.BeforeSave(false); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET fullname = $1, email = $2, password_hash = $3, phone = $4, country = $5,
			phone_code = $6, pic = $7, role = $8, is_verified = $9,
			verification_token = $10, provider = $11, provider_id = $12,
			password_changed_at = $13, password_reset_token_hash = $14,
			password_reset_expires_at = $15, updated_at = $16
		WHERE id = $17
	`, u.Fullname, u.Email, nullable(u.PasswordHash), u.Phone, u.Country,
		u.PhoneCode, u.Pic, string(u.Role), u.IsVerified,
		nullable(u.VerificationToken), nullable(string(u.Provider)), nullable(u.ProviderID),
		u.PasswordChangedAt, nullable(u.PasswordResetTokenHash),
		u.PasswordResetExpiresAt, u.UpdatedAt, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.KindDuplicateEmail, "email already in use", err)
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email)
}

func (r *UserRepository) FindByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE verification_token = $1`, token)
}

func (r *UserRepository) FindByResetTokenHash(ctx context.Context, hash string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE password_reset_token_hash = $1`, hash)
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users ORDER BY created_at DESC OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var passwordHash, verificationToken, provider, providerID, resetHash *string
	err := row.Scan(&u.ID, &u.Fullname, &u.Email, &passwordHash, &u.Phone, &u.Country,
		&u.PhoneCode, &u.Pic, &u.Role, &u.IsVerified, &verificationToken,
		&provider, &providerID, &u.PasswordChangedAt, &resetHash,
		&u.PasswordResetExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = deref(passwordHash)
	u.VerificationToken = deref(verificationToken)
	u.Provider = entity.Provider(deref(provider))
	u.ProviderID = deref(providerID)
	u.PasswordResetTokenHash = deref(resetHash)
	return u, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ repository.CredentialStore = (*UserRepository)(nil)
