package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/chatverse/auth-service/internal/domain/entity"
	"github.com/chatverse/auth-service/internal/domain/repository"
	"github.com/chatverse/auth-service/pkg/helpers"
)

const userCacheTTL = 10 * time.Minute

// UserService serves profile reads and writes around the credential store,
// with a redis read-through cache and GCS-backed avatar storage.
type UserService struct {
	Store     repository.CredentialStore
	Redis     *redis.Client
	GCS       *storage.Client
	GCSBucket string
	Logger    *logrus.Logger
}

func NewUserService(store repository.CredentialStore, rdb *redis.Client, gcs *storage.Client, bucket string, logger *logrus.Logger) *UserService {
	return &UserService{Store: store, Redis: rdb, GCS: gcs, GCSBucket: bucket, Logger: logger}
}

// PublicUser is the cacheable, hash-free projection of a user.
type PublicUser struct {
	ID         string      `json:"id"`
	Fullname   string      `json:"fullname"`
	Email      string      `json:"email"`
	Pic        string      `json:"pic"`
	Phone      string      `json:"phone"`
	Country    string      `json:"country"`
	PhoneCode  string      `json:"phoneCode"`
	Role       entity.Role `json:"role"`
	IsVerified bool        `json:"isVerified"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func publicUser(u *entity.User) *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		Fullname:   u.Fullname,
		Email:      u.Email,
		Pic:        u.Pic,
		Phone:      u.Phone,
		Country:    u.Country,
		PhoneCode:  u.PhoneCode,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

func userCacheKey(id string) string { return "user:" + id }

// GetByID loads a user through the cache.
func (s *UserService) GetByID(ctx context.Context, id string) (*PublicUser, error) {
	if s.Redis != nil {
		var cached PublicUser
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, userCacheKey(id), &cached); err == nil && ok {
			return &cached, nil
		}
	}
	u, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pu := publicUser(u)
	s.cache(ctx, pu)
	return pu, nil
}

type UpdateProfileInput struct {
	Fullname  string
	Country   string
	Phone     string
	PhoneCode string
}

// UpdateProfile applies non-empty fields and refreshes the cache.
func (s *UserService) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*PublicUser, error) {
	u, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Fullname != "" {
		u.Fullname = in.Fullname
	}
	if in.Country != "" {
		u.Country = in.Country
	}
	if in.Phone != "" {
		u.Phone = in.Phone
	}
	if in.PhoneCode != "" {
		u.PhoneCode = in.PhoneCode
	}
	if err := s.Store.Save(ctx, u); err != nil {
		return nil, err
	}
	pu := publicUser(u)
	s.cache(ctx, pu)
	return pu, nil
}

// UploadAvatar stores the image in GCS and points the profile pic at it.
func (s *UserService) UploadAvatar(ctx context.Context, id string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("avatar storage not configured")
	}
	u, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", id, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	u.Pic = url
	if err := s.Store.Save(ctx, u); err != nil {
		return "", err
	}
	s.cache(ctx, publicUser(u))
	return url, nil
}

// List returns a page of users, newest first. Admin only at the route layer.
func (s *UserService) List(ctx context.Context, page, limit int) ([]*PublicUser, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	users, err := s.Store.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, publicUser(u))
	}
	return out, nil
}

// Delete removes a user and evicts the cache entry.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	if s.Redis != nil {
		_ = helpers.RedisDel(ctx, s.Redis, userCacheKey(id))
	}
	return nil
}

func (s *UserService) cache(ctx context.Context, pu *PublicUser) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, userCacheKey(pu.ID), pu, userCacheTTL); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", pu.ID).Warn("user cache write failed")
	}
}
