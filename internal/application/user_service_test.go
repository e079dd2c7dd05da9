package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatverse/auth-service/internal/domain/entity"
	"github.com/chatverse/auth-service/pkg/apperr"
)

func newTestUserService() (*UserService, *memoryStore) {
	store := newMemoryStore()
	return NewUserService(store, nil, nil, "", testLogger()), store
}

func seedUser(t *testing.T, store *memoryStore, email string) *entity.User {
	t.Helper()
	u := &entity.User{Fullname: "Seeded", Email: email}
	u.SetPassword("password123", "password123")
	require.NoError(t, store.Create(context.Background(), u))
	return u
}

func TestGetByID_ProjectsWithoutSecrets(t *testing.T) {
	svc, store := newTestUserService()
	u := seedUser(t, store, "get@example.com")

	pu, err := svc.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, pu.ID)
	require.Equal(t, "get@example.com", pu.Email)
	require.Equal(t, entity.RoleUser, pu.Role)

	_, err = svc.GetByID(context.Background(), "missing")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateProfile_AppliesOnlyNonEmptyFields(t *testing.T) {
	svc, store := newTestUserService()
	u := seedUser(t, store, "patch@example.com")

	pu, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{
		Fullname: "Renamed",
		Country:  "DE",
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", pu.Fullname)
	require.Equal(t, "DE", pu.Country)
	// Untouched fields keep their defaults.
	require.Equal(t, "1234567890", pu.Phone)
	require.Equal(t, "+1", pu.PhoneCode)
}

func TestUploadAvatar_Unconfigured(t *testing.T) {
	svc, store := newTestUserService()
	u := seedUser(t, store, "pic@example.com")

	_, err := svc.UploadAvatar(context.Background(), u.ID, strings.NewReader("img"), "a.png", "image/png")
	require.Error(t, err)
}

func TestListAndDelete(t *testing.T) {
	svc, store := newTestUserService()
	a := seedUser(t, store, "a@example.com")
	seedUser(t, store, "b@example.com")

	users, err := svc.List(context.Background(), 0, 500) // out-of-range values clamp
	require.NoError(t, err)
	require.Len(t, users, 2)

	require.NoError(t, svc.Delete(context.Background(), a.ID))
	users, err = svc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
}
