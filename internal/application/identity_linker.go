package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/chatverse/auth-service/internal/domain/entity"
	"github.com/chatverse/auth-service/internal/domain/repository"
	"github.com/chatverse/auth-service/pkg/apperr"
)

// ExternalProfile is the normalized shape every provider adapter reduces its
// userinfo payload to before it reaches the linker.
type ExternalProfile struct {
	Email       string
	DisplayName string
	Provider    entity.Provider
	ProviderID  string
}

// IdentityLinker maps a verified external-provider profile to a local
// identity. Linkers are constructed per provider and injected into the
// routing layer; there is no process-global strategy registry.
type IdentityLinker struct {
	Store  repository.CredentialStore
	Logger *logrus.Logger
}

func NewIdentityLinker(store repository.CredentialStore, logger *logrus.Logger) *IdentityLinker {
	return &IdentityLinker{Store: store, Logger: logger}
}

// Link resolves a profile to a local record, creating a provider-backed,
// pre-verified account when the email is unknown. An existing account is
// used as-is: a local-password account sharing the email is not merged with
// the provider identity, so the provider path can surface a duplicate
// conflict under concurrent creation. That edge is surfaced, not hidden.
func (l *IdentityLinker) Link(ctx context.Context, p ExternalProfile) (*entity.User, error) {
	if p.Email == "" || p.ProviderID == "" {
		return nil, apperr.New(apperr.KindInvalidCredentials, "provider profile is missing email or id")
	}

	u, err := l.Store.FindByEmail(ctx, p.Email)
	if err == nil {
		l.Logger.WithFields(logrus.Fields{"user_id": u.ID, "provider": p.Provider}).Info("provider login on existing account")
		return u, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	fullname := p.DisplayName
	if fullname == "" {
		fullname = "Anonymous User"
	}
	u = &entity.User{
		Fullname:   fullname,
		Email:      p.Email,
		Provider:   p.Provider,
		ProviderID: p.ProviderID,
		IsVerified: true,
	}
	if err := l.Store.Create(ctx, u); err != nil {
		return nil, err
	}
	l.Logger.WithFields(logrus.Fields{"user_id": u.ID, "provider": p.Provider}).Info("provider account created")
	return u, nil
}
