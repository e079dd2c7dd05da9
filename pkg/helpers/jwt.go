package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chatverse/auth-service/pkg/apperr"
)

// TokenKind selects which secret and TTL a token is signed with.
type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

// JWTManager signs and verifies access and refresh tokens with distinct
// HS256 secrets. It holds no mutable state and is safe for concurrent use;
// nothing is persisted server-side, so revocation happens solely through
// issue-time comparison against the subject's password-change timestamp.
type JWTManager struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewJWTManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}

type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Sign issues a token of the given kind embedding the subject id, issue time
// and expiry.
func (m *JWTManager) Sign(subjectID string, kind TokenKind) (string, time.Time, error) {
	secret, ttl := m.pick(kind)
	now := time.Now()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(secret)
	return s, exp, err
}

// Verify parses a token against the secret for its kind. A token of one kind
// never verifies under the other kind's secret.
func (m *JWTManager) Verify(tokenStr string, kind TokenKind) (*Claims, error) {
	secret, _ := m.pick(kind)
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindExpiredToken, "token expired, please log in again", err)
		}
		return nil, apperr.Wrap(apperr.KindInvalidToken, "invalid token, please log in again", err)
	}
	if !tkn.Valid {
		return nil, apperr.New(apperr.KindInvalidToken, "invalid token, please log in again")
	}
	return claims, nil
}

func (m *JWTManager) pick(kind TokenKind) ([]byte, time.Duration) {
	if kind == RefreshToken {
		return m.RefreshSecret, m.RefreshTTL
	}
	return m.AccessSecret, m.AccessTTL
}
