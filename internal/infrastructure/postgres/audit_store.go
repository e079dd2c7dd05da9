package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// AuditStore records auth events best-effort. A failed insert is logged and
// never affects the triggering request.
type AuditStore struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func NewAuditStore(pool *pgxpool.Pool, logger *logrus.Logger) *AuditStore {
	return &AuditStore{pool: pool, logger: logger}
}

// Record inserts an audit row. userID and email may be empty.
func (s *AuditStore) Record(ctx context.Context, action, userID, email, ip, userAgent string, metadata map[string]any) {
	if s == nil || s.pool == nil {
		return
	}
	var md []byte
	if metadata != nil {
		md, _ = json.Marshal(metadata)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_logs (user_id, email, action, ip, user_agent, metadata)
		VALUES (NULLIF($1, '')::uuid, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''), $6)
	`, userID, email, action, ip, userAgent, md)
	if err != nil && s.logger != nil {
		s.logger.WithError(err).WithField("action", action).Warn("audit insert failed")
	}
}
