// Package session handles sign-out. The session itself lives in the bearer token, so
// signing out means revoking the token's ID for the rest of its lifetime.
package session

import (
	"context"
	"log/slog"
	"time"

	dErrors "cockpit/pkg/domain-errors"
	"cockpit/pkg/platform/audit"
	"cockpit/pkg/requestcontext"
)

// RevocationList records revoked token IDs until they would have expired anyway.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	trl            RevocationList
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

func NewService(trl RevocationList, logger *slog.Logger, publisher AuditPublisher) *Service {
	return &Service{trl: trl, logger: logger, auditPublisher: publisher}
}

// SignOut revokes the token that authenticated the request.
func (s *Service) SignOut(ctx context.Context) error {
	userID := requestcontext.UserID(ctx)
	jti := requestcontext.TokenID(ctx)
	if userID.IsNil() || jti == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "no authenticated session")
	}

	now := requestcontext.Now(ctx)
	ttl := requestcontext.TokenExpiry(ctx).Sub(now)
	if ttl > 0 {
		if err := s.trl.RevokeToken(ctx, jti, ttl); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "failed to revoke token")
		}
	}

	requestID := requestcontext.RequestID(ctx)
	s.logger.InfoContext(ctx, string(audit.EventSignedOut),
		"event", string(audit.EventSignedOut),
		"log_type", "audit",
		"user_id", userID,
		"request_id", requestID,
	)
	if s.auditPublisher != nil {
		_ = s.auditPublisher.Emit(ctx, audit.Event{
			Timestamp: now,
			UserID:    userID,
			Action:    string(audit.EventSignedOut),
			RequestID: requestID,
		})
	}
	return nil
}
