// Package access resolves whether an authenticated user may work on a subsidiary.
package access

import (
	"context"
	"log/slog"

	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
	"cockpit/pkg/requestcontext"
)

// MembershipStore answers membership questions.
type MembershipStore interface {
	IsMember(ctx context.Context, userID id.UserID, subsidiaryID id.SubsidiaryID) (bool, error)
}

// Resolver authorizes users against subsidiary memberships.
type Resolver struct {
	store  MembershipStore
	logger *slog.Logger
}

func NewResolver(store MembershipStore, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Authorize returns a CodeUnauthorized error when userID is not a member of subsidiaryID.
// Store failures are returned unchanged for the caller to classify.
func (r *Resolver) Authorize(ctx context.Context, userID id.UserID, subsidiaryID id.SubsidiaryID) error {
	if userID.IsNil() || subsidiaryID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller cannot be resolved to a subsidiary")
	}
	ok, err := r.store.IsMember(ctx, userID, subsidiaryID)
	if err != nil {
		return err
	}
	if !ok {
		if r.logger != nil {
			r.logger.WarnContext(ctx, "subsidiary access denied",
				"user_id", userID,
				"subsidiary_id", subsidiaryID,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return dErrors.New(dErrors.CodeUnauthorized, "caller cannot be resolved to a subsidiary")
	}
	return nil
}
