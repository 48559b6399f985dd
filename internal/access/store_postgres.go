package access

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"cockpit/internal/platform/postgres"
	id "cockpit/pkg/domain"
)

// PostgresStore reads memberships from subsidiary_members.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Grant(ctx context.Context, userID id.UserID, subsidiaryID id.SubsidiaryID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subsidiary_members (user_id, subsidiary_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, subsidiary_id) DO NOTHING`,
		uuid.UUID(userID), uuid.UUID(subsidiaryID))
	return postgres.Classify(err)
}

func (s *PostgresStore) IsMember(ctx context.Context, userID id.UserID, subsidiaryID id.SubsidiaryID) (bool, error) {
	var ok bool
	err := s.db.GetContext(ctx, &ok, `
		SELECT EXISTS (
			SELECT 1 FROM subsidiary_members WHERE user_id = $1 AND subsidiary_id = $2
		)`, uuid.UUID(userID), uuid.UUID(subsidiaryID))
	if err != nil {
		return false, postgres.Classify(err)
	}
	return ok, nil
}
