package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"cockpit/internal/onboarding/models"
	"cockpit/internal/platform/postgres"
	id "cockpit/pkg/domain"
	txcontext "cockpit/pkg/platform/tx"
)

// PostgresStore persists progress in onboarding_progress with step data as jsonb.
// JSON is bound as text; lib/pq would send []byte as bytea.
type PostgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewPostgres(db *sqlx.DB, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout}
}

type progressRow struct {
	SubsidiaryID uuid.UUID `db:"subsidiary_id"`
	CurrentStep  int       `db:"current_step"`
	Completed    bool      `db:"completed"`
	StepData     string    `db:"step_data"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const selectProgress = `
	SELECT subsidiary_id, current_step, completed, step_data, created_at, updated_at
	FROM onboarding_progress
	WHERE subsidiary_id = $1`

func (s *PostgresStore) queryer(ctx context.Context) sqlx.ExtContext {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *PostgresStore) FindBySubsidiary(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var row progressRow
	if err := sqlx.GetContext(ctx, s.queryer(ctx), &row, selectProgress, uuid.UUID(subsidiaryID)); err != nil {
		return nil, postgres.Classify(err)
	}
	return row.toModel()
}

// CreateIfAbsent inserts the default record; ON CONFLICT DO NOTHING leaves an existing
// record untouched and the follow-up select returns it.
func (s *PostgresStore) CreateIfAbsent(ctx context.Context, progress *models.Progress) (*models.Progress, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row, err := fromModel(progress)
	if err != nil {
		return nil, false, err
	}
	query := `
		INSERT INTO onboarding_progress (subsidiary_id, current_step, completed, step_data, created_at, updated_at)
		VALUES (:subsidiary_id, :current_step, :completed, :step_data, :created_at, :updated_at)
		ON CONFLICT (subsidiary_id) DO NOTHING`
	res, err := sqlx.NamedExecContext(ctx, s.queryer(ctx), query, row)
	if err != nil {
		return nil, false, postgres.Classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, postgres.Classify(err)
	}

	var stored progressRow
	if err := sqlx.GetContext(ctx, s.queryer(ctx), &stored, selectProgress, row.SubsidiaryID); err != nil {
		return nil, false, postgres.Classify(err)
	}
	p, err := stored.toModel()
	if err != nil {
		return nil, false, err
	}
	return p, affected == 1, nil
}

// Save upserts the full record in one statement. The row is the unit of atomicity, so
// current_step, completed and step_data always change together.
func (s *PostgresStore) Save(ctx context.Context, progress *models.Progress) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row, err := fromModel(progress)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO onboarding_progress (subsidiary_id, current_step, completed, step_data, created_at, updated_at)
		VALUES (:subsidiary_id, :current_step, :completed, :step_data, :created_at, :updated_at)
		ON CONFLICT (subsidiary_id) DO UPDATE SET
			current_step = EXCLUDED.current_step,
			completed = EXCLUDED.completed,
			step_data = EXCLUDED.step_data,
			updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, s.queryer(ctx), query, row); err != nil {
		return postgres.Classify(err)
	}
	return nil
}

func fromModel(p *models.Progress) (progressRow, error) {
	data := p.StepData
	if data == nil {
		data = models.StepData{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return progressRow{}, fmt.Errorf("marshal step data: %w", err)
	}
	return progressRow{
		SubsidiaryID: uuid.UUID(p.SubsidiaryID),
		CurrentStep:  p.CurrentStep,
		Completed:    p.Completed,
		StepData:     string(raw),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}

func (r progressRow) toModel() (*models.Progress, error) {
	p := &models.Progress{
		SubsidiaryID: id.SubsidiaryID(r.SubsidiaryID),
		CurrentStep:  r.CurrentStep,
		Completed:    r.Completed,
		StepData:     models.StepData{},
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if len(r.StepData) > 0 {
		if err := json.Unmarshal([]byte(r.StepData), &p.StepData); err != nil {
			return nil, fmt.Errorf("decode step data for %s: %w", r.SubsidiaryID, err)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("stored progress for %s is invalid: %v", r.SubsidiaryID, err)
	}
	return p, nil
}
