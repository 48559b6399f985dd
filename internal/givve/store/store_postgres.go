package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"cockpit/internal/givve/models"
	"cockpit/internal/platform/postgres"
	id "cockpit/pkg/domain"
	txcontext "cockpit/pkg/platform/tx"
)

// TxRunner runs fn inside a transaction carried by the context.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PostgresStore persists records in givve_onboarding_progress. Updates lock the row so
// concurrent submissions of the same subsidiary are serialized.
type PostgresStore struct {
	db *sqlx.DB
	tx TxRunner
}

func NewPostgres(db *sqlx.DB, tx TxRunner) *PostgresStore {
	return &PostgresStore{db: db, tx: tx}
}

type givveRow struct {
	SubsidiaryID                 uuid.UUID      `db:"subsidiary_id"`
	Completed                    bool           `db:"completed"`
	Status                       string         `db:"status"`
	VideoIdentificationLink      sql.NullString `db:"video_identification_link"`
	VideoIdentificationCompleted bool           `db:"video_identification_completed"`
	InitialInvoiceReceived       bool           `db:"initial_invoice_received"`
	InitialInvoicePaid           bool           `db:"initial_invoice_paid"`
	SubmittedAt                  sql.NullTime   `db:"submitted_at"`
	CreatedAt                    time.Time      `db:"created_at"`
	UpdatedAt                    time.Time      `db:"updated_at"`
}

const givveColumns = `subsidiary_id, completed, status, video_identification_link,
	video_identification_completed, initial_invoice_received, initial_invoice_paid,
	submitted_at, created_at, updated_at`

const insertGivve = `
	INSERT INTO givve_onboarding_progress (` + givveColumns + `)
	VALUES (:subsidiary_id, :completed, :status, :video_identification_link,
		:video_identification_completed, :initial_invoice_received, :initial_invoice_paid,
		:submitted_at, :created_at, :updated_at)
	ON CONFLICT (subsidiary_id) DO NOTHING`

func (s *PostgresStore) queryer(ctx context.Context) sqlx.ExtContext {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) FindBySubsidiary(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error) {
	var row givveRow
	query := `SELECT ` + givveColumns + ` FROM givve_onboarding_progress WHERE subsidiary_id = $1`
	if err := sqlx.GetContext(ctx, s.queryer(ctx), &row, query, uuid.UUID(subsidiaryID)); err != nil {
		return nil, postgres.Classify(err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, progress *models.Progress) (*models.Progress, bool, error) {
	var (
		stored  *models.Progress
		created bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		res, err := sqlx.NamedExecContext(ctx, s.queryer(ctx), insertGivve, fromModel(progress))
		if err != nil {
			return postgres.Classify(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return postgres.Classify(err)
		}
		created = affected == 1
		stored, err = s.FindBySubsidiary(ctx, progress.SubsidiaryID)
		return err
	})
	if err != nil {
		return nil, false, postgres.Classify(err)
	}
	return stored, created, nil
}

// Update inserts seed when no row exists, then locks the row with SELECT ... FOR UPDATE,
// applies fn and writes the result in the same transaction. A failing fn rolls back the
// insert as well.
func (s *PostgresStore) Update(ctx context.Context, seed *models.Progress, fn func(p *models.Progress) error) (*models.Progress, error) {
	var updated *models.Progress
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := s.queryer(ctx)
		if _, err := sqlx.NamedExecContext(ctx, q, insertGivve, fromModel(seed)); err != nil {
			return postgres.Classify(err)
		}

		var row givveRow
		query := `SELECT ` + givveColumns + ` FROM givve_onboarding_progress WHERE subsidiary_id = $1 FOR UPDATE`
		if err := sqlx.GetContext(ctx, q, &row, query, uuid.UUID(seed.SubsidiaryID)); err != nil {
			return postgres.Classify(err)
		}
		p := row.toModel()
		if err := fn(p); err != nil {
			return err
		}

		update := `
			UPDATE givve_onboarding_progress SET
				completed = :completed,
				status = :status,
				video_identification_link = :video_identification_link,
				video_identification_completed = :video_identification_completed,
				initial_invoice_received = :initial_invoice_received,
				initial_invoice_paid = :initial_invoice_paid,
				submitted_at = :submitted_at,
				updated_at = :updated_at
			WHERE subsidiary_id = :subsidiary_id`
		if _, err := sqlx.NamedExecContext(ctx, q, update, fromModel(p)); err != nil {
			return postgres.Classify(err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, postgres.Classify(err)
	}
	return updated, nil
}

func fromModel(p *models.Progress) givveRow {
	row := givveRow{
		SubsidiaryID:                 uuid.UUID(p.SubsidiaryID),
		Completed:                    p.Completed,
		Status:                       p.Status,
		VideoIdentificationCompleted: p.VideoIdentificationCompleted,
		InitialInvoiceReceived:       p.InitialInvoiceReceived,
		InitialInvoicePaid:           p.InitialInvoicePaid,
		CreatedAt:                    p.CreatedAt,
		UpdatedAt:                    p.UpdatedAt,
	}
	if p.VideoIdentificationLink != nil {
		row.VideoIdentificationLink = sql.NullString{String: *p.VideoIdentificationLink, Valid: true}
	}
	if p.SubmittedAt != nil {
		row.SubmittedAt = sql.NullTime{Time: *p.SubmittedAt, Valid: true}
	}
	return row
}

func (r givveRow) toModel() *models.Progress {
	p := &models.Progress{
		SubsidiaryID:                 id.SubsidiaryID(r.SubsidiaryID),
		Completed:                    r.Completed,
		Status:                       r.Status,
		VideoIdentificationCompleted: r.VideoIdentificationCompleted,
		InitialInvoiceReceived:       r.InitialInvoiceReceived,
		InitialInvoicePaid:           r.InitialInvoicePaid,
		CreatedAt:                    r.CreatedAt,
		UpdatedAt:                    r.UpdatedAt,
	}
	if r.VideoIdentificationLink.Valid {
		link := r.VideoIdentificationLink.String
		p.VideoIdentificationLink = &link
	}
	if r.SubmittedAt.Valid {
		at := r.SubmittedAt.Time
		p.SubmittedAt = &at
	}
	return p
}
