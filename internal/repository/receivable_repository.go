package repository

import (
	"context"

	"fluxodocs/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ReceivableRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReceivableRepository(db *pgxpool.Pool, logger *zap.Logger) *ReceivableRepository {
	return &ReceivableRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ReceivableRepository) CreateBatch(ctx context.Context, receivables []*models.Receivable) error {
	if len(receivables) == 0 {
		return nil
	}

	builder := squirrel.Insert("receivables").
		Columns("id", "team_id", "contract_id", "client_name", "description", "amount", "expected_date", "status", "created_at", "updated_at").
		PlaceholderFormat(squirrel.Dollar)

	for _, rec := range receivables {
		builder = builder.Values(rec.ID, rec.TeamID, rec.ContractID, rec.ClientName, rec.Description, rec.Amount, rec.ExpectedDate, rec.Status, rec.CreatedAt, rec.UpdatedAt)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return translateError(err)
}

func (r *ReceivableRepository) ListByContract(ctx context.Context, teamID, contractID uuid.UUID) ([]*models.Receivable, error) {
	query := squirrel.Select("id", "team_id", "contract_id", "client_name", "description", "amount", "expected_date", "status", "created_at", "updated_at").
		From("receivables").
		Where(squirrel.Eq{"team_id": teamID, "contract_id": contractID}).
		OrderBy("expected_date ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var receivables []*models.Receivable
	for rows.Next() {
		var rec models.Receivable
		if err := rows.Scan(
			&rec.ID, &rec.TeamID, &rec.ContractID, &rec.ClientName, &rec.Description, &rec.Amount, &rec.ExpectedDate, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		receivables = append(receivables, &rec)
	}

	return receivables, nil
}
