package repository

import (
	"context"

	"fluxodocs/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ContractRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewContractRepository(db *pgxpool.Pool, logger *zap.Logger) *ContractRepository {
	return &ContractRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts all contracts in one multi-VALUES statement. Every row
// must already carry the caller's team ID.
func (r *ContractRepository) CreateBatch(ctx context.Context, contracts []*models.Contract) error {
	if len(contracts) == 0 {
		return nil
	}

	builder := squirrel.Insert("contracts").
		Columns("id", "team_id", "client_name", "project_name", "description", "total_value", "signed_date", "status", "created_at", "updated_at").
		PlaceholderFormat(squirrel.Dollar)

	for _, c := range contracts {
		builder = builder.Values(c.ID, c.TeamID, c.ClientName, c.ProjectName, c.Description, c.TotalValue, c.SignedDate, c.Status, c.CreatedAt, c.UpdatedAt)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return translateError(err)
}

func (r *ContractRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*models.Contract, error) {
	query := squirrel.Select("id", "team_id", "client_name", "project_name", "description", "total_value", "signed_date", "status", "created_at", "updated_at").
		From("contracts").
		Where(squirrel.Eq{"team_id": teamID}).
		OrderBy("created_at DESC").
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

	var contracts []*models.Contract
	for rows.Next() {
		var c models.Contract
		if err := rows.Scan(
			&c.ID, &c.TeamID, &c.ClientName, &c.ProjectName, &c.Description, &c.TotalValue, &c.SignedDate, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		contracts = append(contracts, &c)
	}

	return contracts, nil
}

func (r *ContractRepository) ListByTeamPaged(ctx context.Context, teamID uuid.UUID, limit, offset int) ([]*models.Contract, error) {
	query := squirrel.Select("id", "team_id", "client_name", "project_name", "description", "total_value", "signed_date", "status", "created_at", "updated_at").
		From("contracts").
		Where(squirrel.Eq{"team_id": teamID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
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

	var contracts []*models.Contract
	for rows.Next() {
		var c models.Contract
		if err := rows.Scan(
			&c.ID, &c.TeamID, &c.ClientName, &c.ProjectName, &c.Description, &c.TotalValue, &c.SignedDate, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		contracts = append(contracts, &c)
	}

	return contracts, nil
}
