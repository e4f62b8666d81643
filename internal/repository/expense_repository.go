package repository

import (
	"context"

	"fluxodocs/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ExpenseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewExpenseRepository(db *pgxpool.Pool, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ExpenseRepository) CreateBatch(ctx context.Context, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	builder := squirrel.Insert("expenses").
		Columns("id", "team_id", "contract_id", "description", "vendor", "amount", "due_date", "category", "created_at", "updated_at").
		PlaceholderFormat(squirrel.Dollar)

	for _, e := range expenses {
		builder = builder.Values(e.ID, e.TeamID, e.ContractID, e.Description, e.Vendor, e.Amount, e.DueDate, e.Category, e.CreatedAt, e.UpdatedAt)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return translateError(err)
}
