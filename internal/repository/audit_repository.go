package repository

import (
	"context"

	"fluxodocs/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// AuditRepository records one entry per batch operation. Writes are
// fire-and-forget from the pipeline's point of view: failures here are logged
// by the caller and never surface to the user.
type AuditRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAuditRepository(db *pgxpool.Pool, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AuditRepository) Record(ctx context.Context, entry *models.AuditLog) error {
	query := squirrel.Insert("audit_logs").
		Columns("id", "team_id", "action", "entity_kind", "batch_size", "file_name", "created_at").
		Values(entry.ID, entry.TeamID, entry.Action, entry.EntityKind, entry.BatchSize, entry.FileName, entry.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return translateError(err)
}
