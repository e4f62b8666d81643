package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records one bulk operation (one batch insert per kind per file),
// not one row per entity.
type AuditLog struct {
	ID         uuid.UUID  `db:"id"`
	TeamID     uuid.UUID  `db:"team_id"`
	Action     string     `db:"action"`
	EntityKind EntityKind `db:"entity_kind"`
	BatchSize  int        `db:"batch_size"`
	FileName   string     `db:"file_name"`
	CreatedAt  time.Time  `db:"created_at"`
}
