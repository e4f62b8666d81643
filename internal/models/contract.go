package models

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusCancelled ContractStatus = "cancelled"
)

type Contract struct {
	ID          uuid.UUID      `db:"id"`
	TeamID      uuid.UUID      `db:"team_id"`
	ClientName  string         `db:"client_name"`
	ProjectName string         `db:"project_name"`
	Description string         `db:"description"`
	TotalValue  float64        `db:"total_value"`
	SignedDate  time.Time      `db:"signed_date"`
	Status      ContractStatus `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}
