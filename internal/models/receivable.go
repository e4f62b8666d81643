package models

import (
	"time"

	"github.com/google/uuid"
)

type ReceivableStatus string

const (
	ReceivableStatusPending  ReceivableStatus = "pending"
	ReceivableStatusReceived ReceivableStatus = "received"
	ReceivableStatusOverdue  ReceivableStatus = "overdue"
)

// Receivable is money owed to the team. ContractID is nil when no confident
// contract match was found during extraction.
type Receivable struct {
	ID           uuid.UUID        `db:"id"`
	TeamID       uuid.UUID        `db:"team_id"`
	ContractID   *uuid.UUID       `db:"contract_id"`
	ClientName   string           `db:"client_name"`
	Description  string           `db:"description"`
	Amount       float64          `db:"amount"`
	ExpectedDate time.Time        `db:"expected_date"`
	Status       ReceivableStatus `db:"status"`
	CreatedAt    time.Time        `db:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at"`
}
