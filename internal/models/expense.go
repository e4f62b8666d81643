package models

import (
	"time"

	"github.com/google/uuid"
)

type ExpenseCategory string

const (
	ExpenseCategoryMaterials  ExpenseCategory = "materials"
	ExpenseCategoryLabor      ExpenseCategory = "labor"
	ExpenseCategoryEquipment  ExpenseCategory = "equipment"
	ExpenseCategoryTransport  ExpenseCategory = "transport"
	ExpenseCategoryOffice     ExpenseCategory = "office"
	ExpenseCategorySoftware   ExpenseCategory = "software"
	ExpenseCategoryOperations ExpenseCategory = "operations"
	ExpenseCategoryOther      ExpenseCategory = "other"
)

type Expense struct {
	ID          uuid.UUID       `db:"id"`
	TeamID      uuid.UUID       `db:"team_id"`
	ContractID  *uuid.UUID      `db:"contract_id"`
	Description string          `db:"description"`
	Vendor      string          `db:"vendor"`
	Amount      float64         `db:"amount"`
	DueDate     time.Time       `db:"due_date"`
	Category    ExpenseCategory `db:"category"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}
