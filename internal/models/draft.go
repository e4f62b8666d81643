package models

import "time"

// SourceLocation points back at the cell region a draft came from, so validation
// and persistence errors can name the exact sheet and row.
type SourceLocation struct {
	FileName  string
	SheetName string
	// Row is the 1-based row number in the original sheet. Zero for drafts
	// extracted from visual documents, which have no row granularity.
	Row int
}

type DraftContract struct {
	ClientName  string
	ProjectName string
	Description string
	TotalValue  float64
	SignedDate  time.Time
	Status      ContractStatus
}

type DraftReceivable struct {
	ClientName   string
	Description  string
	Amount       float64
	ExpectedDate time.Time
}

type DraftExpense struct {
	Description string
	Vendor      string
	Amount      float64
	DueDate     time.Time
	Category    ExpenseCategory
}

// DraftEntity is the tagged union over the three draft kinds. Exactly one of
// Contract/Receivable/Expense is non-nil and it matches Kind. Field values are
// normalized but not yet validated; only BulkEntityCreator may turn a draft
// into a persisted row.
type DraftEntity struct {
	Kind       EntityKind
	Contract   *DraftContract
	Receivable *DraftReceivable
	Expense    *DraftExpense
	Source     SourceLocation
	// CrossReference is the raw client/project text a receivable or expense row
	// used to name its contract, kept for fuzzy resolution at persist time.
	CrossReference string
}

// RowError is a non-fatal, row-scoped extraction or validation failure.
type RowError struct {
	SheetName string
	Row       int
	Message   string
}
