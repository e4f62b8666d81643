package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fluxodocs/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Consumer-side views of the persistence layer. Satisfied by the repository
// package; faked in tests.
type ContractStore interface {
	CreateBatch(ctx context.Context, contracts []*models.Contract) error
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*models.Contract, error)
}

type ReceivableStore interface {
	CreateBatch(ctx context.Context, receivables []*models.Receivable) error
}

type ExpenseStore interface {
	CreateBatch(ctx context.Context, expenses []*models.Expense) error
}

type AuditStore interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

// BulkResult reports what one persist pass did: counts created per kind and
// human-readable errors for everything that did not make it. Partial success
// is the normal case, never masked behind a generic failure.
type BulkResult struct {
	ContractsCreated   int
	ReceivablesCreated int
	ExpensesCreated    int
	Errors             []string
}

// BulkEntityCreator is the only stage that writes. It validates every draft
// independently, resolves contract references against contracts created in
// the same batch, and persists each kind in one batched insert per file.
// Every row is stamped with the calling team's ID; draft data can never
// choose its own tenant.
type BulkEntityCreator struct {
	contracts      ContractStore
	receivables    ReceivableStore
	expenses       ExpenseStore
	audit          AuditStore
	fuzzyThreshold float64
	logger         *zap.Logger
}

func NewBulkEntityCreator(
	contracts ContractStore,
	receivables ReceivableStore,
	expenses ExpenseStore,
	audit AuditStore,
	fuzzyThreshold float64,
	logger *zap.Logger,
) *BulkEntityCreator {
	return &BulkEntityCreator{
		contracts:      contracts,
		receivables:    receivables,
		expenses:       expenses,
		audit:          audit,
		fuzzyThreshold: fuzzyThreshold,
		logger:         logger,
	}
}

// Create persists all drafts from one file. existing is the team's persisted
// contract snapshot, used together with this batch's new contracts to resolve
// receivable/expense links. A failed validation or insert never blocks the
// remaining entities.
func (b *BulkEntityCreator) Create(
	ctx context.Context,
	teamID uuid.UUID,
	fileName string,
	drafts []models.DraftEntity,
	existing []*models.Contract,
) *BulkResult {
	result := &BulkResult{}

	valid := b.validateAll(drafts, result)

	var draftContracts, draftReceivables, draftExpenses []models.DraftEntity
	for _, d := range valid {
		switch d.Kind {
		case models.EntityKindContract:
			draftContracts = append(draftContracts, d)
		case models.EntityKindReceivable:
			draftReceivables = append(draftReceivables, d)
		case models.EntityKindExpense:
			draftExpenses = append(draftExpenses, d)
		}
	}

	// Contracts go first so the rows referencing them can resolve against
	// their real IDs.
	now := time.Now()
	index := NewContractIndex(b.fuzzyThreshold)
	for _, c := range existing {
		index.Add(ContractRef{ID: c.ID, ClientName: c.ClientName, ProjectName: c.ProjectName})
	}

	var contractRows []*models.Contract
	for _, d := range draftContracts {
		c := &models.Contract{
			ID:          uuid.New(),
			TeamID:      teamID,
			ClientName:  d.Contract.ClientName,
			ProjectName: d.Contract.ProjectName,
			Description: d.Contract.Description,
			TotalValue:  d.Contract.TotalValue,
			SignedDate:  d.Contract.SignedDate,
			Status:      d.Contract.Status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		contractRows = append(contractRows, c)
	}
	created := b.insertContracts(ctx, contractRows, draftContracts, result)
	for _, c := range created {
		index.Add(ContractRef{ID: c.ID, ClientName: c.ClientName, ProjectName: c.ProjectName})
	}
	index.Freeze()

	var receivableRows []*models.Receivable
	var receivableSources []models.DraftEntity
	for _, d := range draftReceivables {
		receivableRows = append(receivableRows, &models.Receivable{
			ID:           uuid.New(),
			TeamID:       teamID,
			ContractID:   b.resolveContract(index, d.CrossReference),
			ClientName:   d.Receivable.ClientName,
			Description:  d.Receivable.Description,
			Amount:       d.Receivable.Amount,
			ExpectedDate: d.Receivable.ExpectedDate,
			Status:       models.ReceivableStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		receivableSources = append(receivableSources, d)
	}

	var expenseRows []*models.Expense
	var expenseSources []models.DraftEntity
	for _, d := range draftExpenses {
		expenseRows = append(expenseRows, &models.Expense{
			ID:          uuid.New(),
			TeamID:      teamID,
			ContractID:  b.resolveContract(index, d.CrossReference),
			Description: d.Expense.Description,
			Vendor:      d.Expense.Vendor,
			Amount:      d.Expense.Amount,
			DueDate:     d.Expense.DueDate,
			Category:    d.Expense.Category,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		expenseSources = append(expenseSources, d)
	}

	result.ReceivablesCreated = insertBatch(ctx, receivableRows, receivableSources, result,
		func(ctx context.Context, rows []*models.Receivable) error { return b.receivables.CreateBatch(ctx, rows) },
		func(r *models.Receivable) string { return fmt.Sprintf("receivable %q (%.2f)", r.Description, r.Amount) },
	)
	result.ExpensesCreated = insertBatch(ctx, expenseRows, expenseSources, result,
		func(ctx context.Context, rows []*models.Expense) error { return b.expenses.CreateBatch(ctx, rows) },
		func(e *models.Expense) string { return fmt.Sprintf("expense %q (%.2f)", e.Description, e.Amount) },
	)

	b.recordAudit(teamID, fileName, models.EntityKindContract, result.ContractsCreated)
	b.recordAudit(teamID, fileName, models.EntityKindReceivable, result.ReceivablesCreated)
	b.recordAudit(teamID, fileName, models.EntityKindExpense, result.ExpensesCreated)

	b.logger.Info("Bulk create finished",
		zap.String("team_id", teamID.String()),
		zap.String("file", fileName),
		zap.Int("contracts", result.ContractsCreated),
		zap.Int("receivables", result.ReceivablesCreated),
		zap.Int("expenses", result.ExpensesCreated),
		zap.Int("errors", len(result.Errors)),
	)
	return result
}

// validateAll runs every draft's validation concurrently and collects both
// outcomes, allSettled style: one bad draft never short-circuits the rest.
func (b *BulkEntityCreator) validateAll(drafts []models.DraftEntity, result *BulkResult) []models.DraftEntity {
	errs := make([]error, len(drafts))
	var wg sync.WaitGroup
	for i := range drafts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = validateDraft(drafts[i])
		}(i)
	}
	wg.Wait()

	valid := make([]models.DraftEntity, 0, len(drafts))
	for i, d := range drafts {
		if errs[i] != nil {
			result.Errors = append(result.Errors, describeSource(d.Source)+": "+errs[i].Error())
			continue
		}
		valid = append(valid, d)
	}
	return valid
}

// insertContracts tries one batched insert; if the batch fails, each row is
// retried alone so one bad contract cannot take down its siblings. Returns
// the contracts that actually landed.
func (b *BulkEntityCreator) insertContracts(ctx context.Context, rows []*models.Contract, sources []models.DraftEntity, result *BulkResult) []*models.Contract {
	if len(rows) == 0 {
		return nil
	}
	if err := b.contracts.CreateBatch(ctx, rows); err == nil {
		result.ContractsCreated = len(rows)
		return rows
	}

	var created []*models.Contract
	for i, row := range rows {
		if err := b.contracts.CreateBatch(ctx, []*models.Contract{row}); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: failed to save contract %q/%q: %v",
				describeSource(sources[i].Source), row.ClientName, row.ProjectName, err))
			continue
		}
		created = append(created, row)
	}
	result.ContractsCreated = len(created)
	return created
}

func insertBatch[T any](
	ctx context.Context,
	rows []*T,
	sources []models.DraftEntity,
	result *BulkResult,
	create func(context.Context, []*T) error,
	describe func(*T) string,
) int {
	if len(rows) == 0 {
		return 0
	}
	if err := create(ctx, rows); err == nil {
		return len(rows)
	}

	createdCount := 0
	for i, row := range rows {
		if err := create(ctx, []*T{row}); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: failed to save %s: %v",
				describeSource(sources[i].Source), describe(row), err))
			continue
		}
		createdCount++
	}
	return createdCount
}

func (b *BulkEntityCreator) resolveContract(index *ContractIndex, crossReference string) *uuid.UUID {
	if crossReference == "" {
		return nil
	}
	ref, ok := index.Match(crossReference)
	if !ok || ref.ID == uuid.Nil {
		return nil
	}
	id := ref.ID
	return &id
}

// recordAudit writes one audit entry per kind batch, fire-and-forget. Audit
// failures are logged and swallowed; they must never fail the pipeline.
func (b *BulkEntityCreator) recordAudit(teamID uuid.UUID, fileName string, kind models.EntityKind, count int) {
	if count == 0 {
		return
	}
	entry := &models.AuditLog{
		ID:         uuid.New(),
		TeamID:     teamID,
		Action:     "bulk_create",
		EntityKind: kind,
		BatchSize:  count,
		FileName:   fileName,
		CreatedAt:  time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.audit.Record(ctx, entry); err != nil {
			b.logger.Warn("Audit record failed",
				zap.String("entity_kind", string(kind)),
				zap.Error(err),
			)
		}
	}()
}

func validateDraft(d models.DraftEntity) error {
	switch d.Kind {
	case models.EntityKindContract:
		if d.Contract == nil {
			return errors.New("contract draft has no payload")
		}
		if d.Contract.ClientName == "" || d.Contract.ProjectName == "" {
			return errors.New("contract requires client and project names")
		}
		if d.Contract.TotalValue <= 0 {
			return errors.New("contract requires a positive total value")
		}
		if d.Contract.SignedDate.IsZero() {
			return errors.New("contract requires a signed date")
		}
	case models.EntityKindReceivable:
		if d.Receivable == nil {
			return errors.New("receivable draft has no payload")
		}
		if d.Receivable.Amount <= 0 {
			return errors.New("receivable requires a positive amount")
		}
		if d.Receivable.ExpectedDate.IsZero() {
			return errors.New("receivable requires an expected date")
		}
	case models.EntityKindExpense:
		if d.Expense == nil {
			return errors.New("expense draft has no payload")
		}
		if d.Expense.Description == "" {
			return errors.New("expense requires a description")
		}
		if d.Expense.Amount <= 0 {
			return errors.New("expense requires a positive amount")
		}
		if d.Expense.DueDate.IsZero() {
			return errors.New("expense requires a due date")
		}
	default:
		return fmt.Errorf("unknown draft kind %q", d.Kind)
	}
	return nil
}

func describeSource(s models.SourceLocation) string {
	if s.Row > 0 {
		return fmt.Sprintf("sheet %q row %d", s.SheetName, s.Row)
	}
	if s.SheetName != "" {
		return fmt.Sprintf("document %q", s.SheetName)
	}
	return s.FileName
}
