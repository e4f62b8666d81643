package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fluxodocs/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCreator(t *testing.T) (*BulkEntityCreator, *fakeContractStore, *fakeReceivableStore, *fakeExpenseStore, *fakeAuditStore) {
	t.Helper()
	contracts := &fakeContractStore{}
	receivables := &fakeReceivableStore{}
	expenses := &fakeExpenseStore{}
	audit := &fakeAuditStore{}
	creator := NewBulkEntityCreator(contracts, receivables, expenses, audit, 0.62, zap.NewNop())
	return creator, contracts, receivables, expenses, audit
}

func draftContract(client, project string) models.DraftEntity {
	return models.DraftEntity{
		Kind: models.EntityKindContract,
		Contract: &models.DraftContract{
			ClientName:  client,
			ProjectName: project,
			TotalValue:  100000,
			SignedDate:  time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC),
			Status:      models.ContractStatusActive,
		},
		Source: models.SourceLocation{FileName: "f.xlsx", SheetName: "Contratos", Row: 2},
	}
}

func draftReceivable(crossRef string) models.DraftEntity {
	return models.DraftEntity{
		Kind: models.EntityKindReceivable,
		Receivable: &models.DraftReceivable{
			ClientName:   "João Silva",
			Description:  "Parcela 1",
			Amount:       30000,
			ExpectedDate: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
		},
		Source:         models.SourceLocation{FileName: "f.xlsx", SheetName: "Recebíveis", Row: 3},
		CrossReference: crossRef,
	}
}

func TestBulkCreate_LinksReceivableToBatchContract(t *testing.T) {
	creator, contracts, receivables, _, _ := newCreator(t)
	teamID := uuid.New()

	drafts := []models.DraftEntity{
		draftContract("João Silva", "Casa da Praia"),
		draftReceivable("joao silva casa da praia"),
	}

	result := creator.Create(context.Background(), teamID, "f.xlsx", drafts, nil)
	assert.Equal(t, 1, result.ContractsCreated)
	assert.Equal(t, 1, result.ReceivablesCreated)
	assert.Empty(t, result.Errors)

	require.Len(t, contracts.created, 1)
	require.Len(t, receivables.created, 1)
	assert.Equal(t, teamID, contracts.created[0].TeamID)
	assert.Equal(t, teamID, receivables.created[0].TeamID)
	require.NotNil(t, receivables.created[0].ContractID)
	assert.Equal(t, contracts.created[0].ID, *receivables.created[0].ContractID)
}

func TestBulkCreate_LinksAgainstPersistedContracts(t *testing.T) {
	creator, _, receivables, _, _ := newCreator(t)
	existingID := uuid.New()
	existing := []*models.Contract{{
		ID: existingID, ClientName: "Padaria São José", ProjectName: "Sistema de Pedidos",
	}}

	result := creator.Create(context.Background(), uuid.New(), "f.xlsx",
		[]models.DraftEntity{draftReceivable("Padaria São José")}, existing)

	assert.Equal(t, 1, result.ReceivablesCreated)
	require.Len(t, receivables.created, 1)
	require.NotNil(t, receivables.created[0].ContractID)
	assert.Equal(t, existingID, *receivables.created[0].ContractID)
}

func TestBulkCreate_UnmatchedReferenceStaysNull(t *testing.T) {
	creator, _, receivables, _, _ := newCreator(t)

	result := creator.Create(context.Background(), uuid.New(), "f.xlsx",
		[]models.DraftEntity{draftReceivable("Cliente Inexistente")}, nil)

	assert.Equal(t, 1, result.ReceivablesCreated)
	require.Len(t, receivables.created, 1)
	assert.Nil(t, receivables.created[0].ContractID)
}

func TestBulkCreate_InvalidDraftDoesNotBlockSiblings(t *testing.T) {
	creator, contracts, _, _, _ := newCreator(t)

	bad := draftContract("", "Sem Cliente")
	good := draftContract("João Silva", "Casa da Praia")

	result := creator.Create(context.Background(), uuid.New(), "f.xlsx",
		[]models.DraftEntity{bad, good}, nil)

	assert.Equal(t, 1, result.ContractsCreated)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "client")
	assert.Contains(t, result.Errors[0], "row 2")
	assert.Len(t, contracts.created, 1)
}

func TestBulkCreate_InsertFailureIsReportedPerEntity(t *testing.T) {
	creator, _, _, expenses, _ := newCreator(t)
	expenses.failErr = errors.New("connection refused")

	draft := models.DraftEntity{
		Kind: models.EntityKindExpense,
		Expense: &models.DraftExpense{
			Description: "Aluguel",
			Amount:      3500,
			DueDate:     time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC),
			Category:    models.ExpenseCategoryOffice,
		},
		Source: models.SourceLocation{FileName: "f.csv", SheetName: "Despesas", Row: 4},
	}

	result := creator.Create(context.Background(), uuid.New(), "f.csv",
		[]models.DraftEntity{draft}, nil)

	assert.Equal(t, 0, result.ExpensesCreated)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Aluguel")
}

func TestBulkCreate_AuditRecordedPerKind(t *testing.T) {
	creator, _, _, _, audit := newCreator(t)

	creator.Create(context.Background(), uuid.New(), "f.xlsx", []models.DraftEntity{
		draftContract("João Silva", "Casa da Praia"),
		draftReceivable(""),
	}, nil)

	// Audit writes are fire-and-forget.
	require.Eventually(t, func() bool { return audit.count() == 2 }, time.Second, 10*time.Millisecond)
}

func TestBulkCreate_AuditFailureIsSwallowed(t *testing.T) {
	creator, contracts, _, _, audit := newCreator(t)
	audit.failErr = errors.New("audit table missing")

	result := creator.Create(context.Background(), uuid.New(), "f.xlsx",
		[]models.DraftEntity{draftContract("João Silva", "Casa da Praia")}, nil)

	assert.Equal(t, 1, result.ContractsCreated)
	assert.Empty(t, result.Errors)
	assert.Len(t, contracts.created, 1)
}
