package service

import (
	"context"
	"sync"

	"fluxodocs/internal/models"

	"github.com/google/uuid"
)

type fakeDocumentAI struct {
	classifyFn func(ctx context.Context, summary TableSummary, guidance string) ([]models.TableClassification, error)
	extractFn  func(ctx context.Context, content []byte, fileName, guidance string) (*VisualExtraction, error)
}

func (f *fakeDocumentAI) ClassifyTable(ctx context.Context, summary TableSummary, guidance string) ([]models.TableClassification, error) {
	return f.classifyFn(ctx, summary, guidance)
}

func (f *fakeDocumentAI) ExtractVisual(ctx context.Context, content []byte, fileName, guidance string) (*VisualExtraction, error) {
	return f.extractFn(ctx, content, fileName, guidance)
}

type fakeContractStore struct {
	mu       sync.Mutex
	existing []*models.Contract
	created  []*models.Contract
	failErr  error
}

func (f *fakeContractStore) CreateBatch(ctx context.Context, contracts []*models.Contract) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.created = append(f.created, contracts...)
	return nil
}

func (f *fakeContractStore) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*models.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(f.existing, f.created...), nil
}

type fakeReceivableStore struct {
	mu      sync.Mutex
	created []*models.Receivable
	failErr error
}

func (f *fakeReceivableStore) CreateBatch(ctx context.Context, receivables []*models.Receivable) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.created = append(f.created, receivables...)
	return nil
}

type fakeExpenseStore struct {
	mu      sync.Mutex
	created []*models.Expense
	failErr error
}

func (f *fakeExpenseStore) CreateBatch(ctx context.Context, expenses []*models.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.created = append(f.created, expenses...)
	return nil
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []*models.AuditLog
	failErr error
}

func (f *fakeAuditStore) Record(ctx context.Context, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
