package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fluxodocs/internal/models"
	"fluxodocs/pkg/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPipelineConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		ClassifyConcurrency: 2,
		RetryAttempts:       1,
		RetryBaseDelay:      time.Millisecond,
		SampleRows:          5,
		FuzzyThreshold:      0.62,
		RequestDeadline:     time.Minute,
		ProgressTTL:         time.Minute,
	}
}

func newProcessor(t *testing.T, ai DocumentAI) (*Processor, *fakeContractStore, *fakeReceivableStore, *ProgressService) {
	t.Helper()
	logger := zap.NewNop()
	contracts := &fakeContractStore{}
	receivables := &fakeReceivableStore{}
	expenses := &fakeExpenseStore{}
	audit := &fakeAuditStore{}

	cfg := testPipelineConfig()
	creator := NewBulkEntityCreator(contracts, receivables, expenses, audit, cfg.FuzzyThreshold, logger)
	analyzer := NewSheetAnalyzer(ai, cfg.SampleRows, logger)
	transformer := NewDataTransformer(logger)
	vision := NewVisionExtractor(ai, logger)
	progress := NewProgressService(cfg.ProgressTTL)
	t.Cleanup(progress.Close)

	return NewProcessor(analyzer, transformer, vision, creator, contracts, progress, cfg, logger), contracts, receivables, progress
}

// classifyByHeader routes tables on their first header cell, the way the real
// classifier keys off column names.
func classifyByHeader() *fakeDocumentAI {
	return &fakeDocumentAI{
		classifyFn: func(ctx context.Context, summary TableSummary, guidance string) ([]models.TableClassification, error) {
			if len(summary.Header) == 0 {
				return nil, nil
			}
			switch summary.Header[0] {
			case "Cliente":
				return []models.TableClassification{{
					Kind:    models.EntityKindContract,
					Columns: map[string]int{"clientName": 0, "projectName": 1, "totalValue": 2, "signedDate": 3},
				}}, nil
			case "Devedor":
				return []models.TableClassification{{
					Kind:    models.EntityKindReceivable,
					Columns: map[string]int{"clientName": 0, "amount": 1, "expectedDate": 2},
				}}, nil
			}
			return nil, nil
		},
		extractFn: func(ctx context.Context, content []byte, fileName, guidance string) (*VisualExtraction, error) {
			return &VisualExtraction{
				DocumentType: "invoice",
				Expenses: []VisualExpenseResult{{
					Description: "Material elétrico", Vendor: "Eletro SP",
					Amount: 980, DueDate: "2024-09-25", Category: "materials",
				}},
			}, nil
		},
	}
}

func TestProcessFile_CSVEndToEnd(t *testing.T) {
	p, contracts, receivables, _ := newProcessor(t, classifyByHeader())
	teamID := uuid.New()

	csvData := []byte("Cliente;Projeto;Valor;Data\n" +
		"João Silva;Casa da Praia;R$ 185.000,00;15/09/2024\n" +
		"Padaria São José;Sistema de Pedidos;R$ 42.000,00;01/08/2024\n")

	outcome := p.ProcessFile(context.Background(), teamID,
		UploadFile{Name: "contratos.csv", Content: csvData}, "", uuid.New())

	assert.True(t, outcome.Success)
	assert.Equal(t, 2, outcome.ContractsCreated)
	assert.Empty(t, outcome.Errors)
	assert.Len(t, contracts.created, 2)
	assert.Empty(t, receivables.created)
}

func TestProcessFile_ReceivableLinksToSameFileContract(t *testing.T) {
	p, contracts, receivables, _ := newProcessor(t, classifyByHeader())

	// One sheet, two tables split by blank rows: contracts first, then
	// receivables that mention the contract's client.
	csvData := []byte("Cliente;Projeto;Valor;Data\n" +
		"João Silva;Casa da Praia;R$ 185.000,00;15/09/2024\n" +
		";;;\n" +
		";;;\n" +
		"Devedor;Valor;Previsão\n" +
		"João Silva;R$ 55.500,00;01/10/2024\n")

	outcome := p.ProcessFile(context.Background(), uuid.New(),
		UploadFile{Name: "misto.csv", Content: csvData}, "", uuid.New())

	assert.True(t, outcome.Success)
	assert.Equal(t, 1, outcome.ContractsCreated)
	assert.Equal(t, 1, outcome.ReceivablesCreated)
	require.Len(t, receivables.created, 1)
	require.NotNil(t, receivables.created[0].ContractID)
	assert.Equal(t, contracts.created[0].ID, *receivables.created[0].ContractID)
}

func TestProcessFile_UnsupportedKind(t *testing.T) {
	p, _, _, _ := newProcessor(t, classifyByHeader())

	outcome := p.ProcessFile(context.Background(), uuid.New(),
		UploadFile{Name: "notas.txt", Content: []byte("texto livre")}, "", uuid.New())

	assert.False(t, outcome.Success)
	require.Len(t, outcome.Errors, 1)
	assert.Contains(t, outcome.Errors[0], "unsupported")
}

func TestProcessFile_VisualPath(t *testing.T) {
	p, _, _, _ := newProcessor(t, classifyByHeader())

	outcome := p.ProcessFile(context.Background(), uuid.New(),
		UploadFile{Name: "nota.pdf", Content: []byte("%PDF-1.7 fake")}, "", uuid.New())

	assert.True(t, outcome.Success)
	assert.Equal(t, 1, outcome.ExpensesCreated)
	assert.Equal(t, string(models.FileKindPDF), outcome.Kind)
}

func TestProcessFile_ClassificationFailureIsTableScoped(t *testing.T) {
	ai := classifyByHeader()
	base := ai.classifyFn
	ai.classifyFn = func(ctx context.Context, summary TableSummary, guidance string) ([]models.TableClassification, error) {
		if len(summary.Header) > 0 && summary.Header[0] == "Devedor" {
			return nil, errors.New("model unavailable")
		}
		return base(ctx, summary, guidance)
	}
	p, contracts, _, _ := newProcessor(t, ai)

	csvData := []byte("Cliente;Projeto;Valor;Data\n" +
		"João Silva;Casa da Praia;R$ 185.000,00;15/09/2024\n" +
		";;;\n" +
		";;;\n" +
		"Devedor;Valor;Previsão\n" +
		"João Silva;R$ 55.500,00;01/10/2024\n")

	outcome := p.ProcessFile(context.Background(), uuid.New(),
		UploadFile{Name: "misto.csv", Content: csvData}, "", uuid.New())

	// The contract table still lands even though the sibling table failed.
	assert.True(t, outcome.Success)
	assert.Equal(t, 1, outcome.ContractsCreated)
	assert.Len(t, contracts.created, 1)
	require.NotEmpty(t, outcome.Errors)
	assert.Contains(t, outcome.Errors[0], "classification failed")
}

func TestProcessBatch_ContinueOnError(t *testing.T) {
	p, _, _, progress := newProcessor(t, classifyByHeader())

	files := []UploadFile{
		{Name: "notas.txt", Content: []byte("texto livre")},
		{Name: "contratos.csv", Content: []byte("Cliente;Projeto;Valor;Data\nJoão Silva;Casa da Praia;R$ 185.000,00;15/09/2024\n")},
	}

	sessionID := progress.Start(len(files))
	outcome := p.ProcessBatch(context.Background(), uuid.New(), files, "", "", sessionID)

	assert.Equal(t, 2, outcome.TotalFiles)
	assert.Equal(t, 1, outcome.SuccessfulFiles)
	assert.Equal(t, 1, outcome.FailedFiles)
	assert.Equal(t, 1, outcome.ContractsCreated)
	require.Len(t, outcome.Files, 2)
	assert.False(t, outcome.Files[0].Success)
	assert.True(t, outcome.Files[1].Success)

	snapshot, ok := progress.Get(sessionID)
	require.True(t, ok)
	assert.Equal(t, BatchStateFinished, snapshot.State)
	assert.Equal(t, 2, snapshot.ProcessedFiles)
	assert.NotEmpty(t, snapshot.Events)
}
