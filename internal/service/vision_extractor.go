package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fluxodocs/internal/models"

	"go.uber.org/zap"
)

// VisionExtractor is the parallel path for non-tabular documents. The whole
// PDF/image goes to the AI service as one unit; there is no reliable sub-row
// boundary in a scanned invoice, so a malformed reply fails the file rather
// than individual rows.
type VisionExtractor struct {
	ai     DocumentAI
	logger *zap.Logger
}

func NewVisionExtractor(ai DocumentAI, logger *zap.Logger) *VisionExtractor {
	return &VisionExtractor{ai: ai, logger: logger}
}

// Extract runs vision extraction and applies the document-type policy. The
// policy is deliberately written as explicit branches, not left to the model:
//
//   - proposals/quotes produce a contract, plus receivables only when the
//     document states explicit payment terms;
//   - invoices and receipts produce expenses;
//   - signed contracts/agreements produce a contract, plus receivables under
//     the same payment-terms condition.
//
// Entities missing required fields are reported as entity-level errors; they
// do not fail the file once valid JSON came back.
func (v *VisionExtractor) Extract(ctx context.Context, content []byte, fileName, guidance string) ([]models.DraftEntity, []models.RowError, error) {
	if len(content) == 0 {
		return nil, nil, ErrEmptyFile
	}

	extraction, err := v.ai.ExtractVisual(ctx, content, fileName, guidance)
	if err != nil {
		return nil, nil, err
	}

	docType := strings.ToLower(strings.TrimSpace(extraction.DocumentType))
	keepContracts := false
	keepReceivables := false
	keepExpenses := false
	switch docType {
	case "proposal", "quote":
		keepContracts = true
		keepReceivables = extraction.HasExplicitPaymentTerms
	case "invoice", "receipt":
		keepExpenses = true
	case "contract", "agreement":
		keepContracts = true
		keepReceivables = extraction.HasExplicitPaymentTerms
	default:
		// Unrecognized document type: keep whatever was extracted and let
		// validation sort it out.
		keepContracts, keepReceivables, keepExpenses = true, true, true
	}

	source := models.SourceLocation{FileName: fileName, SheetName: fileName}
	var drafts []models.DraftEntity
	var entityErrors []models.RowError

	addError := func(format string, args ...interface{}) {
		entityErrors = append(entityErrors, models.RowError{
			SheetName: fileName,
			Message:   fmt.Sprintf(format, args...),
		})
	}

	if keepContracts {
		for _, c := range extraction.Contracts {
			if c.ClientName == "" || c.ProjectName == "" || c.TotalValue <= 0 {
				addError("contract %q/%q missing required fields", c.ClientName, c.ProjectName)
				continue
			}
			signedDate, err := parseVisionDate(c.SignedDate)
			if err != nil {
				addError("contract %q: unparseable signed date %q", c.ClientName, c.SignedDate)
				continue
			}
			drafts = append(drafts, models.DraftEntity{
				Kind: models.EntityKindContract,
				Contract: &models.DraftContract{
					ClientName:  sanitizeUTF8(c.ClientName),
					ProjectName: sanitizeUTF8(c.ProjectName),
					Description: sanitizeUTF8(c.Description),
					TotalValue:  c.TotalValue,
					SignedDate:  signedDate,
					Status:      models.ContractStatusActive,
				},
				Source: source,
			})
		}
	}

	if keepReceivables {
		for _, r := range extraction.Receivables {
			if r.Amount <= 0 {
				addError("receivable %q missing amount", r.Description)
				continue
			}
			expectedDate, err := parseVisionDate(r.ExpectedDate)
			if err != nil {
				addError("receivable %q: unparseable expected date %q", r.Description, r.ExpectedDate)
				continue
			}
			drafts = append(drafts, models.DraftEntity{
				Kind: models.EntityKindReceivable,
				Receivable: &models.DraftReceivable{
					ClientName:   sanitizeUTF8(r.ClientName),
					Description:  sanitizeUTF8(r.Description),
					Amount:       r.Amount,
					ExpectedDate: expectedDate,
				},
				Source:         source,
				CrossReference: strings.TrimSpace(r.ClientName),
			})
		}
	}

	if keepExpenses {
		for _, e := range extraction.Expenses {
			if e.Description == "" || e.Amount <= 0 {
				addError("expense %q missing required fields", e.Description)
				continue
			}
			dueDate, err := parseVisionDate(e.DueDate)
			if err != nil {
				addError("expense %q: unparseable due date %q", e.Description, e.DueDate)
				continue
			}
			drafts = append(drafts, models.DraftEntity{
				Kind: models.EntityKindExpense,
				Expense: &models.DraftExpense{
					Description: sanitizeUTF8(e.Description),
					Vendor:      sanitizeUTF8(e.Vendor),
					Amount:      e.Amount,
					DueDate:     dueDate,
					Category:    parseExpenseCategory(e.Category),
				},
				Source: source,
			})
		}
	}

	v.logger.Info("Visual document processed",
		zap.String("file", fileName),
		zap.String("document_type", docType),
		zap.Int("drafts", len(drafts)),
		zap.Int("entity_errors", len(entityErrors)),
	)
	return drafts, entityErrors, nil
}

// parseVisionDate accepts the ISO dates the prompt demands, falling back to
// the locale parser because models do not always comply.
func parseVisionDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err == nil {
		return t, nil
	}
	return ParseDate(s)
}
