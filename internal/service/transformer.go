package service

import (
	"fmt"
	"strings"

	"fluxodocs/internal/models"

	"go.uber.org/zap"
)

// Positional fallbacks used when a table has no header and the classifier
// could not map columns. Guesses, nothing more; required-field validation
// still decides what survives.
var positionalColumns = map[models.EntityKind]map[string]int{
	models.EntityKindContract: {
		"clientName": 0, "projectName": 1, "totalValue": 2, "signedDate": 3,
	},
	models.EntityKindReceivable: {
		"clientName": 0, "description": 1, "amount": 2, "expectedDate": 3,
	},
	models.EntityKindExpense: {
		"description": 0, "vendor": 1, "amount": 2, "dueDate": 3,
	},
}

// DataTransformer turns classified table rows into draft entities: column
// mapping, locale normalization, fuzzy contract linking and required-field
// validation. Pure: no database or network access; the contract index is a
// read-only snapshot.
type DataTransformer struct {
	logger *zap.Logger
}

func NewDataTransformer(logger *zap.Logger) *DataTransformer {
	return &DataTransformer{logger: logger}
}

// Transform processes every data row of one table under its classifications.
// Rows failing validation become RowErrors, never silent drops. For tables
// classified with several kinds, a row belongs to the first kind it validates
// under.
func (t *DataTransformer) Transform(
	table SegmentedTable,
	classifications []models.TableClassification,
	index *ContractIndex,
	fileName string,
) ([]models.DraftEntity, []models.RowError) {
	var drafts []models.DraftEntity
	var rowErrors []models.RowError

	for _, row := range table.Rows {
		var draft *models.DraftEntity
		var firstErr error
		for _, cls := range classifications {
			d, err := t.transformRow(table, row, cls, index, fileName)
			if err == nil {
				draft = d
				break
			}
			if firstErr == nil {
				firstErr = err
			}
		}

		if draft != nil {
			drafts = append(drafts, *draft)
			continue
		}
		rowErrors = append(rowErrors, models.RowError{
			SheetName: table.SheetName,
			Row:       row.Index + 1,
			Message:   firstErr.Error(),
		})
	}

	t.logger.Debug("Table transformed",
		zap.String("sheet", table.SheetName),
		zap.Int("drafts", len(drafts)),
		zap.Int("row_errors", len(rowErrors)),
	)
	return drafts, rowErrors
}

func (t *DataTransformer) transformRow(
	table SegmentedTable,
	row TableRow,
	cls models.TableClassification,
	index *ContractIndex,
	fileName string,
) (*models.DraftEntity, error) {
	columns := cls.Columns
	if len(columns) == 0 {
		columns = positionalColumns[cls.Kind]
	}

	cell := func(field string) string {
		col, ok := columns[field]
		if !ok || col < 0 || col >= len(row.Cells) {
			return ""
		}
		return strings.TrimSpace(row.Cells[col])
	}

	source := models.SourceLocation{
		FileName:  fileName,
		SheetName: table.SheetName,
		Row:       row.Index + 1,
	}

	switch cls.Kind {
	case models.EntityKindContract:
		return t.buildContract(cell, source)
	case models.EntityKindReceivable:
		return t.buildReceivable(cell, source, index)
	case models.EntityKindExpense:
		return t.buildExpense(cell, source, index)
	default:
		return nil, fmt.Errorf("unknown entity kind %q", cls.Kind)
	}
}

type cellFunc func(field string) string

func (t *DataTransformer) buildContract(cell cellFunc, source models.SourceLocation) (*models.DraftEntity, error) {
	var missing []string

	clientName := sanitizeUTF8(cell("clientName"))
	if clientName == "" {
		missing = append(missing, "clientName")
	}
	projectName := sanitizeUTF8(cell("projectName"))
	if projectName == "" {
		missing = append(missing, "projectName")
	}

	totalValue, err := ParseCurrency(cell("totalValue"))
	if err != nil {
		missing = append(missing, "totalValue")
	}
	signedDate, err := ParseDate(cell("signedDate"))
	if err != nil {
		missing = append(missing, "signedDate")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("contract row missing required fields: %s", strings.Join(missing, ", "))
	}

	return &models.DraftEntity{
		Kind: models.EntityKindContract,
		Contract: &models.DraftContract{
			ClientName:  clientName,
			ProjectName: projectName,
			Description: sanitizeUTF8(cell("description")),
			TotalValue:  totalValue,
			SignedDate:  signedDate,
			Status:      models.ContractStatusActive,
		},
		Source: source,
	}, nil
}

func (t *DataTransformer) buildReceivable(cell cellFunc, source models.SourceLocation, index *ContractIndex) (*models.DraftEntity, error) {
	var missing []string

	amount, err := ParseCurrency(cell("amount"))
	if err != nil {
		missing = append(missing, "amount")
	}
	expectedDate, err := ParseDate(cell("expectedDate"))
	if err != nil {
		missing = append(missing, "expectedDate")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("receivable row missing required fields: %s", strings.Join(missing, ", "))
	}

	clientName := sanitizeUTF8(cell("clientName"))
	return &models.DraftEntity{
		Kind: models.EntityKindReceivable,
		Receivable: &models.DraftReceivable{
			ClientName:   clientName,
			Description:  sanitizeUTF8(cell("description")),
			Amount:       amount,
			ExpectedDate: expectedDate,
		},
		Source:         source,
		CrossReference: t.linkContract(index, clientName, cell("projectName")),
	}, nil
}

func (t *DataTransformer) buildExpense(cell cellFunc, source models.SourceLocation, index *ContractIndex) (*models.DraftEntity, error) {
	var missing []string

	description := sanitizeUTF8(cell("description"))
	if description == "" {
		missing = append(missing, "description")
	}
	amount, err := ParseCurrency(cell("amount"))
	if err != nil {
		missing = append(missing, "amount")
	}
	dueDate, err := ParseDate(cell("dueDate"))
	if err != nil {
		missing = append(missing, "dueDate")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("expense row missing required fields: %s", strings.Join(missing, ", "))
	}

	return &models.DraftEntity{
		Kind: models.EntityKindExpense,
		Expense: &models.DraftExpense{
			Description: description,
			Vendor:      sanitizeUTF8(cell("vendor")),
			Amount:      amount,
			DueDate:     dueDate,
			Category:    parseExpenseCategory(cell("category")),
		},
		Source:         source,
		CrossReference: t.linkContract(index, cell("clientName"), cell("projectName")),
	}, nil
}

// linkContract fuzzy-matches the row's client/project mention against the
// shared contract snapshot. The returned value is the matched contract's
// canonical key, or empty when nothing clears the threshold (the link stays
// null rather than guessing).
func (t *DataTransformer) linkContract(index *ContractIndex, clientName, projectName string) string {
	if index == nil {
		return ""
	}
	mention := strings.TrimSpace(clientName + " " + projectName)
	if mention == "" {
		return ""
	}
	ref, ok := index.Match(mention)
	if !ok {
		return ""
	}
	return ref.Key()
}

func parseExpenseCategory(raw string) models.ExpenseCategory {
	switch NormalizeName(raw) {
	case "materials", "material", "materiais":
		return models.ExpenseCategoryMaterials
	case "labor", "mao de obra":
		return models.ExpenseCategoryLabor
	case "equipment", "equipamento", "equipamentos":
		return models.ExpenseCategoryEquipment
	case "transport", "transporte", "viagem":
		return models.ExpenseCategoryTransport
	case "office", "escritorio":
		return models.ExpenseCategoryOffice
	case "software", "assinatura":
		return models.ExpenseCategorySoftware
	case "operations", "operacional":
		return models.ExpenseCategoryOperations
	default:
		return models.ExpenseCategoryOther
	}
}
