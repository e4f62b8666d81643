package service

import (
	"context"
	"fmt"

	"fluxodocs/internal/models"

	"go.uber.org/zap"
)

// SheetAnalyzer decides what each segmented table holds by sending a bounded
// structural summary to the AI service. Classification failures are table
// scoped: the orchestrator records the reason and moves on to sibling tables.
type SheetAnalyzer struct {
	ai         DocumentAI
	sampleRows int
	logger     *zap.Logger
}

func NewSheetAnalyzer(ai DocumentAI, sampleRows int, logger *zap.Logger) *SheetAnalyzer {
	if sampleRows <= 0 {
		sampleRows = 5
	}
	return &SheetAnalyzer{
		ai:         ai,
		sampleRows: sampleRows,
		logger:     logger,
	}
}

// Classify returns the advisory entity-kind classifications for one table.
// An empty slice means the AI looked and found no financial entities; an
// error means the call itself failed after retries.
func (a *SheetAnalyzer) Classify(ctx context.Context, table SegmentedTable, guidance string) ([]models.TableClassification, error) {
	summary := TableSummary{
		SheetName: table.SheetName,
		Header:    table.Header,
		HasHeader: table.HasHeader,
		RowCount:  len(table.Rows),
	}
	for i := 0; i < len(table.Rows) && i < a.sampleRows; i++ {
		summary.SampleRows = append(summary.SampleRows, table.Rows[i].Cells)
	}

	classifications, err := a.ai.ClassifyTable(ctx, summary, guidance)
	if err != nil {
		return nil, fmt.Errorf("table %q (sheet %s): %w", headerLabel(table), table.SheetName, err)
	}

	a.logger.Debug("Table classification resolved",
		zap.String("sheet", table.SheetName),
		zap.Int("rows", len(table.Rows)),
		zap.Int("kinds", len(classifications)),
	)
	return classifications, nil
}

func headerLabel(table SegmentedTable) string {
	if table.HasHeader && len(table.Header) > 0 {
		return table.Header[0]
	}
	return "(no header)"
}
