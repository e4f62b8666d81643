package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fluxodocs/internal/models"
	"fluxodocs/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UploadFile is one file of an upload batch, already read into memory.
type UploadFile struct {
	Name    string
	Content []byte
}

// FileOutcome is the per-file report: what was created and every row, table
// or persistence error that happened along the way. Success means the file
// produced at least a clean pipeline run; it may still carry row errors.
type FileOutcome struct {
	FileName           string   `json:"file_name"`
	Success            bool     `json:"success"`
	Kind               string   `json:"kind"`
	ContractsCreated   int      `json:"contracts_created"`
	ReceivablesCreated int      `json:"receivables_created"`
	ExpensesCreated    int      `json:"expenses_created"`
	Errors             []string `json:"errors,omitempty"`
	// PhaseTimings holds per-stage elapsed milliseconds (parse, classify,
	// transform, vision, persist).
	PhaseTimings map[string]int64 `json:"phase_timings,omitempty"`
}

type BatchOutcome struct {
	SessionID          uuid.UUID     `json:"session_id"`
	TotalFiles         int           `json:"total_files"`
	SuccessfulFiles    int           `json:"successful_files"`
	FailedFiles        int           `json:"failed_files"`
	ContractsCreated   int           `json:"contracts_created"`
	ReceivablesCreated int           `json:"receivables_created"`
	ExpensesCreated    int           `json:"expenses_created"`
	Files              []FileOutcome `json:"files"`
	Elapsed            time.Duration `json:"-"`
}

// Processor drives the whole pipeline: file-kind detection, decoding,
// segmentation, classification, transformation, visual extraction and bulk
// persistence. Files in a batch are processed one after another; a failed
// file is reported and never stops its siblings.
type Processor struct {
	analyzer    *SheetAnalyzer
	transformer *DataTransformer
	vision      *VisionExtractor
	creator     *BulkEntityCreator
	contracts   ContractStore
	progress    *ProgressService
	cfg         *config.PipelineConfig
	logger      *zap.Logger
}

func NewProcessor(
	analyzer *SheetAnalyzer,
	transformer *DataTransformer,
	vision *VisionExtractor,
	creator *BulkEntityCreator,
	contracts ContractStore,
	progress *ProgressService,
	cfg *config.PipelineConfig,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		analyzer:    analyzer,
		transformer: transformer,
		vision:      vision,
		creator:     creator,
		contracts:   contracts,
		progress:    progress,
		cfg:         cfg,
		logger:      logger,
	}
}

// ProcessBatch runs every file of one upload under a single deadline,
// sequentially and continue-on-error, reporting progress under sessionID.
func (p *Processor) ProcessBatch(
	ctx context.Context,
	teamID uuid.UUID,
	files []UploadFile,
	typeHint, guidance string,
	sessionID uuid.UUID,
) *BatchOutcome {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.RequestDeadline)
	defer cancel()

	started := time.Now()
	outcome := &BatchOutcome{
		SessionID:  sessionID,
		TotalFiles: len(files),
	}
	combinedGuidance := composeGuidance(typeHint, guidance)

	for _, file := range files {
		p.progress.Event(sessionID, file.Name, "started", "")

		fileOutcome := p.ProcessFile(ctx, teamID, file, combinedGuidance, sessionID)
		outcome.Files = append(outcome.Files, fileOutcome)
		outcome.ContractsCreated += fileOutcome.ContractsCreated
		outcome.ReceivablesCreated += fileOutcome.ReceivablesCreated
		outcome.ExpensesCreated += fileOutcome.ExpensesCreated
		if fileOutcome.Success {
			outcome.SuccessfulFiles++
			p.progress.Event(sessionID, file.Name, "finished", "")
		} else {
			outcome.FailedFiles++
			p.progress.Event(sessionID, file.Name, "failed", firstError(fileOutcome.Errors))
		}
		p.progress.FileDone(sessionID)
	}

	p.progress.Finish(sessionID)
	outcome.Elapsed = time.Since(started)
	p.logger.Info("Batch processed",
		zap.String("team_id", teamID.String()),
		zap.Int("total_files", outcome.TotalFiles),
		zap.Int("successful", outcome.SuccessfulFiles),
		zap.Int("failed", outcome.FailedFiles),
		zap.Duration("elapsed", outcome.Elapsed),
	)
	return outcome
}

// ProcessFile runs one file through the pipeline. Decode failures and
// unsupported kinds are file fatal; everything narrower stays row or table
// scoped inside the outcome's error list.
func (p *Processor) ProcessFile(
	ctx context.Context,
	teamID uuid.UUID,
	file UploadFile,
	guidance string,
	sessionID uuid.UUID,
) FileOutcome {
	started := time.Now()
	kind := DetectFileKind(file.Content, file.Name)
	outcome := FileOutcome{
		FileName:     file.Name,
		Kind:         string(kind),
		PhaseTimings: make(map[string]int64),
	}
	timePhase := func(name string, since time.Time) {
		outcome.PhaseTimings[name] = time.Since(since).Milliseconds()
	}

	if kind == models.FileKindUnsupported {
		outcome.Errors = append(outcome.Errors, fmt.Sprintf("unsupported file type for %q", file.Name))
		return outcome
	}

	existing, err := p.contracts.ListByTeam(ctx, teamID)
	if err != nil {
		outcome.Errors = append(outcome.Errors, "failed to load existing contracts: "+err.Error())
		return outcome
	}

	var drafts []models.DraftEntity
	var rowErrors []models.RowError
	var tableErrors []string

	if kind.IsVisual() {
		p.progress.Event(sessionID, file.Name, "vision_extraction", "")
		visionStart := time.Now()
		drafts, rowErrors, err = p.vision.Extract(ctx, file.Content, file.Name, guidance)
		timePhase("vision", visionStart)
		if err != nil {
			outcome.Errors = append(outcome.Errors, err.Error())
			return outcome
		}
	} else {
		drafts, rowErrors, tableErrors, err = p.processTabular(ctx, file, kind, guidance, existing, sessionID, &outcome)
		if err != nil {
			outcome.Errors = append(outcome.Errors, err.Error())
			return outcome
		}
	}

	p.progress.Event(sessionID, file.Name, "persisting", fmt.Sprintf("%d drafts", len(drafts)))
	persistStart := time.Now()
	result := p.creator.Create(ctx, teamID, file.Name, drafts, existing)
	timePhase("persist", persistStart)

	outcome.Success = true
	outcome.ContractsCreated = result.ContractsCreated
	outcome.ReceivablesCreated = result.ReceivablesCreated
	outcome.ExpensesCreated = result.ExpensesCreated
	outcome.Errors = append(outcome.Errors, tableErrors...)
	for _, re := range rowErrors {
		outcome.Errors = append(outcome.Errors, formatRowError(re))
	}
	outcome.Errors = append(outcome.Errors, result.Errors...)

	p.logger.Info("File processed",
		zap.String("file", file.Name),
		zap.String("kind", string(kind)),
		zap.Int("drafts", len(drafts)),
		zap.Int("errors", len(outcome.Errors)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return outcome
}

type classifiedTable struct {
	table           SegmentedTable
	classifications []models.TableClassification
}

// processTabular decodes, segments, classifies and transforms a spreadsheet
// or CSV. Classification runs concurrently under a bounded errgroup; tables
// holding contracts are transformed first so same-file receivables and
// expenses can link against them, then the remaining tables transform
// concurrently against the frozen index.
func (p *Processor) processTabular(
	ctx context.Context,
	file UploadFile,
	kind models.FileKind,
	guidance string,
	existing []*models.Contract,
	sessionID uuid.UUID,
	outcome *FileOutcome,
) ([]models.DraftEntity, []models.RowError, []string, error) {
	parseStart := time.Now()
	workbook, err := ParseWorkbook(file.Content, file.Name, kind)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to decode %q: %w", file.Name, err)
	}

	var tables []SegmentedTable
	for _, sheet := range workbook.Sheets {
		tables = append(tables, SegmentSheet(sheet)...)
	}
	outcome.PhaseTimings["parse"] = time.Since(parseStart).Milliseconds()
	p.progress.Event(sessionID, file.Name, "segmented", fmt.Sprintf("%d tables", len(tables)))

	classifyStart := time.Now()
	classified := make([]classifiedTable, len(tables))
	classifyErrs := make([]error, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.ClassifyConcurrency)
	for i := range tables {
		g.Go(func() error {
			cls, err := p.analyzer.Classify(gctx, tables[i], guidance)
			if err != nil {
				classifyErrs[i] = err
				return nil
			}
			classified[i] = classifiedTable{table: tables[i], classifications: cls}
			return nil
		})
	}
	// Goroutines only record errors, so Wait cannot fail here.
	_ = g.Wait()
	outcome.PhaseTimings["classify"] = time.Since(classifyStart).Milliseconds()

	var tableErrors []string
	for _, cerr := range classifyErrs {
		if cerr != nil {
			tableErrors = append(tableErrors, "classification failed: "+cerr.Error())
		}
	}
	p.progress.Event(sessionID, file.Name, "classified", fmt.Sprintf("%d tables", len(tables)-len(tableErrors)))

	transformStart := time.Now()
	index := NewContractIndex(p.cfg.FuzzyThreshold)
	for _, c := range existing {
		index.Add(ContractRef{ID: c.ID, ClientName: c.ClientName, ProjectName: c.ProjectName})
	}

	var drafts []models.DraftEntity
	var rowErrors []models.RowError

	// First pass: contract tables, sequential. Their drafts seed the index so
	// rows in sibling tables can reference contracts from this same file.
	var rest []classifiedTable
	for _, ct := range classified {
		if len(ct.classifications) == 0 {
			continue
		}
		if !hasKind(ct.classifications, models.EntityKindContract) {
			rest = append(rest, ct)
			continue
		}
		d, errs := p.transformer.Transform(ct.table, ct.classifications, index, file.Name)
		for _, draft := range d {
			if draft.Kind == models.EntityKindContract {
				index.Add(ContractRef{
					ClientName:  draft.Contract.ClientName,
					ProjectName: draft.Contract.ProjectName,
				})
			}
		}
		drafts = append(drafts, d...)
		rowErrors = append(rowErrors, errs...)
	}
	index.Freeze()

	// Second pass: everything else, concurrent. The index is frozen and the
	// transformer is pure, so tables share it safely.
	type transformResult struct {
		drafts []models.DraftEntity
		errs   []models.RowError
	}
	results := make([]transformResult, len(rest))
	var wg sync.WaitGroup
	for i := range rest {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, errs := p.transformer.Transform(rest[i].table, rest[i].classifications, index, file.Name)
			results[i] = transformResult{drafts: d, errs: errs}
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		drafts = append(drafts, r.drafts...)
		rowErrors = append(rowErrors, r.errs...)
	}
	outcome.PhaseTimings["transform"] = time.Since(transformStart).Milliseconds()
	p.progress.Event(sessionID, file.Name, "transformed", fmt.Sprintf("%d drafts", len(drafts)))

	return drafts, rowErrors, tableErrors, nil
}

func hasKind(classifications []models.TableClassification, kind models.EntityKind) bool {
	for _, c := range classifications {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

func composeGuidance(typeHint, guidance string) string {
	var parts []string
	if typeHint != "" {
		parts = append(parts, "The user indicated these documents contain: "+typeHint+".")
	}
	if guidance != "" {
		parts = append(parts, guidance)
	}
	return strings.Join(parts, " ")
}

func formatRowError(re models.RowError) string {
	if re.Row > 0 {
		return fmt.Sprintf("sheet %q row %d: %s", re.SheetName, re.Row, re.Message)
	}
	return fmt.Sprintf("%s: %s", re.SheetName, re.Message)
}

func firstError(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	return errs[0]
}
