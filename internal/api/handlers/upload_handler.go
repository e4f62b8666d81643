package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"fluxodocs/internal/dto"
	"fluxodocs/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBatchFiles = 20

type UploadHandler struct {
	processor *service.Processor
	progress  *service.ProgressService
	logger    *zap.Logger
}

func NewUploadHandler(processor *service.Processor, progress *service.ProgressService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		processor: processor,
		progress:  progress,
		logger:    logger,
	}
}

// UploadDocuments godoc
// @Summary Upload financial documents for extraction
// @Description Accepts spreadsheets, CSVs, PDFs and images; extracts contracts, receivables and expenses
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Document files (repeatable)"
// @Param type_hint formData string false "What the documents contain, e.g. contracts, expenses"
// @Param guidance formData string false "Free-form extraction guidance passed to the AI"
// @Security Bearer
// @Success 200 {object} dto.BatchResultResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/documents/upload [post]
func (h *UploadHandler) UploadDocuments(c *fiber.Ctx) error {
	teamID, err := getTeamID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Unauthorized"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Multipart form is required"})
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		// Single-file clients send "file".
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "At least one file is required"})
	}
	if len(headers) > maxBatchFiles {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: fmt.Sprintf("Too many files: maximum %d per batch", maxBatchFiles),
		})
	}

	files, err := readFiles(headers)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	typeHint := c.FormValue("type_hint")
	guidance := c.FormValue("guidance")

	sessionID := h.progress.Start(len(files))
	outcome := h.processor.ProcessBatch(c.Context(), teamID, files, typeHint, guidance, sessionID)

	return c.Status(fiber.StatusOK).JSON(toBatchResponse(outcome))
}

// GetProgress godoc
// @Summary Poll batch processing progress
// @Tags documents
// @Produce json
// @Param id path string true "Session ID"
// @Security Bearer
// @Success 200 {object} service.BatchProgress
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/documents/progress/{id} [get]
func (h *UploadHandler) GetProgress(c *fiber.Ctx) error {
	if _, err := getTeamID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Unauthorized"})
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid session ID"})
	}

	progress, ok := h.progress.Get(sessionID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "Session not found or expired"})
	}
	return c.JSON(progress)
}

func readFiles(headers []*multipart.FileHeader) ([]service.UploadFile, error) {
	files := make([]service.UploadFile, 0, len(headers))
	for _, header := range headers {
		src, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %q", header.Filename)
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %q", header.Filename)
		}
		files = append(files, service.UploadFile{Name: header.Filename, Content: content})
	}
	return files, nil
}

func toBatchResponse(outcome *service.BatchOutcome) dto.BatchResultResponse {
	resp := dto.BatchResultResponse{
		SessionID:          outcome.SessionID.String(),
		TotalFiles:         outcome.TotalFiles,
		SuccessfulFiles:    outcome.SuccessfulFiles,
		FailedFiles:        outcome.FailedFiles,
		ContractsCreated:   outcome.ContractsCreated,
		ReceivablesCreated: outcome.ReceivablesCreated,
		ExpensesCreated:    outcome.ExpensesCreated,
	}
	for _, f := range outcome.Files {
		errs := f.Errors
		if errs == nil {
			errs = []string{}
		}
		resp.Files = append(resp.Files, dto.FileResultResponse{
			FileName:           f.FileName,
			Success:            f.Success,
			Kind:               f.Kind,
			ContractsCreated:   f.ContractsCreated,
			ReceivablesCreated: f.ReceivablesCreated,
			ExpensesCreated:    f.ExpensesCreated,
			Errors:             errs,
			PhaseTimings:       f.PhaseTimings,
		})
	}
	return resp
}

func getTeamID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("teamID").(string)
	if !ok || raw == "" {
		return uuid.Nil, errors.New("team ID not found in context")
	}
	return uuid.Parse(raw)
}
