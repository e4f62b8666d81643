package handlers

import (
	"strconv"
	"time"

	"fluxodocs/internal/dto"
	"fluxodocs/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ContractHandler struct {
	contracts   *repository.ContractRepository
	receivables *repository.ReceivableRepository
	logger      *zap.Logger
}

func NewContractHandler(contracts *repository.ContractRepository, receivables *repository.ReceivableRepository, logger *zap.Logger) *ContractHandler {
	return &ContractHandler{
		contracts:   contracts,
		receivables: receivables,
		logger:      logger,
	}
}

// ListContracts godoc
// @Summary List the team's contracts
// @Tags contracts
// @Produce json
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Page offset"
// @Security Bearer
// @Success 200 {object} dto.ContractListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/contracts [get]
func (h *ContractHandler) ListContracts(c *fiber.Ctx) error {
	teamID, err := getTeamID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Unauthorized"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	contracts, err := h.contracts.ListByTeamPaged(c.Context(), teamID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list contracts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to list contracts"})
	}

	resp := dto.ContractListResponse{
		Contracts: make([]dto.ContractResponse, 0, len(contracts)),
		Limit:     limit,
		Offset:    offset,
	}
	for _, contract := range contracts {
		resp.Contracts = append(resp.Contracts, dto.ContractResponse{
			ID:          contract.ID.String(),
			ClientName:  contract.ClientName,
			ProjectName: contract.ProjectName,
			Description: contract.Description,
			TotalValue:  contract.TotalValue,
			SignedDate:  contract.SignedDate.Format("2006-01-02"),
			Status:      string(contract.Status),
			CreatedAt:   contract.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(resp)
}

// ListReceivables godoc
// @Summary List receivables linked to one contract
// @Tags contracts
// @Produce json
// @Param id path string true "Contract ID"
// @Security Bearer
// @Success 200 {array} dto.ReceivableResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/contracts/{id}/receivables [get]
func (h *ContractHandler) ListReceivables(c *fiber.Ctx) error {
	teamID, err := getTeamID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Unauthorized"})
	}

	contractID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid contract ID"})
	}

	receivables, err := h.receivables.ListByContract(c.Context(), teamID, contractID)
	if err != nil {
		h.logger.Error("Failed to list receivables", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to list receivables"})
	}

	resp := make([]dto.ReceivableResponse, 0, len(receivables))
	for _, rec := range receivables {
		item := dto.ReceivableResponse{
			ID:           rec.ID.String(),
			ClientName:   rec.ClientName,
			Description:  rec.Description,
			Amount:       rec.Amount,
			ExpectedDate: rec.ExpectedDate.Format("2006-01-02"),
			Status:       string(rec.Status),
		}
		if rec.ContractID != nil {
			item.ContractID = rec.ContractID.String()
		}
		resp = append(resp, item)
	}
	return c.JSON(resp)
}
