package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/service"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// MaterialsHandler manages the spare-part catalog and stock ledger endpoints.
type MaterialsHandler struct {
	service *service.InventoryService
}

// NewMaterialsHandler constructs handler.
func NewMaterialsHandler(inventoryService *service.InventoryService) *MaterialsHandler {
	return &MaterialsHandler{service: inventoryService}
}

// Create POST /materials.
func (h *MaterialsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateMaterialRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	material, err := h.service.CreateMaterial(c.UserContext(), service.MaterialCreateInput{
		Code:          req.Code,
		Name:          req.Name,
		Category:      req.Category,
		Unit:          req.Unit,
		InitialStock:  req.InitialStock,
		MinStockLevel: req.MinStockLevel,
		MaxStockLevel: req.MaxStockLevel,
		UnitPrice:     req.UnitPrice,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ToMaterialResponse(material)})
}

// List GET /materials.
func (h *MaterialsHandler) List(c *fiber.Ctx) error {
	filter := repository.MaterialFilter{
		BelowMinStock: c.QueryBool("below_min_stock"),
	}
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		filter.Category = &category
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	filter.Limit, filter.Offset = parsePagination(c)

	items, err := h.service.ListMaterials(c.UserContext(), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.MaterialResponse, 0, len(items))
	for i := range items {
		resp = append(resp, dto.ToMaterialResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get GET /materials/:id.
func (h *MaterialsHandler) Get(c *fiber.Ctx) error {
	material, err := h.service.GetMaterial(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToMaterialResponse(material)})
}

// Update PATCH /materials/:id.
func (h *MaterialsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateMaterialRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	material, err := h.service.UpdateMaterial(c.UserContext(), c.Params("id"), service.MaterialUpdateInput{
		Name:          req.Name,
		Category:      req.Category,
		MinStockLevel: req.MinStockLevel,
		MaxStockLevel: req.MaxStockLevel,
		UnitPrice:     req.UnitPrice,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToMaterialResponse(material)})
}

// Deactivate DELETE /materials/:id.
func (h *MaterialsHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.service.DeactivateMaterial(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Consume POST /materials/:id/consume.
func (h *MaterialsHandler) Consume(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ConsumeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	transaction, material, err := h.service.Consume(c.UserContext(), service.ConsumeInput{
		MaterialID:  c.Params("id"),
		Quantity:    req.Quantity,
		Reason:      req.Reason,
		PerformedBy: principal.User.ID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"transaction": dto.ToTransactionResponse(transaction),
		"material":    dto.ToMaterialResponse(material),
	}})
}

// Restock POST /materials/:id/restock.
func (h *MaterialsHandler) Restock(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RestockRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	transaction, material, err := h.service.Restock(c.UserContext(), service.RestockInput{
		MaterialID:  c.Params("id"),
		Quantity:    req.Quantity,
		Reason:      req.Reason,
		PerformedBy: principal.User.ID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"transaction": dto.ToTransactionResponse(transaction),
		"material":    dto.ToMaterialResponse(material),
	}})
}

// ListTransactions GET /inventory/transactions.
func (h *MaterialsHandler) ListTransactions(c *fiber.Ctx) error {
	filter := repository.TransactionFilter{}
	if materialID := c.Query("material_id"); materialID != "" {
		filter.MaterialID = &materialID
	}
	if ticketID := c.Query("ticket_id"); ticketID != "" {
		filter.TicketID = &ticketID
	}
	for _, part := range splitCSV(c.Query("type")) {
		filter.Types = append(filter.Types, domain.TransactionType(part))
	}
	filter.From = parseTime(c.Query("from"))
	filter.To = parseTime(c.Query("to"))
	filter.Limit, filter.Offset = parsePagination(c)

	items, err := h.service.ListTransactions(c.UserContext(), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.TransactionResponse, 0, len(items))
	for i := range items {
		resp = append(resp, dto.ToTransactionResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetTransaction GET /inventory/transactions/:id.
func (h *MaterialsHandler) GetTransaction(c *fiber.Ctx) error {
	transaction, err := h.service.GetTransaction(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToTransactionResponse(transaction)})
}

// ReverseTransaction POST /inventory/transactions/:id/reverse.
func (h *MaterialsHandler) ReverseTransaction(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReverseTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	reversal, err := h.service.ReverseTransaction(c.UserContext(), c.Params("id"), req.Reason, principal.User.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ToTransactionResponse(reversal)})
}
