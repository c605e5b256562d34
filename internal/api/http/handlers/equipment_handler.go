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

// EquipmentHandler manages the equipment registry endpoints.
type EquipmentHandler struct {
	service *service.EquipmentService
}

// NewEquipmentHandler constructs handler.
func NewEquipmentHandler(equipmentService *service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{service: equipmentService}
}

// Create POST /equipment.
func (h *EquipmentHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateEquipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	equipment, err := h.service.Create(c.UserContext(), service.EquipmentCreateInput{
		Code:           req.Code,
		Name:           req.Name,
		Type:           req.Type,
		OperatingHours: req.OperatingHours,
		Location:       req.Location,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ToEquipmentResponse(equipment)})
}

// List GET /equipment.
func (h *EquipmentHandler) List(c *fiber.Ctx) error {
	filter := repository.EquipmentFilter{}
	for _, part := range splitCSV(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.EquipmentStatus(part))
	}
	for _, part := range splitCSV(c.Query("type")) {
		filter.Types = append(filter.Types, domain.EquipmentType(part))
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	filter.Limit, filter.Offset = parsePagination(c)

	items, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.EquipmentResponse, 0, len(items))
	for i := range items {
		resp = append(resp, dto.ToEquipmentResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get GET /equipment/:id.
func (h *EquipmentHandler) Get(c *fiber.Ctx) error {
	equipment, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToEquipmentResponse(equipment)})
}

// Update PATCH /equipment/:id.
func (h *EquipmentHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateEquipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	equipment, err := h.service.Update(c.UserContext(), c.Params("id"), service.EquipmentUpdateInput{
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToEquipmentResponse(equipment)})
}

// UpdateOperatingHours PUT /equipment/:id/operating-hours.
func (h *EquipmentHandler) UpdateOperatingHours(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.OperatingHoursRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	equipment, err := h.service.UpdateOperatingHours(c.UserContext(), c.Params("id"), req.OperatingHours, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToEquipmentResponse(equipment)})
}

// ListDue GET /equipment/due-maintenance.
func (h *EquipmentHandler) ListDue(c *fiber.Ctx) error {
	rows, err := h.service.ListDueForMaintenance(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.DueEquipmentResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, dto.ToDueEquipmentResponse(row))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Deactivate DELETE /equipment/:id.
func (h *EquipmentHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.service.Deactivate(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
