package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/service"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// MaintenanceTicketsHandler manages maintenance work-order endpoints.
type MaintenanceTicketsHandler struct {
	service *service.MaintenanceTicketService
}

// NewMaintenanceTicketsHandler constructs handler.
func NewMaintenanceTicketsHandler(ticketService *service.MaintenanceTicketService) *MaintenanceTicketsHandler {
	return &MaintenanceTicketsHandler{service: ticketService}
}

// Create POST /tickets/maintenance.
func (h *MaintenanceTicketsHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateMaintenanceTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.Create(c.UserContext(), service.MaintenanceTicketCreateInput{
		EquipmentID:     req.EquipmentID,
		MaintenanceType: req.MaintenanceType,
		Priority:        req.Priority,
		Description:     req.Description,
		ScheduledDate:   req.ScheduledDate,
		Tasks:           req.Tasks,
		RequestedBy:     principal.User.ID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ToMaintenanceTicketResponse(ticket)})
}

// List GET /tickets/maintenance.
func (h *MaintenanceTicketsHandler) List(c *fiber.Ctx) error {
	tickets, err := h.service.List(c.UserContext(), parseTicketQuery(c))
	if err != nil {
		return err
	}
	resp := make([]dto.MaintenanceTicketResponse, 0, len(tickets))
	for i := range tickets {
		resp = append(resp, dto.ToMaintenanceTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get GET /tickets/maintenance/:id.
func (h *MaintenanceTicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToMaintenanceTicketResponse(ticket)})
}

// GetByNumber GET /tickets/maintenance/number/:number.
func (h *MaintenanceTicketsHandler) GetByNumber(c *fiber.Ctx) error {
	ticket, err := h.service.GetByNumber(c.UserContext(), c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToMaintenanceTicketResponse(ticket)})
}

// Approve POST /tickets/maintenance/:id/approve.
func (h *MaintenanceTicketsHandler) Approve(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Approve(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToMaintenanceTicketResponse(ticket)})
}

// Start POST /tickets/maintenance/:id/start.
func (h *MaintenanceTicketsHandler) Start(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Start(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToMaintenanceTicketResponse(ticket)})
}

// Hold POST /tickets/maintenance/:id/hold.
func (h *MaintenanceTicketsHandler) Hold(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Hold(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToMaintenanceTicketResponse(ticket)})
}

// Cancel POST /tickets/maintenance/:id/cancel.
func (h *MaintenanceTicketsHandler) Cancel(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Cancel(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToMaintenanceTicketResponse(ticket)})
}

// AddMaterial POST /tickets/maintenance/:id/materials.
func (h *MaintenanceTicketsHandler) AddMaterial(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AddMaterialRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.AddMaterial(c.UserContext(), c.Params("id"), service.TicketMaterialInput{
		MaterialID:   req.MaterialID,
		Quantity:     req.Quantity,
		WarrantyItem: req.WarrantyItem,
		RecordedBy:   principal.User.ID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToMaintenanceTicketResponse(ticket)})
}

// UpdateTask PUT /tickets/maintenance/:id/tasks/:taskId.
func (h *MaintenanceTicketsHandler) UpdateTask(c *fiber.Ctx) error {
	var req dto.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.UpdateTask(c.UserContext(), c.Params("id"), c.Params("taskId"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToMaintenanceTicketResponse(ticket)})
}

// Assign PUT /tickets/maintenance/:id/assign.
func (h *MaintenanceTicketsHandler) Assign(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.Assign(c.UserContext(), c.Params("id"), req.AssigneeID, principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToMaintenanceTicketResponse(ticket)})
}

// Complete POST /tickets/maintenance/:id/complete.
func (h *MaintenanceTicketsHandler) Complete(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CompleteMaintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.Complete(c.UserContext(), c.Params("id"), service.MaintenanceCompleteInput{
		LaborCost:                  req.LaborCost,
		OverheadCost:               req.OverheadCost,
		OperatingHoursAtCompletion: req.OperatingHoursAtCompletion,
		Notes:                      req.Notes,
		CompletedBy:                principal.User.ID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToMaintenanceTicketResponse(ticket)})
}

// Delete DELETE /tickets/maintenance/:id.
func (h *MaintenanceTicketsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if equipmentID := c.Query("equipment_id"); equipmentID != "" {
		filter.EquipmentID = &equipmentID
	}
	for _, part := range splitCSV(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(part))
	}
	for _, part := range splitCSV(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(part))
	}
	if assignedTo := c.Query("assigned_to"); assignedTo != "" {
		filter.AssignedTo = &assignedTo
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	filter.Limit, filter.Offset = parsePagination(c)
	return filter
}

func parsePagination(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	return pageSize, (page - 1) * pageSize
}

func splitCSV(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
