package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/service"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// RepairTicketsHandler manages repair work-order endpoints.
type RepairTicketsHandler struct {
	service *service.RepairTicketService
}

// NewRepairTicketsHandler constructs handler.
func NewRepairTicketsHandler(ticketService *service.RepairTicketService) *RepairTicketsHandler {
	return &RepairTicketsHandler{service: ticketService}
}

// Create POST /tickets/repair.
func (h *RepairTicketsHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateRepairTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.Create(c.UserContext(), service.RepairTicketCreateInput{
		EquipmentID:        req.EquipmentID,
		RepairType:         req.RepairType,
		Priority:           req.Priority,
		FailureDescription: req.FailureDescription,
		ScheduledDate:      req.ScheduledDate,
		Tasks:              req.Tasks,
		RequestedBy:        principal.User.ID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ToRepairTicketResponse(ticket)})
}

// List GET /tickets/repair.
func (h *RepairTicketsHandler) List(c *fiber.Ctx) error {
	tickets, err := h.service.List(c.UserContext(), parseTicketQuery(c))
	if err != nil {
		return err
	}
	resp := make([]dto.RepairTicketResponse, 0, len(tickets))
	for i := range tickets {
		resp = append(resp, dto.ToRepairTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get GET /tickets/repair/:id.
func (h *RepairTicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToRepairTicketResponse(ticket)})
}

// GetByNumber GET /tickets/repair/number/:number.
func (h *RepairTicketsHandler) GetByNumber(c *fiber.Ctx) error {
	ticket, err := h.service.GetByNumber(c.UserContext(), c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToRepairTicketResponse(ticket)})
}

// Approve POST /tickets/repair/:id/approve.
func (h *RepairTicketsHandler) Approve(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Approve(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToRepairTicketResponse(ticket)})
}

// Diagnose POST /tickets/repair/:id/diagnose.
func (h *RepairTicketsHandler) Diagnose(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DiagnoseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.Diagnose(c.UserContext(), c.Params("id"), service.DiagnoseInput{
		RootCause:   req.RootCause,
		Diagnosis:   req.Diagnosis,
		DiagnosedBy: principal.User.ID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToRepairTicketResponse(ticket)})
}

// Start POST /tickets/repair/:id/start.
func (h *RepairTicketsHandler) Start(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Start(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToRepairTicketResponse(ticket)})
}

// Hold POST /tickets/repair/:id/hold.
func (h *RepairTicketsHandler) Hold(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Hold(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToRepairTicketResponse(ticket)})
}

// Cancel POST /tickets/repair/:id/cancel.
func (h *RepairTicketsHandler) Cancel(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Cancel(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToRepairTicketResponse(ticket)})
}

// AddMaterial POST /tickets/repair/:id/materials.
func (h *RepairTicketsHandler) AddMaterial(c *fiber.Ctx) error {
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
	return c.JSON(fiber.Map{"data": dto.ToRepairTicketResponse(ticket)})
}

// AddExternalService POST /tickets/repair/:id/external-services.
func (h *RepairTicketsHandler) AddExternalService(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AddExternalServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.AddExternalService(c.UserContext(), c.Params("id"), service.ExternalServiceInput{
		ServiceName: req.ServiceName,
		Provider:    req.Provider,
		Cost:        req.Cost,
		ServiceDate: req.ServiceDate,
		RecordedBy:  principal.User.ID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToRepairTicketResponse(ticket)})
}

// UpdateTask PUT /tickets/repair/:id/tasks/:taskId.
func (h *RepairTicketsHandler) UpdateTask(c *fiber.Ctx) error {
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
	return c.JSON(fiber.Map{"data": dto.ToRepairTicketResponse(ticket)})
}

// Assign PUT /tickets/repair/:id/assign.
func (h *RepairTicketsHandler) Assign(c *fiber.Ctx) error {
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
	return c.JSON(fiber.Map{"data": dto.ToRepairTicketResponse(ticket)})
}

// Complete POST /tickets/repair/:id/complete.
func (h *RepairTicketsHandler) Complete(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CompleteRepairRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.Complete(c.UserContext(), c.Params("id"), service.RepairCompleteInput{
		Solution:                   req.Solution,
		LaborCost:                  req.LaborCost,
		OverheadCost:               req.OverheadCost,
		OperatingHoursAtCompletion: req.OperatingHoursAtCompletion,
		Notes:                      req.Notes,
		CompletedBy:                principal.User.ID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToRepairTicketResponse(ticket)})
}

// Delete DELETE /tickets/repair/:id.
func (h *RepairTicketsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
