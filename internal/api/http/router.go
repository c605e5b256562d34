package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health             *handlers.HealthHandler
	Auth               *handlers.AuthHandler
	Equipment          *handlers.EquipmentHandler
	Materials          *handlers.MaterialsHandler
	MaintenanceTickets *handlers.MaintenanceTicketsHandler
	RepairTickets      *handlers.RepairTicketsHandler
	AuthMiddleware     *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Write access to the registry and catalog
// is restricted to supervisors and admins; technicians can move work orders
// and stock.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireRole(), cfg.Auth.Me)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireRole(), cfg.Auth.ChangePassword)

	api := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole())

	manage := auth.RequireRole(domain.RoleSupervisor, domain.RoleAdmin)
	operate := auth.RequireRole(domain.RoleTechnician, domain.RoleSupervisor, domain.RoleAdmin)

	equipment := api.Group("/equipment")
	equipment.Get("/", cfg.Equipment.List)
	equipment.Get("/due-maintenance", cfg.Equipment.ListDue)
	equipment.Get("/:id", cfg.Equipment.Get)
	equipment.Post("/", manage, cfg.Equipment.Create)
	equipment.Patch("/:id", manage, cfg.Equipment.Update)
	equipment.Delete("/:id", manage, cfg.Equipment.Deactivate)
	equipment.Put("/:id/operating-hours", operate, cfg.Equipment.UpdateOperatingHours)

	materials := api.Group("/materials")
	materials.Get("/", cfg.Materials.List)
	materials.Get("/:id", cfg.Materials.Get)
	materials.Post("/", manage, cfg.Materials.Create)
	materials.Patch("/:id", manage, cfg.Materials.Update)
	materials.Delete("/:id", manage, cfg.Materials.Deactivate)
	materials.Post("/:id/consume", operate, cfg.Materials.Consume)
	materials.Post("/:id/restock", operate, cfg.Materials.Restock)

	transactions := api.Group("/inventory/transactions")
	transactions.Get("/", cfg.Materials.ListTransactions)
	transactions.Get("/:id", cfg.Materials.GetTransaction)
	transactions.Post("/:id/reverse", manage, cfg.Materials.ReverseTransaction)

	maintenance := api.Group("/tickets/maintenance")
	maintenance.Post("/", cfg.MaintenanceTickets.Create)
	maintenance.Get("/", cfg.MaintenanceTickets.List)
	maintenance.Get("/number/:number", cfg.MaintenanceTickets.GetByNumber)
	maintenance.Get("/:id", cfg.MaintenanceTickets.Get)
	maintenance.Post("/:id/approve", manage, cfg.MaintenanceTickets.Approve)
	maintenance.Post("/:id/start", operate, cfg.MaintenanceTickets.Start)
	maintenance.Post("/:id/hold", operate, cfg.MaintenanceTickets.Hold)
	maintenance.Post("/:id/cancel", operate, cfg.MaintenanceTickets.Cancel)
	maintenance.Post("/:id/complete", operate, cfg.MaintenanceTickets.Complete)
	maintenance.Post("/:id/materials", operate, cfg.MaintenanceTickets.AddMaterial)
	maintenance.Put("/:id/tasks/:taskId", operate, cfg.MaintenanceTickets.UpdateTask)
	maintenance.Put("/:id/assign", manage, cfg.MaintenanceTickets.Assign)
	maintenance.Delete("/:id", manage, cfg.MaintenanceTickets.Delete)

	repair := api.Group("/tickets/repair")
	repair.Post("/", cfg.RepairTickets.Create)
	repair.Get("/", cfg.RepairTickets.List)
	repair.Get("/number/:number", cfg.RepairTickets.GetByNumber)
	repair.Get("/:id", cfg.RepairTickets.Get)
	repair.Post("/:id/approve", manage, cfg.RepairTickets.Approve)
	repair.Post("/:id/diagnose", operate, cfg.RepairTickets.Diagnose)
	repair.Post("/:id/start", operate, cfg.RepairTickets.Start)
	repair.Post("/:id/hold", operate, cfg.RepairTickets.Hold)
	repair.Post("/:id/cancel", operate, cfg.RepairTickets.Cancel)
	repair.Post("/:id/complete", operate, cfg.RepairTickets.Complete)
	repair.Post("/:id/materials", operate, cfg.RepairTickets.AddMaterial)
	repair.Post("/:id/external-services", operate, cfg.RepairTickets.AddExternalService)
	repair.Put("/:id/tasks/:taskId", operate, cfg.RepairTickets.UpdateTask)
	repair.Put("/:id/assign", manage, cfg.RepairTickets.Assign)
	repair.Delete("/:id", manage, cfg.RepairTickets.Delete)
}
