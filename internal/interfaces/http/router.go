package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/application/sales"
	"github.com/jhoicas/demeter-inventario/internal/application/stockupdate"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Query       *inventory.QueryUseCase
	Engine      *inventory.MovementEngine
	Cycles      *inventory.CycleManager
	Operations  *inventory.OperationsUseCase
	StockUpdate *stockupdate.Orchestrator
	Sales       *sales.SaleCompletionUseCase
	JWTSecret   string
	JWTIssuer   string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	readers := RequireRole(entity.RoleAdmin, entity.RoleBodeguero, entity.RoleVendedor)
	writers := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)

	// Lotes
	batchHandler := NewBatchHandler(deps.Query, deps.Operations, deps.Cycles)
	batches := api.Group("/stock-batches")
	batches.Get("/", readers, batchHandler.List)
	batches.Post("/", writers, batchHandler.Create)
	batches.Post("/cycles", writers, batchHandler.StartCycle)
	batches.Get("/code/:code", readers, batchHandler.GetByCode)
	batches.Get("/:id", readers, batchHandler.GetByID)
	batches.Get("/:id/movements", readers, batchHandler.History)
	batches.Get("/:id/statement.pdf", readers, batchHandler.Statement)

	// Movimientos
	movementHandler := NewMovementHandler(deps.Query, deps.Engine)
	movements := api.Group("/stock-movements")
	movements.Get("/", readers, movementHandler.List)
	movements.Get("/summary", readers, movementHandler.Summary)
	movements.Get("/:id", readers, movementHandler.GetByID)
	movements.Post("/", writers, movementHandler.Apply)

	// Operaciones de campo
	opsHandler := NewOperationsHandler(deps.Operations)
	ops := api.Group("/stock/operations", writers)
	ops.Post("/muerte", opsHandler.Death)
	ops.Post("/plantado", opsHandler.Planting)
	ops.Post("/ajuste", opsHandler.Adjustment)
	ops.Post("/desplazamiento", opsHandler.Transfer)

	// Callbacks de otros módulos
	callbacks := NewCallbackHandler(deps.StockUpdate, deps.Sales)
	api.Post("/stock/photo-sessions/:id/process", RequireRole(entity.RoleAdmin, entity.RoleSystem), callbacks.ProcessPhotoSession)
	api.Post("/stock/sales/completed", RequireRole(entity.RoleAdmin, entity.RoleVendedor, entity.RoleSystem), callbacks.SaleCompleted)
}
