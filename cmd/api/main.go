package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/application/sales"
	"github.com/jhoicas/demeter-inventario/internal/application/stockupdate"
	infrapdf "github.com/jhoicas/demeter-inventario/internal/infrastructure/pdf"
	"github.com/jhoicas/demeter-inventario/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/demeter-inventario/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/demeter-inventario/internal/interfaces/http"
	"github.com/jhoicas/demeter-inventario/pkg/config"
	"github.com/jhoicas/demeter-inventario/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic("configuración inválida: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Eventos del libro: Redis si hay dirección, si no se descartan.
	var publisher inventory.EventPublisher = inventory.NopPublisher{}
	if cfg.Redis.Enabled() {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer client.Close()
		publisher = infraredis.NewEventPublisher(client, cfg.Redis.Channel)
		log.Info().Str("channel", cfg.Redis.Channel).Msg("publicación de eventos activa")
	}

	txRunner := postgres.NewTxRunner(pool)
	repos := postgres.NewRepos(pool)

	engine := inventory.NewMovementEngine(txRunner, publisher, log)
	cycles := inventory.NewCycleManager(txRunner, engine, log)
	ops := inventory.NewOperationsUseCase(txRunner, engine, log)
	query := inventory.NewQueryUseCase(repos.Batches, repos.Movements, repos.Links, infrapdf.NewStatementGenerator())
	orchestrator := stockupdate.NewOrchestrator(
		postgres.NewPhotoSessionRepository(pool),
		postgres.NewLocationConfigRepository(pool),
		txRunner, cycles, engine, log,
	)
	saleCompletion := sales.NewSaleCompletionUseCase(txRunner, engine, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Demeter Stock API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Query:       query,
		Engine:      engine,
		Cycles:      cycles,
		Operations:  ops,
		StockUpdate: orchestrator,
		Sales:       saleCompletion,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
