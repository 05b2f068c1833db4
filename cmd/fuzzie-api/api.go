// Package main provides the Fuzzie API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/fuzzie/pkg/authz"
	"github.com/dukex/fuzzie/pkg/connectors"
	"github.com/dukex/fuzzie/pkg/eventbus"
	"github.com/dukex/fuzzie/pkg/identity"
	"github.com/dukex/fuzzie/pkg/persistence"
	"github.com/dukex/fuzzie/pkg/services"
	"github.com/dukex/fuzzie/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger           *slog.Logger
	persistence      persistence.Persistence
	eventBus         eventbus.EventBus
	connectors       *connectors.Registry
	connectorTimeout time.Duration
	verifier         *identity.Verifier
	tracer           trace.Tracer
	validate         *validator.Validate

	workflowService *services.Workflow
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	connectors *connectors.Registry,
	connectorTimeout time.Duration,
	verifier *identity.Verifier,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:           logger,
		persistence:      persistence,
		eventBus:         eventBus,
		connectors:       connectors,
		connectorTimeout: connectorTimeout,
		verifier:         verifier,
		tracer:           tracer,
		validate:         validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	deps := services.Dependencies{
		Persistence: a.persistence,
		Authorizer:  authz.NewEngine(a.logger),
		Logger:      a.logger,
		Publisher:   a.eventBus,
		Tracer:      a.tracer,
	}

	opts := []services.WorkflowOption{}
	if a.connectors != nil {
		opts = append(opts, services.WithConnectors(a.connectors, a.connectorTimeout))
	}

	a.workflowService = services.NewWorkflow(deps, opts...)

	handlers := web.NewAPIHandlers(
		services.NewTeam(deps),
		a.workflowService,
		services.NewUser(deps),
		a.verifier,
		a.validate,
		a.logger,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Fuzzie API")
	})

	handlers.RegisterRoutes(app)

	return app
}

// Start serves on port until ctx is cancelled, then drains in-flight requests and connector
// calls.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	errs := make(chan error, 1)

	go func() {
		errs <- app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.connectorTimeout)
	defer cancel()

	err := app.ShutdownWithContext(shutdownCtx)
	a.workflowService.Wait()

	return err
}
