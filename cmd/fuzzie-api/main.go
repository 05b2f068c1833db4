package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/fuzzie/pkg/cmd"
	"github.com/dukex/fuzzie/pkg/identity"
	"github.com/dukex/fuzzie/pkg/log"
	"github.com/dukex/fuzzie/pkg/otelhelper"
	"github.com/dukex/fuzzie/pkg/services"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = 9092

func main() {
	command := &cli.Command{
		Name:                  "fuzzie-api",
		Usage:                 "Manage teams and their shared workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file://<dir> or postgres://...)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka broker addresses",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:     "jwt-secret",
				Usage:    "Shared secret verifying HS256 bearer tokens",
				Required: true,
				Sources:  cli.EnvVars("JWT_SECRET"),
			},
			&cli.StringFlag{
				Name:    "jwt-issuer",
				Usage:   "Expected token issuer; empty accepts any",
				Sources: cli.EnvVars("JWT_ISSUER"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_TRACING_ENABLED"),
			},
			&cli.DurationFlag{
				Name:    "connector-timeout",
				Usage:   "Timeout of one connector action call",
				Value:   services.DefaultConnectorTimeout,
				Sources: cli.EnvVars("CONNECTOR_TIMEOUT"),
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := command.Run(ctx, os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("api")
	logger.InfoContext(ctx, "Initializing Fuzzie API")

	tracer, shutdownTracer, err := newTracer(ctx, command.Bool("tracing"))
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}

	defer func() {
		if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
		}
	}()

	persistence, err := cmd.NewPersistence(ctx, log.WithModule("persistence"), command.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	defer func() {
		if err := persistence.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.StringSlice("kafka-brokers"), log.WithModule("eventbus"))
	if err != nil {
		return fmt.Errorf("failed to initialize event bus: %w", err)
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	err = subscribeEventLog(ctx, log.WithModule("events"), eventBus)
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	connectorTimeout := command.Duration("connector-timeout")

	var verifierOpts []identity.Option
	if issuer := command.String("jwt-issuer"); issuer != "" {
		verifierOpts = append(verifierOpts, identity.WithIssuer(issuer))
	}

	api := NewAPI(
		logger,
		persistence,
		eventBus,
		cmd.NewConnectors(log.WithModule("connectors"), connectorTimeout),
		connectorTimeout,
		identity.NewVerifier([]byte(command.String("jwt-secret")), verifierOpts...),
		tracer,
	)

	port := command.Int("port")
	logger.InfoContext(ctx, "Listening", "port", port)

	return api.Start(ctx, port)
}

func newTracer(ctx context.Context, enabled bool) (trace.Tracer, func(context.Context) error, error) {
	if !enabled {
		return otelhelper.NoopTracer(), func(context.Context) error { return nil }, nil
	}

	return otelhelper.NewTracer(ctx, "fuzzie-api")
}
