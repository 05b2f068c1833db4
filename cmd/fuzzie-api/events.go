package main

import (
	"context"
	"log/slog"

	"github.com/dukex/fuzzie/pkg/eventbus"
	"github.com/dukex/fuzzie/pkg/events"
)

// subscribeEventLog logs every domain event delivered on the bus.
func subscribeEventLog(ctx context.Context, logger *slog.Logger, bus eventbus.EventSubscriber) error {
	for _, eventType := range events.Types() {
		err := bus.Handle(eventType, eventLogHandler(logger))
		if err != nil {
			return err
		}
	}

	return bus.Subscribe(ctx)
}

func eventLogHandler(logger *slog.Logger) eventbus.EventHandler {
	return func(ctx context.Context, event any) error {
		switch e := event.(type) {
		case *events.TeamChanged:
			logger.InfoContext(ctx, "team event", "event_type", e.Type, "actor_id", e.ActorID, "team_id", e.TeamID)
		case *events.MemberChanged:
			logger.InfoContext(ctx, "team member event", "event_type", e.Type, "actor_id", e.ActorID,
				"team_id", e.TeamID, "user_id", e.UserID, "role", e.Role)
		case *events.WorkflowChanged:
			return logWorkflowEvent(logger)(ctx, e)
		default:
			logger.WarnContext(ctx, "unknown event", "event", event)
		}

		return nil
	}
}

func logWorkflowEvent(logger *slog.Logger) eventbus.EventHandler {
	return eventbus.Typed(func(ctx context.Context, e *events.WorkflowChanged) error {
		args := []any{"event_type", e.Type, "actor_id", e.ActorID, "workflow_id", e.WorkflowID, "visibility", e.Visibility}
		if e.TeamID != nil {
			args = append(args, "team_id", *e.TeamID)
		}

		if e.SourceID != "" {
			args = append(args, "source_id", e.SourceID)
		}

		logger.InfoContext(ctx, "workflow event", args...)

		return nil
	})
}
