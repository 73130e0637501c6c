package events

import (
	"context"
	"log/slog"
)

// AuditLogger returns a handler that records org changes as structured log
// lines.
func AuditLogger(logger *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		args := []any{
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
		}
		if data, ok := event.Payload().(map[string]interface{}); ok {
			for k, v := range data {
				args = append(args, k, v)
			}
		}
		logger.InfoContext(ctx, "org audit", args...)
		return nil
	}
}

// SubscribeAuditLog wires AuditLogger to every org change event.
func SubscribeAuditLog(bus *EventBus, logger *slog.Logger) {
	for _, t := range []string{EventTypeManagerChanged, EventTypeRoleChanged, EventTypeStatusChanged} {
		bus.Subscribe(t, AuditLogger(logger))
	}
}
