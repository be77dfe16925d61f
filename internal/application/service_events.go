package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const timeLayout = time.RFC3339

func (s *Service) publishEvent(ctx context.Context, eventType, partitionKey string, data any) {
	if s.publisher == nil {
		return
	}
	occurredAt := s.nowFn()
	envelope := map[string]any{
		"event_id":           uuid.NewString(),
		"event_type":         eventType,
		"occurred_at":        occurredAt.Format(timeLayout),
		"source_service":     s.cfg.ServiceName,
		"schema_version":     "1.0",
		"partition_key_path": "data.batch_id",
		"partition_key":      partitionKey,
		"data":               data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, payload, partitionKey); err != nil {
		s.logger("publish_event").WarnContext(ctx, "batch event publish failed",
			"outcome", "failure",
			"event_type", eventType,
			"partition_key", partitionKey,
			"error", err,
		)
	}
}
