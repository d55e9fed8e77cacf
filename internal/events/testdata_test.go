package events

import (
	"encoding/json"
	"time"

	"storefront/internal/config"
	"storefront/internal/model"

	"github.com/google/uuid"
)

func sampleRecords(t interface{ Helper() }, ids ...int64) []model.OutboxRecord {
	t.Helper()
	records := make([]model.OutboxRecord, 0, len(ids))
	for _, id := range ids {
		orderID := uuid.New()
		payload, _ := json.Marshal(map[string]any{"type": model.EventOrderPlaced, "orderId": orderID})
		records = append(records, model.OutboxRecord{
			ID:        id,
			EventID:   uuid.New(),
			Topic:     "orders",
			Key:       orderID.String(),
			Payload:   payload,
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		})
	}
	return records
}

func configWithNothing() config.EventsConfig {
	return config.EventsConfig{PollInterval: time.Second}
}

func s3Disabled() config.S3Config {
	return config.S3Config{}
}
