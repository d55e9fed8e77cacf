package events

import (
	"context"

	"storefront/internal/config"

	"github.com/rs/zerolog"
)

// NewPublisherFromConfig picks the event sinks from configuration. Kafka is
// the primary sink when brokers are set. The archive (S3, then the local
// directory) is the fallback, or the only sink without Kafka. With nothing
// configured events are only logged.
func NewPublisherFromConfig(ctx context.Context, events config.EventsConfig, s3cfg config.S3Config, logger zerolog.Logger) Publisher {
	var primary Publisher
	if len(events.KafkaBrokers) > 0 {
		primary = NewKafkaPublisher(events.KafkaBrokers, events.KafkaTopic, logger)
	}

	var archive Publisher
	if events.ArchiveDir != "" {
		archive = NewFileArchiver(events.ArchiveDir, logger)
	}
	if s3cfg.Enabled {
		s3Archiver, err := NewS3Archiver(ctx, s3cfg.Bucket, s3cfg.Region, s3cfg.Prefix, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("S3 archiver unavailable, using local archive only")
		} else if archive != nil {
			archive = NewFallbackPublisher(s3Archiver, archive, logger)
		} else {
			archive = s3Archiver
		}
	}

	switch {
	case primary != nil && archive != nil:
		return NewFallbackPublisher(primary, archive, logger)
	case primary != nil:
		return primary
	case archive != nil:
		return archive
	default:
		return NewLogPublisher(logger)
	}
}
