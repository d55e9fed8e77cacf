package events

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"storefront/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// archiveName is the relative object name for a batch, partitioned by day.
func archiveName(records []model.OutboxRecord, now time.Time) string {
	first, last := records[0].ID, records[len(records)-1].ID
	return fmt.Sprintf("%s/outbox-%012d-%012d.jsonl.gz", now.UTC().Format("2006/01/02"), first, last)
}

// encodeBatch writes records as gzipped JSON lines.
func encodeBatch(records []model.OutboxRecord) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)

	encoder := json.NewEncoder(gzipWriter)
	for _, rec := range records {
		if err := encoder.Encode(rec); err != nil {
			return nil, fmt.Errorf("failed to encode outbox record %d: %w", rec.ID, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadArchive decodes a gzipped JSON-lines archive written by an archiver.
func ReadArchive(r io.Reader) ([]model.OutboxRecord, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	// Set larger buffer for large event payloads
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var records []model.OutboxRecord
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec model.OutboxRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode archived record: %w", err)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading archive: %w", err)
	}
	return records, nil
}

// fileArchiver writes each batch as a gzipped JSON-lines file under dir.
type fileArchiver struct {
	dir    string
	now    func() time.Time
	logger zerolog.Logger
}

// NewFileArchiver creates a publisher that archives events to the local file system.
func NewFileArchiver(dir string, logger zerolog.Logger) Publisher {
	return &fileArchiver{
		dir:    dir,
		now:    time.Now,
		logger: logger.With().Str("component", "file-archiver").Logger(),
	}
}

func (a *fileArchiver) Publish(_ context.Context, records []model.OutboxRecord) error {
	if len(records) == 0 {
		return nil
	}

	data, err := encodeBatch(records)
	if err != nil {
		return err
	}

	path := filepath.Join(a.dir, filepath.FromSlash(archiveName(records, a.now())))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		a.logger.Error().Err(err).Str("file", path).Msg("failed to create archive directory")
		return fmt.Errorf("failed to create archive directory for %s: %w", path, err)
	}

	// Readers never see a partially written archive.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		a.logger.Error().Err(err).Str("file", tmp).Msg("failed to write archive")
		return fmt.Errorf("failed to write archive %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalise archive %s: %w", path, err)
	}

	a.logger.Info().
		Str("file", path).
		Int("records", len(records)).
		Msg("events archived to local file system")
	return nil
}

func (a *fileArchiver) Close() error { return nil }

// objectPutter is the part of *s3.Client the archiver uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Archiver writes each batch as a gzipped JSON-lines object in S3.
type s3Archiver struct {
	client objectPutter
	bucket string
	prefix string
	now    func() time.Time
	logger zerolog.Logger
}

// NewS3Archiver creates a publisher that archives events to AWS S3.
func NewS3Archiver(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Publisher, error) {
	logger = logger.With().Str("component", "s3-archiver").Logger()

	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("prefix", prefix).
		Msg("S3 archiver initialised")

	return newS3Archiver(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

func newS3Archiver(client objectPutter, bucket, prefix string, logger zerolog.Logger) *s3Archiver {
	return &s3Archiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
		logger: logger,
	}
}

func (a *s3Archiver) Publish(ctx context.Context, records []model.OutboxRecord) error {
	if len(records) == 0 {
		return nil
	}

	data, err := encodeBatch(records)
	if err != nil {
		return err
	}

	key := a.prefix + archiveName(records, a.now())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(a.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(data),
		ContentType:     aws.String("application/x-ndjson"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("bucket", a.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", a.bucket, key, err)
	}

	a.logger.Info().
		Str("bucket", a.bucket).
		Str("key", key).
		Int("records", len(records)).
		Msg("events archived to S3")
	return nil
}

func (a *s3Archiver) Close() error { return nil }
