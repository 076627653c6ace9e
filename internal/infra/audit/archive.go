// Package audit archives auth events to a gocloud blob bucket.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"path"
	"time"

	"wallet/config"
	"wallet/internal/domain/service"
	"wallet/internal/errors"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
)

const keyPrefix = "audit"

// ErrInvalidEvent marks an event that can never be archived.
var ErrInvalidEvent = errors.New("invalid audit event")

// BlobArchive writes one JSON object per event.
type BlobArchive struct {
	bucket *blob.Bucket
}

// Open opens the bucket behind url, e.g. gs://audit-bucket or file:///var/audit.
func Open(ctx context.Context, url string) (*BlobArchive, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "open audit bucket %s", url)
	}

	return NewBlobArchive(bucket), nil
}

// NewBlobArchive wraps an opened bucket.
func NewBlobArchive(bucket *blob.Bucket) *BlobArchive {
	return &BlobArchive{bucket: bucket}
}

// Key returns the object key of event: audit/<yyyy-mm-dd>/<event_id>.json.
func Key(event *service.AuthEvent) string {
	return path.Join(keyPrefix, event.OccurredAt.UTC().Format(time.DateOnly), event.EventID+".json")
}

// Validate rejects events whose id cannot name an object or that lack a type or timestamp.
func Validate(event *service.AuthEvent) error {
	if event == nil {
		return errors.WithMessage(ErrInvalidEvent, "nil event")
	}
	if _, err := uuid.Parse(event.EventID); err != nil {
		return errors.WithMessagef(ErrInvalidEvent, "event id %q", event.EventID)
	}
	if event.Type == "" {
		return errors.WithMessage(ErrInvalidEvent, "missing type")
	}
	if event.OccurredAt.IsZero() {
		return errors.WithMessage(ErrInvalidEvent, "missing occurred_at")
	}

	return nil
}

// Store writes event under Key(event).
func (a *BlobArchive) Store(ctx context.Context, event *service.AuthEvent) error {
	if err := Validate(event); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}

	err = a.bucket.WriteAll(ctx, Key(event), data, &blob.WriterOptions{
		ContentType: "application/json",
	})

	return errors.Wrap(err, "write audit event")
}

// Close closes the bucket.
func (a *BlobArchive) Close() error {
	return errors.WithStack(a.bucket.Close())
}

// Params defines the dependencies of the archive provider.
type Params struct {
	fx.In
	fx.Lifecycle

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewArchive opens the configured archive bucket and closes it on shutdown.
func NewArchive(params Params) (service.AuditArchive, error) {
	archive, err := Open(params.Ctx, params.Config.Audit.ArchiveURL)
	if err != nil {
		return nil, err
	}
	params.Logger.Info("Audit archive opened", slog.String("url", params.Config.Audit.ArchiveURL))

	params.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return archive.Close()
		},
	})

	return archive, nil
}
