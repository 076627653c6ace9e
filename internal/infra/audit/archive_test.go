package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"wallet/internal/domain/service"
	"wallet/internal/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

func newEvent() *service.AuthEvent {
	return &service.AuthEvent{
		EventID:    uuid.NewString(),
		Type:       service.AuthEventLoginFailed,
		Email:      "a@example.com",
		OccurredAt: time.Date(2025, 3, 1, 23, 30, 0, 0, time.FixedZone("UTC+8", 8*3600)),
	}
}

func TestKey_UsesUTCDate(t *testing.T) {
	event := newEvent()

	assert.Equal(t, "audit/2025-03-01/"+event.EventID+".json", Key(event))
}

func TestBlobArchive_StoreWritesJSON(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	archive := NewBlobArchive(bucket)
	t.Cleanup(func() { _ = archive.Close() })

	event := newEvent()
	require.NoError(t, archive.Store(ctx, event))
	// Redelivery overwrites the same object.
	require.NoError(t, archive.Store(ctx, event))

	data, err := bucket.ReadAll(ctx, Key(event))
	require.NoError(t, err)

	var got service.AuthEvent
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, event.EventID, got.EventID)
	assert.Equal(t, event.Type, got.Type)
	assert.True(t, event.OccurredAt.Equal(got.OccurredAt))

	attrs, err := bucket.Attributes(ctx, Key(event))
	require.NoError(t, err)
	assert.Equal(t, "application/json", attrs.ContentType)
}

func TestBlobArchive_RejectsInvalidEvents(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*service.AuthEvent)
	}{
		{"path in event id", func(e *service.AuthEvent) { e.EventID = "../../etc/passwd" }},
		{"missing type", func(e *service.AuthEvent) { e.Type = "" }},
		{"missing timestamp", func(e *service.AuthEvent) { e.OccurredAt = time.Time{} }},
	}

	archive := NewBlobArchive(memblob.OpenBucket(nil))
	t.Cleanup(func() { _ = archive.Close() })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := newEvent()
			tt.mutate(event)

			err := archive.Store(context.Background(), event)
			assert.True(t, errors.Is(err, ErrInvalidEvent))
		})
	}
}

func TestOpen_UnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), "nope://bucket")
	assert.Error(t, err)
}
