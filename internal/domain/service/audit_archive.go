package service

import "context"

// AuditArchive stores audit events durably. Storing the same event twice
// overwrites the first copy.
type AuditArchive interface {
	Store(ctx context.Context, event *AuthEvent) error
	Close() error
}
