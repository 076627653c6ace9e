// Package constants holds configuration values shared across layers.
package constants

// Audit publisher providers accepted in audit.provider.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Pub/Sub message attribute names.
const (
	AttrEventType = "event_type"
	AttrEventID   = "event_id"
	AttrAccountID = "account_id"
	AttrRequestID = "request_id"
)
