package contracts

import (
	"context"

	"github.com/XavierBriggs/Iris/pkg/models"
)

// VendorAdapter defines the interface for fetching fixture data from an external vendor
// The gateway owns caching, quota and credentials; adapters only speak the wire protocol
type VendorAdapter interface {
	// Get performs a single GET against the vendor endpoint with the token injected
	// Returns the raw response body on a 2xx status, no retries
	Get(ctx context.Context, endpoint string, params map[string]string, token string) ([]byte, error)

	// DecodeFixtures extracts fixtures from a response envelope
	// Missing fields degrade to zero values rather than failing
	DecodeFixtures(payload []byte) ([]models.Fixture, error)

	// DecodeLeagues extracts leagues from a response envelope
	DecodeLeagues(payload []byte) ([]models.League, error)

	// SupportsEndpoint checks if this adapter knows the given endpoint
	SupportsEndpoint(endpoint string) bool
}

// Notifier receives non-fatal, user-visible notices from the core
type Notifier interface {
	Notify(notice models.Notice)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(models.Notice)

// Notify calls f(notice)
func (f NotifierFunc) Notify(notice models.Notice) {
	f(notice)
}
