package ports

import (
	"context"

	"github.com/thisisbariii/work/domain/core/valueobjects"
)

// AuthGateway establishes the backing remote-auth session for an anonymous
// identity. Implementations prefer an existing session observed within a
// short bounded wait over creating a new one.
type AuthGateway interface {
	EnsureSession(ctx context.Context, identityID string) error
}

// LocationResolver is the platform location source. The library never talks
// to GPS or permission APIs itself; the embedding app injects this.
type LocationResolver interface {
	Resolve(ctx context.Context) (valueobjects.LocationProfile, error)
}

// ConnectivitySource exposes the boolean connectivity state plus
// edge-triggered transition events. Consumed by the sync coordinator only.
type ConnectivitySource interface {
	// Online reports the current level state.
	Online() bool

	// Transitions delivers a value on every state change: true when the
	// device comes online, false when it drops offline.
	Transitions() <-chan bool
}
