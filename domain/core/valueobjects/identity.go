package valueobjects

import (
	"time"

	pkgerrors "github.com/thisisbariii/work/pkg/errors"
)

// AnonymousIdentity is the stable device-scoped identifier that stands in
// for user authentication. Exactly one instance exists per device lifetime;
// it is immutable once created. A refresh replaces it, never mutates it.
type AnonymousIdentity struct {
	id        string
	createdAt time.Time
}

// NewAnonymousIdentity creates an identity from a generated identifier.
func NewAnonymousIdentity(id string, createdAt time.Time) (AnonymousIdentity, error) {
	if id == "" {
		return AnonymousIdentity{}, pkgerrors.NewValidationError("identity id cannot be empty")
	}
	return AnonymousIdentity{id: id, createdAt: createdAt}, nil
}

// ID returns the identifier. All content in the app is attributed to it.
func (a AnonymousIdentity) ID() string {
	return a.id
}

// CreatedAt returns when the identity was first established.
func (a AnonymousIdentity) CreatedAt() time.Time {
	return a.createdAt
}

// IsZero reports whether the identity has not been resolved yet.
func (a AnonymousIdentity) IsZero() bool {
	return a.id == ""
}

// Equals compares two identities by identifier.
func (a AnonymousIdentity) Equals(other AnonymousIdentity) bool {
	return a.id == other.id
}
