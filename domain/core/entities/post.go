package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/thisisbariii/work/domain/core/valueobjects"
	pkgerrors "github.com/thisisbariii/work/pkg/errors"
)

// Post is a shared feeling. It is a denormalized copy of the remote record:
// the same shape is written to the store of record, queued for replay, and
// kept in the local cache partitions.
type Post struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Text      string     `json:"text"`
	Emotion   string     `json:"emotion"`
	Likes     int        `json:"likes"`
	City      string     `json:"city,omitempty"`
	State     string     `json:"state,omitempty"`
	Country   string     `json:"country,omitempty"`
	Latitude  float64    `json:"lat,omitempty"`
	Longitude float64    `json:"lon,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`

	// Tier is the feed tier the post was selected from. Runtime-only,
	// assigned during feed assembly, never persisted.
	Tier valueobjects.FeedTier `json:"-"`
}

// NewPost creates a post attributed to the given identity, stamped with the
// device's last-known location so it can surface in geographic tiers.
func NewPost(userID, text, emotion string, loc valueobjects.LocationProfile, now time.Time) (*Post, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if text == "" {
		return nil, pkgerrors.NewValidationError("text cannot be empty")
	}

	return &Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		Emotion:   emotion,
		City:      loc.City,
		State:     loc.State,
		Country:   loc.Country,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		CreatedAt: now,
	}, nil
}

// MarkDeleted flags the post as soft-deleted. The record survives in the
// remote store; only the flag and timestamp change.
func (p *Post) MarkDeleted(at time.Time) {
	if p.Deleted {
		return
	}
	p.Deleted = true
	p.DeletedAt = &at
}

// OwnedBy reports whether the post belongs to the given identity.
func (p *Post) OwnedBy(identityID string) bool {
	return p.UserID == identityID
}
