package entities

import (
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/thisisbariii/work/pkg/errors"
)

// MoodEntry is a private mood-history record. Unlike posts, mood entries
// never enter the shared feed; they are only read back by their owner.
type MoodEntry struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Emotion   string     `json:"emotion"`
	Intensity int        `json:"intensity"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// NewMoodEntry creates a mood entry for the given identity.
func NewMoodEntry(userID, emotion string, intensity int, note string, now time.Time) (*MoodEntry, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if emotion == "" {
		return nil, pkgerrors.NewValidationError("emotion cannot be empty")
	}

	return &MoodEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Emotion:   emotion,
		Intensity: intensity,
		Note:      note,
		CreatedAt: now,
	}, nil
}

// MarkDeleted flags the entry as soft-deleted.
func (m *MoodEntry) MarkDeleted(at time.Time) {
	if m.Deleted {
		return
	}
	m.Deleted = true
	m.DeletedAt = &at
}
