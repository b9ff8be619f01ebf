package validators

import (
	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/thisisbariii/work/pkg/errors"
)

// PostInput is the caller-supplied payload for a new post.
type PostInput struct {
	Text    string `json:"text" validate:"required,max=500"`
	Emotion string `json:"emotion" validate:"required,max=40"`
}

// MoodInput is the caller-supplied payload for a new mood entry.
type MoodInput struct {
	Emotion   string `json:"emotion" validate:"required,max=40"`
	Intensity int    `json:"intensity" validate:"required,gte=1,lte=10"`
	Note      string `json:"note" validate:"max=300"`
}

// LikeInput is the caller-supplied payload for a like.
type LikeInput struct {
	PostID      string `json:"postId" validate:"required"`
	PostOwnerID string `json:"postOwnerId" validate:"required"`
}

// PayloadValidator validates mutation payloads before they touch the remote
// store or the offline queue. Malformed payloads are rejected immediately;
// retrying invalid data cannot succeed, so they are never queued.
type PayloadValidator struct {
	validate *validator.Validate
}

// NewPayloadValidator creates a validator with struct-tag rules.
func NewPayloadValidator() *PayloadValidator {
	return &PayloadValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidatePost checks a post payload.
func (v *PayloadValidator) ValidatePost(in PostInput) error {
	return v.wrap(v.validate.Struct(in))
}

// ValidateMood checks a mood payload.
func (v *PayloadValidator) ValidateMood(in MoodInput) error {
	return v.wrap(v.validate.Struct(in))
}

// ValidateLike checks a like payload.
func (v *PayloadValidator) ValidateLike(in LikeInput) error {
	return v.wrap(v.validate.Struct(in))
}

func (v *PayloadValidator) wrap(err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.NewValidationError(err.Error()).WithCause(err)
}
