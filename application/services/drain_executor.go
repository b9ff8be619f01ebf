package services

import (
	"context"
	"encoding/json"

	"github.com/thisisbariii/work/application/offline"
	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/domain/core/entities"
	"github.com/thisisbariii/work/pkg/errors"
)

// DrainExecutor replays queued operations against the remote
// repositories. It is the offline queue's view of the write path.
type DrainExecutor struct {
	posts ports.PostRepository
	moods ports.MoodRepository
	likes ports.LikeRepository
}

// NewDrainExecutor creates the replay executor.
func NewDrainExecutor(posts ports.PostRepository, moods ports.MoodRepository, likes ports.LikeRepository) *DrainExecutor {
	return &DrainExecutor{posts: posts, moods: moods, likes: likes}
}

// Execute replays one queued operation. Unknown kinds and corrupt
// payloads fail permanently so the queue's retry budget drops them.
func (e *DrainExecutor) Execute(ctx context.Context, op offline.QueuedOperation) error {
	switch op.Kind {
	case offline.KindCreatePost:
		var post entities.Post
		if err := json.Unmarshal(op.Payload, &post); err != nil {
			return errors.Wrap(err, "corrupt queued post payload")
		}
		return e.posts.Create(ctx, &post)

	case offline.KindCreateMood:
		var entry entities.MoodEntry
		if err := json.Unmarshal(op.Payload, &entry); err != nil {
			return errors.Wrap(err, "corrupt queued mood payload")
		}
		return e.moods.Create(ctx, &entry)

	case offline.KindLikePost:
		var like likePayload
		if err := json.Unmarshal(op.Payload, &like); err != nil {
			return errors.Wrap(err, "corrupt queued like payload")
		}
		return e.likes.Like(ctx, like.PostID, like.PostOwnerID, like.UserID)

	default:
		return errors.NewInternalError("unknown queued operation kind: " + op.Kind)
	}
}
