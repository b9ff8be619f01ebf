package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	pkgerrors "github.com/thisisbariii/work/pkg/errors"
	"github.com/thisisbariii/work/pkg/utils"
)

// LikeRepository implements ports.LikeRepository on DynamoDB. A like is a
// relationship item under the post's partition plus an atomic ADD on the
// post document's counter; the counter never drifts from the store's view
// because the increment happens store-side.
type LikeRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
	clock     utils.Clock
}

// NewLikeRepository creates a LikeRepository.
func NewLikeRepository(client API, tableName string, clock utils.Clock, logger *zap.Logger) *LikeRepository {
	return &LikeRepository{client: client, tableName: tableName, clock: clock, logger: logger}
}

func likeKey(postID, userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("POST#%s", postID)},
		"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("LIKE#%s", userID)},
	}
}

// Like records the relationship and increments the post counter. A duplicate
// like is detected by the conditional put and treated as a no-op so replays
// from the offline queue cannot double-count.
func (r *LikeRepository) Like(ctx context.Context, postID, postOwnerID, userID string) error {
	cond := expression.AttributeNotExists(expression.Name("SK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return pkgerrors.NewInternalError("build like condition").WithCause(err)
	}

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: fmt.Sprintf("POST#%s", postID)},
		"SK":         &types.AttributeValueMemberS{Value: fmt.Sprintf("LIKE#%s", userID)},
		"EntityType": &types.AttributeValueMemberS{Value: "LIKE"},
		"PostID":     &types.AttributeValueMemberS{Value: postID},
		"UserID":     &types.AttributeValueMemberS{Value: userID},
		"CreatedAt":  &types.AttributeValueMemberS{Value: utils.FormatRFC3339(r.clock.Now())},
	}

	input := &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			r.logger.Debug("Duplicate like ignored",
				zap.String("postID", postID),
				zap.String("userID", userID),
			)
			return nil
		}
		return pkgerrors.NewNetworkError("save like", err)
	}

	return r.adjustCounter(ctx, postID, postOwnerID, 1)
}

// Unlike removes the relationship and decrements the counter. Removing an
// absent relationship is a no-op and leaves the counter untouched.
func (r *LikeRepository) Unlike(ctx context.Context, postID, postOwnerID, userID string) error {
	input := &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tableName),
		Key:          likeKey(postID, userID),
		ReturnValues: types.ReturnValueAllOld,
	}

	out, err := r.client.DeleteItem(ctx, input)
	if err != nil {
		return pkgerrors.NewNetworkError("remove like", err)
	}
	if len(out.Attributes) == 0 {
		return nil // nothing was liked
	}

	return r.adjustCounter(ctx, postID, postOwnerID, -1)
}

// adjustCounter applies an atomic increment-by-delta to the post document.
func (r *LikeRepository) adjustCounter(ctx context.Context, postID, postOwnerID string, delta int) error {
	update := expression.Add(expression.Name("Likes"), expression.Value(delta))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return pkgerrors.NewInternalError("build like counter expression").WithCause(err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       postKey(postOwnerID, postID),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := r.client.UpdateItem(ctx, input); err != nil {
		r.logger.Warn("Failed to adjust like counter",
			zap.Error(err),
			zap.String("postID", postID),
			zap.Int("delta", delta),
		)
		return pkgerrors.NewNetworkError("adjust like counter", err)
	}
	return nil
}
