package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/thisisbariii/work/domain/core/entities"
	pkgerrors "github.com/thisisbariii/work/pkg/errors"
	"github.com/thisisbariii/work/pkg/utils"
)

// MoodRepository implements ports.MoodRepository on DynamoDB.
type MoodRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewMoodRepository creates a MoodRepository.
func NewMoodRepository(client API, tableName string, logger *zap.Logger) *MoodRepository {
	return &MoodRepository{client: client, tableName: tableName, logger: logger}
}

// moodItem is the DynamoDB item structure for a mood entry. The sort key
// embeds the creation timestamp so user queries come back time-ordered
// straight from the index.
type moodItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	EntryID    string `dynamodbav:"EntryID"`
	UserID     string `dynamodbav:"UserID"`
	Emotion    string `dynamodbav:"Emotion"`
	Intensity  int    `dynamodbav:"Intensity"`
	Note       string `dynamodbav:"Note,omitempty"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	Deleted    bool   `dynamodbav:"Deleted"`
	DeletedAt  string `dynamodbav:"DeletedAt,omitempty"`
}

func moodSortKey(createdAt time.Time, entryID string) string {
	return fmt.Sprintf("MOOD#%s#%s", utils.FormatRFC3339(createdAt), entryID)
}

// Create persists a new mood entry document.
func (r *MoodRepository) Create(ctx context.Context, entry *entities.MoodEntry) error {
	item := moodItem{
		PK:         fmt.Sprintf("USER#%s", entry.UserID),
		SK:         moodSortKey(entry.CreatedAt, entry.ID),
		EntityType: "MOOD",
		EntryID:    entry.ID,
		UserID:     entry.UserID,
		Emotion:    entry.Emotion,
		Intensity:  entry.Intensity,
		Note:       entry.Note,
		CreatedAt:  utils.FormatRFC3339(entry.CreatedAt),
		Deleted:    entry.Deleted,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewInternalError("marshal mood entry").WithCause(err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Warn("Failed to save mood entry",
			zap.Error(err),
			zap.String("entryID", entry.ID),
		)
		return pkgerrors.NewNetworkError("save mood entry", err)
	}
	return nil
}

// SoftDelete flags a mood entry as deleted. The entry is located by ID via a
// user-partition query since the sort key embeds the creation timestamp.
func (r *MoodRepository) SoftDelete(ctx context.Context, userID, entryID string, at time.Time) error {
	item, err := r.findItem(ctx, userID, entryID)
	if err != nil {
		return err
	}

	update := expression.Set(expression.Name("Deleted"), expression.Value(true)).
		Set(expression.Name("DeletedAt"), expression.Value(utils.FormatRFC3339(at)))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return pkgerrors.NewInternalError("build mood soft-delete expression").WithCause(err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: item.PK},
			"SK": &types.AttributeValueMemberS{Value: item.SK},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := r.client.UpdateItem(ctx, input); err != nil {
		return pkgerrors.NewNetworkError("soft-delete mood entry", err)
	}
	return nil
}

// ByUser returns the user's mood history, newest first.
func (r *MoodRepository) ByUser(ctx context.Context, userID string, limit int) ([]entities.MoodEntry, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("USER#%s", userID))).
		And(expression.Key("SK").BeginsWith("MOOD#"))
	filter := expression.Name("Deleted").Equal(expression.Value(false))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("build moods-by-user expression").WithCause(err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false), // SK embeds CreatedAt
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, pkgerrors.NewNetworkError("query mood history", err)
	}

	entries := make([]entities.MoodEntry, 0, len(result.Items))
	for _, raw := range result.Items {
		var item moodItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal mood item", zap.Error(err))
			continue
		}
		entry, err := item.toEntity()
		if err != nil {
			r.logger.Warn("Skipping malformed mood item", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (item moodItem) toEntity() (entities.MoodEntry, error) {
	createdAt, err := utils.ParseRFC3339(item.CreatedAt)
	if err != nil {
		return entities.MoodEntry{}, fmt.Errorf("parse mood timestamp: %w", err)
	}
	entry := entities.MoodEntry{
		ID:        item.EntryID,
		UserID:    item.UserID,
		Emotion:   item.Emotion,
		Intensity: item.Intensity,
		Note:      item.Note,
		CreatedAt: createdAt,
		Deleted:   item.Deleted,
	}
	if item.DeletedAt != "" {
		if deletedAt, err := utils.ParseRFC3339(item.DeletedAt); err == nil {
			entry.DeletedAt = &deletedAt
		}
	}
	return entry, nil
}

func (r *MoodRepository) findItem(ctx context.Context, userID, entryID string) (moodItem, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("USER#%s", userID))).
		And(expression.Key("SK").BeginsWith("MOOD#"))
	filter := expression.Name("EntryID").Equal(expression.Value(entryID))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return moodItem{}, pkgerrors.NewInternalError("build mood lookup expression").WithCause(err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return moodItem{}, pkgerrors.NewNetworkError("lookup mood entry", err)
	}
	if len(result.Items) == 0 {
		return moodItem{}, pkgerrors.NewNotFoundError("mood entry")
	}

	var item moodItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return moodItem{}, pkgerrors.NewInternalError("unmarshal mood item").WithCause(err)
	}
	return item, nil
}
