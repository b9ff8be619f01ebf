package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/domain/core/entities"
	"github.com/thisisbariii/work/domain/core/valueobjects"
	pkgerrors "github.com/thisisbariii/work/pkg/errors"
	"github.com/thisisbariii/work/pkg/utils"
)

// TierIndexes names the GSIs serving the four geographic feed tiers.
type TierIndexes struct {
	City    string
	State   string
	Country string
	Global  string
}

// PostRepository implements ports.PostRepository on DynamoDB.
type PostRepository struct {
	client    API
	tableName string
	indexes   TierIndexes
	logger    *zap.Logger
}

// NewPostRepository creates a PostRepository.
func NewPostRepository(client API, tableName string, indexes TierIndexes, logger *zap.Logger) *PostRepository {
	return &PostRepository{
		client:    client,
		tableName: tableName,
		indexes:   indexes,
		logger:    logger,
	}
}

// postItem is the DynamoDB item structure for a post. The tier partition
// keys (GSI1..GSI4) are only written when the corresponding location field
// is known, so posts without a city never pollute the city index.
type postItem struct {
	PK         string  `dynamodbav:"PK"`
	SK         string  `dynamodbav:"SK"`
	GSI1PK     string  `dynamodbav:"GSI1PK,omitempty"` // CITY#<city>
	GSI1SK     string  `dynamodbav:"GSI1SK,omitempty"`
	GSI2PK     string  `dynamodbav:"GSI2PK,omitempty"` // STATE#<state>
	GSI2SK     string  `dynamodbav:"GSI2SK,omitempty"`
	GSI3PK     string  `dynamodbav:"GSI3PK,omitempty"` // COUNTRY#<country>
	GSI3SK     string  `dynamodbav:"GSI3SK,omitempty"`
	GSI4PK     string  `dynamodbav:"GSI4PK,omitempty"` // POST (global)
	GSI4SK     string  `dynamodbav:"GSI4SK,omitempty"`
	EntityType string  `dynamodbav:"EntityType"`
	PostID     string  `dynamodbav:"PostID"`
	UserID     string  `dynamodbav:"UserID"`
	Text       string  `dynamodbav:"Text"`
	Emotion    string  `dynamodbav:"Emotion"`
	Likes      int     `dynamodbav:"Likes"`
	City       string  `dynamodbav:"City,omitempty"`
	State      string  `dynamodbav:"State,omitempty"`
	Country    string  `dynamodbav:"Country,omitempty"`
	Lat        float64 `dynamodbav:"Lat,omitempty"`
	Lon        float64 `dynamodbav:"Lon,omitempty"`
	CreatedAt  string  `dynamodbav:"CreatedAt"`
	Deleted    bool    `dynamodbav:"Deleted"`
	DeletedAt  string  `dynamodbav:"DeletedAt,omitempty"`
}

func postKey(userID, postID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", userID)},
		"SK": &types.AttributeValueMemberS{Value: fmt.Sprintf("POST#%s", postID)},
	}
}

func toPostItem(post *entities.Post) postItem {
	created := utils.FormatRFC3339(post.CreatedAt)
	item := postItem{
		PK:         fmt.Sprintf("USER#%s", post.UserID),
		SK:         fmt.Sprintf("POST#%s", post.ID),
		GSI4PK:     "POST",
		GSI4SK:     created,
		EntityType: "POST",
		PostID:     post.ID,
		UserID:     post.UserID,
		Text:       post.Text,
		Emotion:    post.Emotion,
		Likes:      post.Likes,
		City:       post.City,
		State:      post.State,
		Country:    post.Country,
		Lat:        post.Latitude,
		Lon:        post.Longitude,
		CreatedAt:  created,
		Deleted:    post.Deleted,
	}
	if post.City != "" {
		item.GSI1PK = fmt.Sprintf("CITY#%s", post.City)
		item.GSI1SK = created
	}
	if post.State != "" {
		item.GSI2PK = fmt.Sprintf("STATE#%s", post.State)
		item.GSI2SK = created
	}
	if post.Country != "" {
		item.GSI3PK = fmt.Sprintf("COUNTRY#%s", post.Country)
		item.GSI3SK = created
	}
	if post.DeletedAt != nil {
		item.DeletedAt = utils.FormatRFC3339(*post.DeletedAt)
	}
	return item
}

func (item postItem) toEntity() (entities.Post, error) {
	createdAt, err := utils.ParseRFC3339(item.CreatedAt)
	if err != nil {
		return entities.Post{}, fmt.Errorf("parse post timestamp: %w", err)
	}
	post := entities.Post{
		ID:        item.PostID,
		UserID:    item.UserID,
		Text:      item.Text,
		Emotion:   item.Emotion,
		Likes:     item.Likes,
		City:      item.City,
		State:     item.State,
		Country:   item.Country,
		Latitude:  item.Lat,
		Longitude: item.Lon,
		CreatedAt: createdAt,
		Deleted:   item.Deleted,
	}
	if item.DeletedAt != "" {
		if deletedAt, err := utils.ParseRFC3339(item.DeletedAt); err == nil {
			post.DeletedAt = &deletedAt
		}
	}
	return post, nil
}

// Create persists a new post document.
func (r *PostRepository) Create(ctx context.Context, post *entities.Post) error {
	av, err := attributevalue.MarshalMap(toPostItem(post))
	if err != nil {
		return pkgerrors.NewInternalError("marshal post").WithCause(err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Warn("Failed to save post to DynamoDB",
			zap.Error(err),
			zap.String("postID", post.ID),
		)
		return pkgerrors.NewNetworkError("save post", err)
	}

	r.logger.Debug("Post saved",
		zap.String("postID", post.ID),
		zap.String("userID", post.UserID),
	)
	return nil
}

// SoftDelete flags a post as deleted. The document stays in place; only the
// flag and timestamp change.
func (r *PostRepository) SoftDelete(ctx context.Context, userID, postID string, at time.Time) error {
	update := expression.Set(expression.Name("Deleted"), expression.Value(true)).
		Set(expression.Name("DeletedAt"), expression.Value(utils.FormatRFC3339(at)))
	cond := expression.AttributeExists(expression.Name("PK"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return pkgerrors.NewInternalError("build soft-delete expression").WithCause(err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       postKey(userID, postID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := r.client.UpdateItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			return pkgerrors.NewNotFoundError("post")
		}
		r.logger.Warn("Failed to soft-delete post",
			zap.Error(err),
			zap.String("postID", postID),
		)
		return pkgerrors.NewNetworkError("soft-delete post", err)
	}
	return nil
}

// ByUser returns the user's own posts, newest first.
func (r *PostRepository) ByUser(ctx context.Context, userID string, limit int) ([]entities.Post, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(fmt.Sprintf("USER#%s", userID))).
		And(expression.Key("SK").BeginsWith("POST#"))
	filter := expression.Name("Deleted").Equal(expression.Value(false))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("build posts-by-user expression").WithCause(err)
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
		return nil, pkgerrors.NewNetworkError("query user posts", err)
	}

	posts := make([]entities.Post, 0, len(result.Items))
	for _, raw := range result.Items {
		var item postItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal post item", zap.Error(err))
			continue
		}
		post, err := item.toEntity()
		if err != nil {
			r.logger.Warn("Skipping malformed post item", zap.Error(err))
			continue
		}
		posts = append(posts, post)
	}

	// The SK is not time-ordered, so sort here.
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// QueryTier returns up to limit posts for one geographic scope, newest
// first. Soft-deleted documents are filtered at the store; the exclusion set
// is applied here since the accumulated ID list can exceed what a filter
// expression comfortably carries.
func (r *PostRepository) QueryTier(ctx context.Context, scope ports.FeedScope, limit int, exclude map[string]struct{}) ([]entities.Post, error) {
	indexName, pkName, pkValue := r.tierKey(scope)

	keyCond := expression.Key(pkName).Equal(expression.Value(pkValue))
	filter := expression.Name("Deleted").Equal(expression.Value(false))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, pkgerrors.NewInternalError("build tier query expression").WithCause(err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false), // newest first
		Limit:                     aws.Int32(int32(limit + len(exclude))),
	}

	// Soft-deleted items count against the page limit before the filter
	// drops them, so follow the continuation key until the quota is met.
	posts := make([]entities.Post, 0, limit)
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			r.logger.Warn("Tier query failed",
				zap.Error(err),
				zap.String("tier", scope.Tier.String()),
				zap.String("scope", scope.Value),
			)
			return nil, pkgerrors.NewNetworkError("query feed tier", err)
		}

		for _, raw := range result.Items {
			var item postItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to unmarshal post item", zap.Error(err))
				continue
			}
			if _, skip := exclude[item.PostID]; skip {
				continue
			}
			post, err := item.toEntity()
			if err != nil {
				r.logger.Warn("Skipping malformed post item", zap.Error(err))
				continue
			}
			posts = append(posts, post)
			if len(posts) == limit {
				return posts, nil
			}
		}

		if result.LastEvaluatedKey == nil {
			return posts, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

func (r *PostRepository) tierKey(scope ports.FeedScope) (indexName, pkName, pkValue string) {
	switch scope.Tier {
	case valueobjects.TierCity:
		return r.indexes.City, "GSI1PK", fmt.Sprintf("CITY#%s", scope.Value)
	case valueobjects.TierState:
		return r.indexes.State, "GSI2PK", fmt.Sprintf("STATE#%s", scope.Value)
	case valueobjects.TierCountry:
		return r.indexes.Country, "GSI3PK", fmt.Sprintf("COUNTRY#%s", scope.Value)
	default:
		return r.indexes.Global, "GSI4PK", "POST"
	}
}
