package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	pkgerrors "github.com/thisisbariii/work/pkg/errors"
	"github.com/thisisbariii/work/pkg/utils"
)

// SessionStore implements ports.AuthGateway on DynamoDB. A session is a
// single document keyed by the anonymous identity. An existing session
// observed within the bounded wait is always preferred over creating a new
// one; two devices racing on the same identifier converge on one session via
// the conditional create.
type SessionStore struct {
	client       API
	tableName    string
	logger       *zap.Logger
	clock        utils.Clock
	waitTimeout  time.Duration
	pollInterval time.Duration
}

// NewSessionStore creates a SessionStore. waitTimeout bounds how long
// EnsureSession watches for an existing session before creating one.
func NewSessionStore(client API, tableName string, waitTimeout time.Duration, clock utils.Clock, logger *zap.Logger) *SessionStore {
	if waitTimeout <= 0 {
		waitTimeout = 3 * time.Second
	}
	return &SessionStore{
		client:       client,
		tableName:    tableName,
		logger:       logger,
		clock:        clock,
		waitTimeout:  waitTimeout,
		pollInterval: 250 * time.Millisecond,
	}
}

func sessionKey(identityID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("SESSION#%s", identityID)},
		"SK": &types.AttributeValueMemberS{Value: "SESSION"},
	}
}

// EnsureSession establishes the remote-auth session for an identity. It
// resolves to "not found, create" after the bounded wait rather than hanging.
func (s *SessionStore) EnsureSession(ctx context.Context, identityID string) error {
	deadline := s.clock.Now().Add(s.waitTimeout)

	for {
		found, err := s.lookup(ctx, identityID)
		if err != nil {
			return err
		}
		if found {
			s.logger.Debug("Existing auth session observed",
				zap.String("identityID", identityID),
			)
			return nil
		}
		if !s.clock.Now().Before(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return pkgerrors.NewAuthError("session wait canceled", ctx.Err())
		case <-time.After(s.pollInterval):
		}
	}

	return s.create(ctx, identityID)
}

func (s *SessionStore) lookup(ctx context.Context, identityID string) (bool, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       sessionKey(identityID),
	}

	out, err := s.client.GetItem(ctx, input)
	if err != nil {
		return false, pkgerrors.NewAuthError("lookup auth session", err)
	}
	return len(out.Item) > 0, nil
}

func (s *SessionStore) create(ctx context.Context, identityID string) error {
	cond := expression.AttributeNotExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return pkgerrors.NewInternalError("build session condition").WithCause(err)
	}

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: fmt.Sprintf("SESSION#%s", identityID)},
		"SK":         &types.AttributeValueMemberS{Value: "SESSION"},
		"EntityType": &types.AttributeValueMemberS{Value: "SESSION"},
		"IdentityID": &types.AttributeValueMemberS{Value: identityID},
		"CreatedAt":  &types.AttributeValueMemberS{Value: utils.FormatRFC3339(s.clock.Now())},
	}

	input := &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			// Another caller created the session first; theirs wins.
			return nil
		}
		return pkgerrors.NewAuthError("create auth session", err)
	}

	s.logger.Info("Auth session established",
		zap.String("identityID", identityID),
	)
	return nil
}
