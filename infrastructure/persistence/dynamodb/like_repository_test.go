package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgerrors "github.com/thisisbariii/work/pkg/errors"
	"github.com/thisisbariii/work/pkg/utils"
)

func newLikeRepo(api API) *LikeRepository {
	clock := &utils.FakeClock{Current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewLikeRepository(api, "feelings", clock, zap.NewNop())
}

func TestLike_WritesRelationshipAndIncrementsCounter(t *testing.T) {
	api := &fakeAPI{}
	repo := newLikeRepo(api)

	require.NoError(t, repo.Like(context.Background(), "post-1", "owner-1", "user-1"))

	require.Len(t, api.putInputs, 1)
	item := api.putInputs[0].Item
	assert.Equal(t, "POST#post-1", attrS(item, "PK"))
	assert.Equal(t, "LIKE#user-1", attrS(item, "SK"))
	assert.NotNil(t, api.putInputs[0].ConditionExpression)

	require.Len(t, api.updateInputs, 1)
	key := api.updateInputs[0].Key
	assert.Equal(t, "USER#owner-1", attrS(key, "PK"))
	assert.Equal(t, "POST#post-1", attrS(key, "SK"))
}

func TestLike_DuplicateIsNoopAndCounterUntouched(t *testing.T) {
	api := &fakeAPI{putErr: conditionalCheckFailed()}
	repo := newLikeRepo(api)

	require.NoError(t, repo.Like(context.Background(), "post-1", "owner-1", "user-1"))
	assert.Empty(t, api.updateInputs, "duplicate like must not touch the counter")
}

func TestLike_TransportFailureIsNetworkError(t *testing.T) {
	api := &fakeAPI{putErr: errors.New("timeout")}
	repo := newLikeRepo(api)

	err := repo.Like(context.Background(), "post-1", "owner-1", "user-1")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNetwork(err))
}

func TestUnlike_AbsentRelationshipSkipsDecrement(t *testing.T) {
	api := &fakeAPI{deleteOutput: &dynamodb.DeleteItemOutput{}}
	repo := newLikeRepo(api)

	require.NoError(t, repo.Unlike(context.Background(), "post-1", "owner-1", "user-1"))
	assert.Empty(t, api.updateInputs)
}

func TestUnlike_ExistingRelationshipDecrements(t *testing.T) {
	api := &fakeAPI{deleteOutput: &dynamodb.DeleteItemOutput{
		Attributes: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "POST#post-1"},
		},
	}}
	repo := newLikeRepo(api)

	require.NoError(t, repo.Unlike(context.Background(), "post-1", "owner-1", "user-1"))
	require.Len(t, api.updateInputs, 1)
	assert.Equal(t, "USER#owner-1", attrS(api.updateInputs[0].Key, "PK"))
}
