package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thisisbariii/work/application/ports"
	"github.com/thisisbariii/work/domain/core/entities"
	"github.com/thisisbariii/work/domain/core/valueobjects"
	pkgerrors "github.com/thisisbariii/work/pkg/errors"
)

var testIndexes = TierIndexes{
	City:    "CityIndex",
	State:   "StateIndex",
	Country: "CountryIndex",
	Global:  "GlobalIndex",
}

func newPostRepo(api API) *PostRepository {
	return NewPostRepository(api, "feelings", testIndexes, zap.NewNop())
}

func attrS(av map[string]types.AttributeValue, name string) string {
	s, _ := av[name].(*types.AttributeValueMemberS)
	if s == nil {
		return ""
	}
	return s.Value
}

func samplePost() *entities.Post {
	return &entities.Post{
		ID:        "post-1",
		UserID:    "user-1",
		Text:      "hello",
		Emotion:   "joy",
		City:      "Pune",
		State:     "Maharashtra",
		Country:   "India",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreate_WritesKeysAndTierPartitions(t *testing.T) {
	api := &fakeAPI{}
	repo := newPostRepo(api)

	require.NoError(t, repo.Create(context.Background(), samplePost()))
	require.Len(t, api.putInputs, 1)

	item := api.putInputs[0].Item
	assert.Equal(t, "USER#user-1", attrS(item, "PK"))
	assert.Equal(t, "POST#post-1", attrS(item, "SK"))
	assert.Equal(t, "CITY#Pune", attrS(item, "GSI1PK"))
	assert.Equal(t, "STATE#Maharashtra", attrS(item, "GSI2PK"))
	assert.Equal(t, "COUNTRY#India", attrS(item, "GSI3PK"))
	assert.Equal(t, "POST", attrS(item, "GSI4PK"))
}

func TestCreate_NoLocationSkipsGeoIndexes(t *testing.T) {
	api := &fakeAPI{}
	repo := newPostRepo(api)

	post := samplePost()
	post.City, post.State, post.Country = "", "", ""
	require.NoError(t, repo.Create(context.Background(), post))

	item := api.putInputs[0].Item
	_, hasCity := item["GSI1PK"]
	_, hasState := item["GSI2PK"]
	_, hasCountry := item["GSI3PK"]
	assert.False(t, hasCity)
	assert.False(t, hasState)
	assert.False(t, hasCountry)
	assert.Equal(t, "POST", attrS(item, "GSI4PK"), "every post enters the global index")
}

func TestCreate_TransportFailureIsNetworkError(t *testing.T) {
	api := &fakeAPI{putErr: errors.New("connection refused")}
	repo := newPostRepo(api)

	err := repo.Create(context.Background(), samplePost())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNetwork(err))
}

func TestSoftDelete_MissingPostIsNotFound(t *testing.T) {
	api := &fakeAPI{updateErr: conditionalCheckFailed()}
	repo := newPostRepo(api)

	err := repo.SoftDelete(context.Background(), "user-1", "gone", time.Now())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestSoftDelete_UpdatesInPlace(t *testing.T) {
	api := &fakeAPI{}
	repo := newPostRepo(api)

	require.NoError(t, repo.SoftDelete(context.Background(), "user-1", "post-1", time.Now()))
	require.Len(t, api.updateInputs, 1)

	in := api.updateInputs[0]
	assert.Equal(t, "USER#user-1", attrS(in.Key, "PK"))
	assert.Equal(t, "POST#post-1", attrS(in.Key, "SK"))
	assert.NotNil(t, in.ConditionExpression)
}

func TestQueryTier_UsesTierIndexNewestFirst(t *testing.T) {
	api := &fakeAPI{}
	repo := newPostRepo(api)

	scope := ports.FeedScope{Tier: valueobjects.TierCity, Value: "Pune"}
	_, err := repo.QueryTier(context.Background(), scope, 12, nil)
	require.NoError(t, err)
	require.Len(t, api.queryInputs, 1)

	in := api.queryInputs[0]
	assert.Equal(t, "CityIndex", *in.IndexName)
	assert.False(t, *in.ScanIndexForward, "newest first")
	assert.Equal(t, int32(12), *in.Limit)
}

func TestQueryTier_GlobalScopeHitsGlobalIndex(t *testing.T) {
	api := &fakeAPI{}
	repo := newPostRepo(api)

	_, err := repo.QueryTier(context.Background(), ports.FeedScope{Tier: valueobjects.TierGlobal}, 7, nil)
	require.NoError(t, err)
	assert.Equal(t, "GlobalIndex", *api.queryInputs[0].IndexName)
}

func TestQueryTier_AppliesExclusionAndLimit(t *testing.T) {
	items := make([]map[string]types.AttributeValue, 0, 4)
	for _, id := range []string{"a", "b", "c", "d"} {
		p := samplePost()
		p.ID = id
		av, err := attributevalue.MarshalMap(toPostItem(p))
		require.NoError(t, err)
		items = append(items, av)
	}
	api := &fakeAPI{queryOutput: &dynamodb.QueryOutput{Items: items}}
	repo := newPostRepo(api)

	exclude := map[string]struct{}{"a": {}, "c": {}}
	scope := ports.FeedScope{Tier: valueobjects.TierCity, Value: "Pune"}
	posts, err := repo.QueryTier(context.Background(), scope, 1, exclude)
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.Equal(t, "b", posts[0].ID)
	// The overfetch headroom is requested from the store.
	assert.Equal(t, int32(3), *api.queryInputs[0].Limit)
}

func TestQueryTier_FollowsContinuationUntilQuotaMet(t *testing.T) {
	survivors := make([]map[string]types.AttributeValue, 0, 2)
	for _, id := range []string{"e", "f"} {
		p := samplePost()
		p.ID = id
		av, err := attributevalue.MarshalMap(toPostItem(p))
		require.NoError(t, err)
		survivors = append(survivors, av)
	}
	cursor := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "USER#user-1"},
		"SK": &types.AttributeValueMemberS{Value: "POST#gone"},
	}
	// The first page was consumed entirely by filtered soft-deleted items;
	// the second still advertises more data, but the quota is met there.
	api := &fakeAPI{queryOutputs: []*dynamodb.QueryOutput{
		{LastEvaluatedKey: cursor},
		{Items: survivors, LastEvaluatedKey: cursor},
	}}
	repo := newPostRepo(api)

	scope := ports.FeedScope{Tier: valueobjects.TierCity, Value: "Pune"}
	posts, err := repo.QueryTier(context.Background(), scope, 2, nil)
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.Equal(t, "e", posts[0].ID)
	require.Len(t, api.queryInputs, 2, "quota met, no third page")
	assert.NotNil(t, api.queryInputs[1].ExclusiveStartKey)
}

func TestByUser_SortsNewestFirstAndLimits(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	items := make([]map[string]types.AttributeValue, 0, 3)
	for i, id := range []string{"old", "mid", "new"} {
		p := samplePost()
		p.ID = id
		p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		av, err := attributevalue.MarshalMap(toPostItem(p))
		require.NoError(t, err)
		items = append(items, av)
	}
	api := &fakeAPI{queryOutput: &dynamodb.QueryOutput{Items: items}}
	repo := newPostRepo(api)

	posts, err := repo.ByUser(context.Background(), "user-1", 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "new", posts[0].ID)
	assert.Equal(t, "mid", posts[1].ID)
}

func TestPostItemRoundTrip(t *testing.T) {
	p := samplePost()
	deleted := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	p.MarkDeleted(deleted)

	got, err := toPostItem(p).toEntity()
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))
	assert.True(t, got.Deleted)
	require.NotNil(t, got.DeletedAt)
	assert.True(t, got.DeletedAt.Equal(deleted))
}
