package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"collocation-backend/application/ports"
	"collocation-backend/domain/core/entities"
	pkgerrors "collocation-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTable emulates the conditional writes and batch deletes of a table.
// Calls it does not override panic through the nil embedded API.
type fakeTable struct {
	API

	mu          sync.Mutex
	items       map[string]map[string]types.AttributeValue
	failWith    error
	unprocessed int
	batchCalls  int

	// beforeWrite runs once, outside the lock, ahead of the next transaction
	beforeWrite func()
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(item map[string]types.AttributeValue) string {
	pk := item["PK"].(*types.AttributeValueMemberS).Value
	sk := item["SK"].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func (f *fakeTable) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(params.Key)]}, nil
}

// conditionHolds evaluates the condition expressions the repository writes
func (f *fakeTable) conditionHolds(condition string, key string, values map[string]types.AttributeValue) bool {
	existing, exists := f.items[key]
	switch condition {
	case "":
		return true
	case "attribute_not_exists(PK)":
		return !exists
	case "attribute_exists(PK)":
		return exists
	case recordUnchanged:
		if !exists {
			return false
		}
		stored, _ := existing["Collocation"].(*types.AttributeValueMemberS)
		expected, _ := values[":expected"].(*types.AttributeValueMemberS)
		return stored != nil && expected != nil && stored.Value == expected.Value
	}
	panic("unexpected condition " + condition)
}

func (f *fakeTable) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	hook := f.beforeWrite
	f.beforeWrite = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}

	reasons := make([]types.CancellationReason, len(params.TransactItems))
	cancelled := false
	for i, ti := range params.TransactItems {
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
		var holds bool
		switch {
		case ti.Put != nil:
			holds = f.conditionHolds(aws.ToString(ti.Put.ConditionExpression), itemKey(ti.Put.Item), ti.Put.ExpressionAttributeValues)
		case ti.Delete != nil:
			holds = f.conditionHolds(aws.ToString(ti.Delete.ConditionExpression), itemKey(ti.Delete.Key), ti.Delete.ExpressionAttributeValues)
		}
		if !holds {
			reasons[i] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
			cancelled = true
		}
	}
	if cancelled {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, ti := range params.TransactItems {
		switch {
		case ti.Put != nil:
			f.items[itemKey(ti.Put.Item)] = ti.Put.Item
		case ti.Delete != nil:
			delete(f.items, itemKey(ti.Delete.Key))
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeTable) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := &dynamodb.ScanOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, map[string]types.AttributeValue{"PK": item["PK"], "SK": item["SK"]})
	}
	return out, nil
}

func (f *fakeTable) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++

	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for table, requests := range params.RequestItems {
		for _, req := range requests {
			if f.unprocessed > 0 {
				f.unprocessed--
				out.UnprocessedItems[table] = append(out.UnprocessedItems[table], req)
				continue
			}
			delete(f.items, itemKey(req.DeleteRequest.Key))
		}
	}
	return out, nil
}

func (f *fakeTable) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func newCollocation(t *testing.T, phrase string, offset time.Duration) *entities.Collocation {
	t.Helper()
	c, err := entities.NewCollocationAt(entities.Fields{Collocation: phrase, Meaning: "meaning of " + phrase},
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).Add(offset))
	require.NoError(t, err)
	return c
}

func TestItemMapping(t *testing.T) {
	c := newCollocation(t, "Strong Coffee", 1500*time.Nanosecond)
	c.Synonyms = "Bold Brew"

	item := toItem(c)
	assert.Equal(t, "COLLOCATION#"+c.ID.String(), item.PK)
	assert.Equal(t, "RECORD", item.SK)
	assert.Equal(t, "COLLOCATION", item.GSI1PK)
	assert.Equal(t, c.SortKey(), item.GSI1SK)
	assert.Equal(t, "strong coffee", item.SearchCollocation)
	assert.Equal(t, "bold brew", item.SearchSynonyms)

	av, err := attributevalue.MarshalMap(item)
	require.NoError(t, err)
	back, err := unmarshalRecord(av)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestCancellationClassification(t *testing.T) {
	cancelled := &types.TransactionCanceledException{
		Message: aws.String("Transaction cancelled"),
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	}
	wrapped := fmt.Errorf("operation error DynamoDB: TransactWriteItems: %w", cancelled)

	codes, ok := cancellationCodes(wrapped)
	require.True(t, ok)
	assert.Equal(t, []string{"None", "ConditionalCheckFailed"}, codes)

	assert.True(t, conditionFailedAt(wrapped, 1))
	assert.False(t, conditionFailedAt(wrapped, 0))
	assert.False(t, conditionFailedAt(wrapped, 5))
	assert.False(t, conditionFailedAt(errors.New("throttled"), 1))
}

func TestListQuery(t *testing.T) {
	repo := NewCollocationRepository(newFakeTable(), "vocabulary", 0, zap.NewNop())

	t.Run("no search has no filter", func(t *testing.T) {
		input, err := repo.listQuery("", ports.SortNewestFirst)
		require.NoError(t, err)
		assert.Equal(t, CreatedAtIndex, aws.ToString(input.IndexName))
		assert.Nil(t, input.FilterExpression)
		assert.False(t, aws.ToBool(input.ScanIndexForward))
	})

	t.Run("search is lowercased into the filter", func(t *testing.T) {
		input, err := repo.listQuery("Coffee", ports.SortOldestFirst)
		require.NoError(t, err)
		require.NotNil(t, input.FilterExpression)
		assert.True(t, aws.ToBool(input.ScanIndexForward))

		found := false
		for _, v := range input.ExpressionAttributeValues {
			if s, ok := v.(*types.AttributeValueMemberS); ok && s.Value == "coffee" {
				found = true
			}
		}
		assert.True(t, found, "lowercased needle bound as a value")
	})
}

func TestInsertOneDuplicate(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo := NewCollocationRepository(table, "vocabulary", 4, zap.NewNop())

	_, err := repo.InsertOne(ctx, newCollocation(t, "take action", 0))
	require.NoError(t, err)
	assert.Equal(t, 2, table.count(), "record and phrase marker")

	_, err = repo.InsertOne(ctx, newCollocation(t, "take action", time.Second))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsDuplicate(err))
	assert.Equal(t, 2, table.count())
}

func TestInsertManyCountsSkips(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo := NewCollocationRepository(table, "vocabulary", 4, zap.NewNop())

	_, err := repo.InsertOne(ctx, newCollocation(t, "take action", 0))
	require.NoError(t, err)

	result, err := repo.InsertMany(ctx, []*entities.Collocation{
		newCollocation(t, "take action", 1),
		newCollocation(t, "make progress", 2),
		newCollocation(t, "heavy rain", 3),
		newCollocation(t, "heavy rain", 4),
		newCollocation(t, "strong wind", 5),
	})
	require.NoError(t, err)
	assert.Equal(t, ports.BulkInsertResult{Inserted: 3, SkippedDuplicates: 2}, result)
	assert.Equal(t, 8, table.count())
}

func TestInsertManyAbortsOnStoreFailure(t *testing.T) {
	table := newFakeTable()
	table.failWith = errors.New("ProvisionedThroughputExceededException")
	repo := NewCollocationRepository(table, "vocabulary", 2, zap.NewNop())

	_, err := repo.InsertMany(context.Background(), []*entities.Collocation{
		newCollocation(t, "a", 0),
		newCollocation(t, "b", 1),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
}

func TestDeleteAllRetriesUnprocessed(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo := NewCollocationRepository(table, "vocabulary", 4, zap.NewNop())

	var batch []*entities.Collocation
	for i := 0; i < 20; i++ {
		batch = append(batch, newCollocation(t, fmt.Sprintf("phrase %d", i), time.Duration(i)))
	}
	result, err := repo.InsertMany(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 20, result.Inserted)

	table.unprocessed = 3
	deleted, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, deleted, "only records are counted, not phrase markers")
	assert.Equal(t, 0, table.count())
	assert.Greater(t, table.batchCalls, 2, "40 keys need two batches plus a retry")
}

func TestUpdateByIDRereadsAfterConcurrentRename(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo := NewCollocationRepository(table, "vocabulary", 4, zap.NewNop())

	original := newCollocation(t, "phrase a", 0)
	_, err := repo.InsertOne(ctx, original)
	require.NoError(t, err)

	// A second rename commits between this update's read and its write
	table.beforeWrite = func() {
		_, err := repo.UpdateByID(ctx, original.ID, entities.Fields{Collocation: "phrase b"})
		require.NoError(t, err)
	}

	updated, err := repo.UpdateByID(ctx, original.ID, entities.Fields{Collocation: "phrase c"})
	require.NoError(t, err)
	assert.Equal(t, "phrase c", updated.Collocation)
	assert.Equal(t, 2, table.count(), "one record and one marker")

	_, err = repo.InsertOne(ctx, newCollocation(t, "phrase b", time.Second))
	require.NoError(t, err, "the intermediate phrase is free again")

	_, err = repo.InsertOne(ctx, newCollocation(t, "phrase a", 2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 6, table.count())
}

func TestDeleteByIDRereadsAfterConcurrentRename(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo := NewCollocationRepository(table, "vocabulary", 4, zap.NewNop())

	original := newCollocation(t, "phrase a", 0)
	_, err := repo.InsertOne(ctx, original)
	require.NoError(t, err)

	table.beforeWrite = func() {
		_, err := repo.UpdateByID(ctx, original.ID, entities.Fields{Collocation: "phrase b"})
		require.NoError(t, err)
	}

	deleted, err := repo.DeleteByID(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, "phrase b", deleted.Collocation)
	assert.Equal(t, 0, table.count(), "no marker is left behind")
}

func TestUpdateByIDAfterConcurrentDelete(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo := NewCollocationRepository(table, "vocabulary", 4, zap.NewNop())

	original := newCollocation(t, "phrase a", 0)
	_, err := repo.InsertOne(ctx, original)
	require.NoError(t, err)

	table.beforeWrite = func() {
		_, err := repo.DeleteByID(ctx, original.ID)
		require.NoError(t, err)
	}

	_, err = repo.UpdateByID(ctx, original.ID, entities.Fields{Collocation: "phrase b"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, 0, table.count())
}

// TestCollocationRepositoryIntegration runs against DynamoDB Local when
// DYNAMODB_TEST_ENDPOINT is set, e.g. http://localhost:8000
func TestCollocationRepositoryIntegration(t *testing.T) {
	endpoint := os.Getenv("DYNAMODB_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("DYNAMODB_TEST_ENDPOINT not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "local", SecretAccessKey: "local"}, nil
		})),
	)
	require.NoError(t, err)
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	repo := NewCollocationRepository(client, "collocations-test-"+uuid.NewString()[:8], 4, zap.NewNop())
	require.NoError(t, repo.EnsureTable(ctx))
	require.NoError(t, repo.Ping(ctx))

	result, err := repo.InsertMany(ctx, []*entities.Collocation{
		newCollocation(t, "strong coffee", 0),
		newCollocation(t, "strong wind", time.Second),
		newCollocation(t, "heavy rain", 2*time.Second),
		newCollocation(t, "strong coffee", 3*time.Second),
	})
	require.NoError(t, err)
	assert.Equal(t, ports.BulkInsertResult{Inserted: 3, SkippedDuplicates: 1}, result)

	items, total, err := repo.FindAll(ctx, ports.ListOptions{Search: "STRONG", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "strong wind", items[0].Collocation)

	count, err := repo.CountMatching(ctx, "rain")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	exists, err := repo.FindExists(ctx, "COFFEE")
	require.NoError(t, err)
	assert.True(t, exists)

	updated, err := repo.UpdateByID(ctx, items[0].ID, entities.Fields{Collocation: "heavy rain"})
	assert.True(t, pkgerrors.IsDuplicate(err))
	assert.Nil(t, updated)

	updated, err = repo.UpdateByID(ctx, items[0].ID, entities.Fields{Collocation: "gentle breeze"})
	require.NoError(t, err)
	assert.Equal(t, "gentle breeze", updated.Collocation)

	deleted, err := repo.DeleteByID(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "gentle breeze", deleted.Collocation)

	removed, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}
