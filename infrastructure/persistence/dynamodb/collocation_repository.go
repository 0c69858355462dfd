package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"collocation-backend/application/ports"
	"collocation-backend/domain/core/entities"
	"collocation-backend/domain/core/valueobjects"
	pkgerrors "collocation-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// CreatedAtIndex lists every record of the table in creation order
	CreatedAtIndex = "CreatedAtIndex"

	recordPartition = "COLLOCATION"
	recordSK        = "RECORD"
	phraseSK        = "UNIQUE"

	entityTypeRecord = "COLLOCATION"
	entityTypePhrase = "PHRASE"

	// DynamoDB limit is 25 items per batch
	batchWriteLimit   = 25
	maxBatchRetries   = 5
	defaultBulkWorker = 8
)

// API is the subset of the DynamoDB client the repository uses
type API interface {
	dynamodb.QueryAPIClient
	dynamodb.ScanAPIClient
	dynamodb.DescribeTableAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// CollocationRepository implements ports.CollocationRepository using DynamoDB.
// Uniqueness of the phrase is enforced by a marker item written in the same
// transaction as the record.
type CollocationRepository struct {
	client      API
	tableName   string
	concurrency int
	logger      *zap.Logger
}

var _ ports.CollocationRepository = (*CollocationRepository)(nil)

// NewCollocationRepository creates a new CollocationRepository.
// concurrency bounds the parallel writes of a bulk insert.
func NewCollocationRepository(client API, tableName string, concurrency int, logger *zap.Logger) *CollocationRepository {
	if concurrency <= 0 {
		concurrency = defaultBulkWorker
	}
	return &CollocationRepository{
		client:      client,
		tableName:   tableName,
		concurrency: concurrency,
		logger:      logger,
	}
}

// collocationItem represents the DynamoDB item structure for a record
type collocationItem struct {
	PK         string `dynamodbav:"PK"`          // COLLOCATION#<id>
	SK         string `dynamodbav:"SK"`          // RECORD
	GSI1PK     string `dynamodbav:"GSI1PK"`      // COLLOCATION
	GSI1SK     string `dynamodbav:"GSI1SK"`      // <createdAt>#<id>
	EntityType string `dynamodbav:"EntityType"`
	ID         string `dynamodbav:"ID"`

	Collocation string `dynamodbav:"Collocation"`
	IPA         string `dynamodbav:"IPA"`
	Meaning     string `dynamodbav:"Meaning"`
	Synonyms    string `dynamodbav:"Synonyms"`
	CreatedAt   string `dynamodbav:"CreatedAt"`

	// Lowercase shadows for case-insensitive contains() filters
	SearchCollocation string `dynamodbav:"SearchCollocation"`
	SearchMeaning     string `dynamodbav:"SearchMeaning"`
	SearchSynonyms    string `dynamodbav:"SearchSynonyms"`
}

// phraseItem reserves a phrase for one record
type phraseItem struct {
	PK         string `dynamodbav:"PK"` // PHRASE#<collocation>
	SK         string `dynamodbav:"SK"` // UNIQUE
	EntityType string `dynamodbav:"EntityType"`
	ID         string `dynamodbav:"ID"`
}

func recordPK(id string) string {
	return fmt.Sprintf("COLLOCATION#%s", id)
}

func phrasePK(phrase string) string {
	return fmt.Sprintf("PHRASE#%s", phrase)
}

func recordKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: recordPK(id)},
		"SK": &types.AttributeValueMemberS{Value: recordSK},
	}
}

func phraseKey(phrase string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: phrasePK(phrase)},
		"SK": &types.AttributeValueMemberS{Value: phraseSK},
	}
}

func toItem(c *entities.Collocation) collocationItem {
	id := c.ID.String()
	return collocationItem{
		PK:                recordPK(id),
		SK:                recordSK,
		GSI1PK:            recordPartition,
		GSI1SK:            c.SortKey(),
		EntityType:        entityTypeRecord,
		ID:                id,
		Collocation:       c.Collocation,
		IPA:               c.IPA,
		Meaning:           c.Meaning,
		Synonyms:          c.Synonyms,
		CreatedAt:         c.CreatedAt.UTC().Format(time.RFC3339Nano),
		SearchCollocation: strings.ToLower(c.Collocation),
		SearchMeaning:     strings.ToLower(c.Meaning),
		SearchSynonyms:    strings.ToLower(c.Synonyms),
	}
}

func fromItem(item collocationItem) (*entities.Collocation, error) {
	id, err := valueobjects.NewCollocationIDFromString(item.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt collocation item %s: %w", item.PK, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("corrupt createdAt on %s: %w", item.PK, err)
	}

	return &entities.Collocation{
		ID:          id,
		Collocation: item.Collocation,
		IPA:         item.IPA,
		Meaning:     item.Meaning,
		Synonyms:    item.Synonyms,
		CreatedAt:   createdAt.UTC(),
	}, nil
}

func unmarshalRecord(av map[string]types.AttributeValue) (*entities.Collocation, error) {
	var item collocationItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collocation: %w", err)
	}
	return fromItem(item)
}

// cancellationCodes returns the per-item reason codes of a cancelled transaction
func cancellationCodes(err error) ([]string, bool) {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return nil, false
	}

	codes := make([]string, len(canceled.CancellationReasons))
	for i, reason := range canceled.CancellationReasons {
		codes[i] = aws.ToString(reason.Code)
	}
	return codes, true
}

// conditionFailedAt reports whether the transaction was cancelled because
// the condition on item index failed
func conditionFailedAt(err error, index int) bool {
	codes, ok := cancellationCodes(err)
	return ok && index < len(codes) && codes[index] == "ConditionalCheckFailed"
}

// InsertMany writes the batch with bounded parallelism. Repeated phrases
// within the batch and phrases already stored are skipped.
func (r *CollocationRepository) InsertMany(ctx context.Context, records []*entities.Collocation) (ports.BulkInsertResult, error) {
	var inserted, skipped atomic.Int64

	seen := make(map[string]struct{}, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, record := range records {
		if _, dup := seen[record.Collocation]; dup {
			skipped.Add(1)
			continue
		}
		seen[record.Collocation] = struct{}{}

		g.Go(func() error {
			if _, err := r.InsertOne(gctx, record); err != nil {
				if pkgerrors.IsDuplicate(err) {
					skipped.Add(1)
					return nil
				}
				return err
			}
			inserted.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Error("Bulk insert aborted",
			zap.Error(err),
			zap.Int64("inserted", inserted.Load()),
		)
		return ports.BulkInsertResult{}, err
	}

	return ports.BulkInsertResult{
		Inserted:          int(inserted.Load()),
		SkippedDuplicates: int(skipped.Load()),
	}, nil
}

// InsertOne writes the record and its phrase marker in one transaction
func (r *CollocationRepository) InsertOne(ctx context.Context, record *entities.Collocation) (*entities.Collocation, error) {
	recordAV, err := attributevalue.MarshalMap(toItem(record))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collocation: %w", err)
	}
	phraseAV, err := attributevalue.MarshalMap(phraseItem{
		PK:         phrasePK(record.Collocation),
		SK:         phraseSK,
		EntityType: entityTypePhrase,
		ID:         record.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal phrase marker: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                recordAV,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                phraseAV,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
		},
	})
	if err != nil {
		if conditionFailedAt(err, 1) {
			return nil, pkgerrors.NewDuplicateError(record.Collocation)
		}
		r.logger.Error("Failed to insert collocation",
			zap.Error(err),
			zap.String("id", record.ID.String()),
		)
		return nil, pkgerrors.NewDatabaseError("insert collocation", err)
	}

	return record.Clone(), nil
}

// listQuery builds a query over the creation index with an optional search filter
func (r *CollocationRepository) listQuery(search string, sort ports.SortOrder) (*dynamodb.QueryInput, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value(recordPartition)))
	if filter, ok := searchFilter(search); ok {
		builder = builder.WithFilter(filter)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	return &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(CreatedAtIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(sort == ports.SortOldestFirst),
	}, nil
}

// searchFilter matches the lowercase shadows of phrase, meaning and synonyms
func searchFilter(search string) (expression.ConditionBuilder, bool) {
	if search == "" {
		return expression.ConditionBuilder{}, false
	}
	needle := strings.ToLower(search)
	return expression.Contains(expression.Name("SearchCollocation"), needle).Or(
		expression.Contains(expression.Name("SearchMeaning"), needle),
		expression.Contains(expression.Name("SearchSynonyms"), needle),
	), true
}

// FindAll pages through the creation index, keeping only the requested window
func (r *CollocationRepository) FindAll(ctx context.Context, opts ports.ListOptions) ([]*entities.Collocation, int, error) {
	input, err := r.listQuery(opts.Search, opts.Sort)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*entities.Collocation, 0)
	total := 0

	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, 0, pkgerrors.NewDatabaseError("find collocations", err)
		}

		for _, av := range page.Items {
			total++
			if total <= opts.Skip || (opts.Limit > 0 && len(items) >= opts.Limit) {
				continue
			}
			record, err := unmarshalRecord(av)
			if err != nil {
				return nil, 0, pkgerrors.NewDatabaseError("find collocations", err)
			}
			items = append(items, record)
		}
	}

	return items, total, nil
}

// CountMatching counts matching records without fetching them
func (r *CollocationRepository) CountMatching(ctx context.Context, search string) (int, error) {
	input, err := r.listQuery(search, ports.SortOldestFirst)
	if err != nil {
		return 0, err
	}
	input.Select = types.SelectCount

	count := 0
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, pkgerrors.NewDatabaseError("count collocations", err)
		}
		count += int(page.Count)
	}

	return count, nil
}

// FindExists stops at the first page holding a phrase match
func (r *CollocationRepository) FindExists(ctx context.Context, phraseSubstring string) (bool, error) {
	if phraseSubstring == "" {
		count, err := r.CountMatching(ctx, "")
		return count > 0, err
	}

	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value(recordPartition))).
		WithFilter(expression.Contains(expression.Name("SearchCollocation"), strings.ToLower(phraseSubstring))).
		WithProjection(expression.NamesList(expression.Name("ID"))).
		Build()
	if err != nil {
		return false, fmt.Errorf("failed to build query expression: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(CreatedAtIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return false, pkgerrors.NewDatabaseError("check collocation", err)
		}
		if len(page.Items) > 0 {
			return true, nil
		}
	}

	return false, nil
}

func (r *CollocationRepository) getRecord(ctx context.Context, id valueobjects.CollocationID) (*entities.Collocation, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            recordKey(id.String()),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get collocation", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("collocation")
	}

	record, err := unmarshalRecord(result.Item)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get collocation", err)
	}
	return record, nil
}

// recordUnchanged guards a write against a record that changed after it was read
const recordUnchanged = "attribute_exists(PK) AND Collocation = :expected"

// maxWriteAttempts bounds the re-reads after a concurrent change to the record
const maxWriteAttempts = 3

var errConcurrentWrite = errors.New("record changed concurrently")

func expectedPhrase(phrase string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		":expected": &types.AttributeValueMemberS{Value: phrase},
	}
}

// UpdateByID replaces the editable fields. A phrase change moves the marker
// in the same transaction as the record write. The write only commits if the
// stored phrase is still the one read; otherwise the record is read again.
func (r *CollocationRepository) UpdateByID(ctx context.Context, id valueobjects.CollocationID, fields entities.Fields) (*entities.Collocation, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		record, err := r.updateOnce(ctx, id, fields)
		if !errors.Is(err, errConcurrentWrite) {
			return record, err
		}
		r.logger.Debug("Collocation changed during update, retrying",
			zap.String("id", id.String()),
			zap.Int("attempt", attempt),
		)
	}
	return nil, pkgerrors.NewDatabaseError("update collocation", errConcurrentWrite)
}

func (r *CollocationRepository) updateOnce(ctx context.Context, id valueobjects.CollocationID, fields entities.Fields) (*entities.Collocation, error) {
	record, err := r.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	oldPhrase := record.Collocation
	if err := record.Apply(fields); err != nil {
		return nil, err
	}

	recordAV, err := attributevalue.MarshalMap(toItem(record))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collocation: %w", err)
	}

	transactItems := []types.TransactWriteItem{
		{Put: &types.Put{
			TableName:                 aws.String(r.tableName),
			Item:                      recordAV,
			ConditionExpression:       aws.String(recordUnchanged),
			ExpressionAttributeValues: expectedPhrase(oldPhrase),
		}},
	}

	if record.Collocation != oldPhrase {
		phraseAV, err := attributevalue.MarshalMap(phraseItem{
			PK:         phrasePK(record.Collocation),
			SK:         phraseSK,
			EntityType: entityTypePhrase,
			ID:         id.String(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal phrase marker: %w", err)
		}

		transactItems = append(transactItems,
			types.TransactWriteItem{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                phraseAV,
				ConditionExpression: aws.String("attribute_not_exists(PK)"),
			}},
			types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key:       phraseKey(oldPhrase),
			}},
		)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: transactItems})
	if err != nil {
		switch {
		case conditionFailedAt(err, 0):
			return nil, errConcurrentWrite
		case conditionFailedAt(err, 1):
			return nil, pkgerrors.NewDuplicateError(record.Collocation)
		}
		return nil, pkgerrors.NewDatabaseError("update collocation", err)
	}

	return record, nil
}

// DeleteByID removes the record together with its phrase marker, under the
// same read-then-conditional-write rule as UpdateByID
func (r *CollocationRepository) DeleteByID(ctx context.Context, id valueobjects.CollocationID) (*entities.Collocation, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		record, err := r.deleteOnce(ctx, id)
		if !errors.Is(err, errConcurrentWrite) {
			return record, err
		}
		r.logger.Debug("Collocation changed during delete, retrying",
			zap.String("id", id.String()),
			zap.Int("attempt", attempt),
		)
	}
	return nil, pkgerrors.NewDatabaseError("delete collocation", errConcurrentWrite)
}

func (r *CollocationRepository) deleteOnce(ctx context.Context, id valueobjects.CollocationID) (*entities.Collocation, error) {
	record, err := r.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:                 aws.String(r.tableName),
				Key:                       recordKey(id.String()),
				ConditionExpression:       aws.String(recordUnchanged),
				ExpressionAttributeValues: expectedPhrase(record.Collocation),
			}},
			{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key:       phraseKey(record.Collocation),
			}},
		},
	})
	if err != nil {
		if conditionFailedAt(err, 0) {
			return nil, errConcurrentWrite
		}
		return nil, pkgerrors.NewDatabaseError("delete collocation", err)
	}

	return record, nil
}

// DeleteAll scans every key and removes them in batches
func (r *CollocationRepository) DeleteAll(ctx context.Context) (int, error) {
	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name("PK"), expression.Name("SK"))).
		Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build scan expression: %w", err)
	}

	var requests []types.WriteRequest
	records := 0

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                aws.String(r.tableName),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, pkgerrors.NewDatabaseError("delete all collocations", err)
		}
		for _, key := range page.Items {
			if sk, ok := key["SK"].(*types.AttributeValueMemberS); ok && sk.Value == recordSK {
				records++
			}
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key},
			})
		}
	}

	for i := 0; i < len(requests); i += batchWriteLimit {
		end := i + batchWriteLimit
		if end > len(requests) {
			end = len(requests)
		}
		if err := r.writeBatch(ctx, requests[i:end]); err != nil {
			return 0, pkgerrors.NewDatabaseError("delete all collocations", err)
		}
	}

	r.logger.Info("Deleted all collocations",
		zap.String("table", r.tableName),
		zap.Int("deletedCount", records),
	)
	return records, nil
}

// writeBatch retries unprocessed items with a growing backoff
func (r *CollocationRepository) writeBatch(ctx context.Context, batch []types.WriteRequest) error {
	pending := batch
	backoff := 50 * time.Millisecond

	for attempt := 0; attempt <= maxBatchRetries; attempt++ {
		result, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: pending},
		})
		if err != nil {
			return fmt.Errorf("failed to write batch: %w", err)
		}

		pending = result.UnprocessedItems[r.tableName]
		if len(pending) == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return fmt.Errorf("failed to write %d items after %d retries", len(pending), maxBatchRetries)
}

// Ping checks that the table is reachable
func (r *CollocationRepository) Ping(ctx context.Context) error {
	if _, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.tableName),
	}); err != nil {
		return pkgerrors.NewDatabaseError("describe table", err)
	}
	return nil
}

// EnsureTable creates the table and its creation index when missing,
// then waits for it to become active
func (r *CollocationRepository) EnsureTable(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.tableName),
	})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table %s: %w", r.tableName, err)
	}

	r.logger.Info("Creating collocation table", zap.String("table", r.tableName))

	_, err = r.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(r.tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("GSI1PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("GSI1SK"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(CreatedAtIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("GSI1PK"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("GSI1SK"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("failed to create table %s: %w", r.tableName, err)
		}
	}

	waiter := dynamodb.NewTableExistsWaiter(r.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.tableName)}, 2*time.Minute); err != nil {
		return fmt.Errorf("table %s did not become active: %w", r.tableName, err)
	}
	return nil
}
