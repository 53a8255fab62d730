package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DefaultMaxRetries is the number of times Publish retries after losing a race.
const DefaultMaxRetries = 3

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// DynamoLedger implements Ledger on a DynamoDB table keyed by
// (topic HASH, version RANGE).
//
// DynamoDB conditional writes provide the compare-and-swap that object
// stores lack: a version is only written if it does not exist yet.
type DynamoLedger struct {
	client     DDBClient
	tableName  string
	maxRetries int
	now        func() time.Time
}

// DynamoOption configures a DynamoLedger.
type DynamoOption func(*DynamoLedger)

// WithMaxRetries sets how often Publish retries after a conflict.
func WithMaxRetries(n int) DynamoOption {
	return func(l *DynamoLedger) {
		if n >= 0 {
			l.maxRetries = n
		}
	}
}

// NewDynamoLedger creates a ledger on an existing client.
func NewDynamoLedger(client DDBClient, tableName string, optFns ...DynamoOption) *DynamoLedger {
	l := &DynamoLedger{
		client:     client,
		tableName:  tableName,
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
	}
	for _, fn := range optFns {
		fn(l)
	}
	return l
}

// NewDynamoLedgerFromEnv loads the default AWS configuration and creates a
// DynamoLedger.
func NewDynamoLedgerFromEnv(ctx context.Context, tableName, region string, optFns ...DynamoOption) (*DynamoLedger, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("ledger: load aws config: %w", err)
	}
	return NewDynamoLedger(dynamodb.NewFromConfig(cfg), tableName, optFns...), nil
}

// Publish implements Ledger.
func (l *DynamoLedger) Publish(ctx context.Context, e Entry) (Entry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now()
	}

	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		current, err := l.Latest(ctx, e.Topic)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Entry{}, err
		}

		e.Version = current.Version + 1
		_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(l.tableName),
			Item:                marshalEntry(e),
			ConditionExpression: aws.String("attribute_not_exists(version)"),
		})
		if err == nil {
			return e, nil
		}

		var condErr *types.ConditionalCheckFailedException
		if !errors.As(err, &condErr) {
			return Entry{}, fmt.Errorf("ledger: put item: %w", err)
		}
	}

	return Entry{}, ErrConcurrentModification
}

// Latest implements Ledger.
func (l *DynamoLedger) Latest(ctx context.Context, topic string) (Entry, error) {
	resp, err := l.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(l.tableName),
		KeyConditionExpression: aws.String("topic = :topic"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":topic": &types.AttributeValueMemberS{Value: topic},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: query: %w", err)
	}
	if len(resp.Items) == 0 {
		return Entry{}, ErrNotFound
	}
	return unmarshalEntry(resp.Items[0])
}

// Get implements Ledger.
func (l *DynamoLedger) Get(ctx context.Context, topic string, version uint64) (Entry, error) {
	resp, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"topic":   &types.AttributeValueMemberS{Value: topic},
			"version": &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: get item: %w", err)
	}
	if len(resp.Item) == 0 {
		return Entry{}, ErrNotFound
	}
	return unmarshalEntry(resp.Item)
}

func marshalEntry(e Entry) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"topic":             &types.AttributeValueMemberS{Value: e.Topic},
		"version":           &types.AttributeValueMemberN{Value: strconv.FormatUint(e.Version, 10)},
		"run_id":            &types.AttributeValueMemberS{Value: e.RunID},
		"output":            &types.AttributeValueMemberS{Value: e.Output},
		"nodes":             &types.AttributeValueMemberN{Value: strconv.Itoa(e.Nodes)},
		"iterations":        &types.AttributeValueMemberN{Value: strconv.Itoa(e.Iterations)},
		"total_rank_change": &types.AttributeValueMemberN{Value: strconv.FormatFloat(e.TotalRankChange, 'g', -1, 64)},
		"converged":         &types.AttributeValueMemberBOOL{Value: e.Converged},
		"created_at":        &types.AttributeValueMemberS{Value: e.CreatedAt.UTC().Format(time.RFC3339Nano)},
	}
}

func unmarshalEntry(item map[string]types.AttributeValue) (Entry, error) {
	var (
		e   Entry
		err error
	)

	str := func(name string) string {
		if err != nil {
			return ""
		}
		v, ok := item[name].(*types.AttributeValueMemberS)
		if !ok {
			err = fmt.Errorf("ledger: invalid %s attribute", name)
			return ""
		}
		return v.Value
	}
	num := func(name string) string {
		if err != nil {
			return "0"
		}
		v, ok := item[name].(*types.AttributeValueMemberN)
		if !ok {
			err = fmt.Errorf("ledger: invalid %s attribute", name)
			return "0"
		}
		return v.Value
	}

	e.Topic = str("topic")
	e.RunID = str("run_id")
	e.Output = str("output")
	createdAt := str("created_at")
	version := num("version")
	nodes := num("nodes")
	iterations := num("iterations")
	change := num("total_rank_change")
	if err != nil {
		return Entry{}, err
	}

	if e.Version, err = strconv.ParseUint(version, 10, 64); err != nil {
		return Entry{}, fmt.Errorf("ledger: parse version: %w", err)
	}
	if e.Nodes, err = strconv.Atoi(nodes); err != nil {
		return Entry{}, fmt.Errorf("ledger: parse nodes: %w", err)
	}
	if e.Iterations, err = strconv.Atoi(iterations); err != nil {
		return Entry{}, fmt.Errorf("ledger: parse iterations: %w", err)
	}
	if e.TotalRankChange, err = strconv.ParseFloat(change, 64); err != nil {
		return Entry{}, fmt.Errorf("ledger: parse total_rank_change: %w", err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Entry{}, fmt.Errorf("ledger: parse created_at: %w", err)
	}
	if v, ok := item["converged"].(*types.AttributeValueMemberBOOL); ok {
		e.Converged = v.Value
	}
	return e, nil
}
