package requests

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBAPI is the subset of the DynamoDB client the store uses
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBRequestStore implements RequestStore on a DynamoDB table keyed by "id"
type DynamoDBRequestStore struct {
	client    DynamoDBAPI
	tableName string
}

// NewDynamoDBRequestStore creates a DynamoDB-backed RequestStore
func NewDynamoDBRequestStore(client DynamoDBAPI, tableName string) *DynamoDBRequestStore {
	return &DynamoDBRequestStore{
		client:    client,
		tableName: tableName,
	}
}

// Add writes the request unless an item with the same id exists
func (s *DynamoDBRequestStore) Add(ctx context.Context, req *Request) error {
	if s.client == nil {
		return fmt.Errorf("DynamoDB client not initialized")
	}

	item, err := attributevalue.MarshalMap(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})

	var condErr *dynamodbtypes.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("request %s: %w", req.ID, ErrDuplicateID)
	}
	if err != nil {
		return fmt.Errorf("failed to put request: %w", err)
	}

	return nil
}

// List scans the table and sorts newest first.
// Scan order is arbitrary, so equal timestamps fall back to id order.
func (s *DynamoDBRequestStore) List(ctx context.Context) ([]*Request, error) {
	if s.client == nil {
		return nil, fmt.Errorf("DynamoDB client not initialized")
	}

	list := []*Request{}
	var startKey map[string]dynamodbtypes.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan requests: %w", err)
		}

		var page []*Request
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal requests: %w", err)
		}
		list = append(list, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sortByMintOrder(list)
	SortNewestFirst(list)
	return list, nil
}

// Get fetches one request by id
func (s *DynamoDBRequestStore) Get(ctx context.Context, id string) (*Request, error) {
	if s.client == nil {
		return nil, fmt.Errorf("DynamoDB client not initialized")
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]dynamodbtypes.AttributeValue{
			"id": &dynamodbtypes.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}

	var r Request
	if err := attributevalue.UnmarshalMap(out.Item, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}
	return &r, nil
}

// sortByMintOrder restores insertion order from the ids, since Scan returns
// items in hash order. SortNewestFirst then keeps that order on ties.
func sortByMintOrder(reqs []*Request) {
	sort.SliceStable(reqs, func(i, j int) bool { return mintedBefore(reqs[i].ID, reqs[j].ID) })
}
