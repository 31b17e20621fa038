package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// putNew inserts a record that must not exist yet. attribute_not_exists on
// the key attribute is false for any existing item with the same full key, so
// the partition key name alone detects collisions.
func putNew(ctx context.Context, db *dynamodb.Client, table, keyAttr string, av map[string]types.AttributeValue) error {
	_, err := db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                av,
		ConditionExpression: aws.String(fmt.Sprintf("attribute_not_exists(%s)", keyAttr)),
	})
	if err != nil {
		if conditionFailed(err) {
			return domain.ErrAlreadyExists
		}
		return storeErr("put "+table, err)
	}
	return nil
}

// putVersioned replaces a record conditionally on its stored version matching
// expected. av must already carry version expected+1.
func putVersioned(ctx context.Context, db *dynamodb.Client, table string, av map[string]types.AttributeValue, expected int64) error {
	_, err := db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                av,
		ConditionExpression: aws.String("version = :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expected)},
		},
	})
	if err != nil {
		if conditionFailed(err) {
			return domain.ErrVersionConflict
		}
		return storeErr("put "+table, err)
	}
	return nil
}

// getItem fetches a record by key into out with a consistent read. A missing
// item maps to domain.ErrNotFound.
func getItem(ctx context.Context, db *dynamodb.Client, table string, key map[string]types.AttributeValue, out any) error {
	res, err := db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return storeErr("get "+table, err)
	}
	if res.Item == nil {
		return domain.ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("dynamo: unmarshal %s record: %w", table, err)
	}
	return nil
}

// queryPartition pages through all records under one partition key and
// unmarshals them into out, which must be a pointer to a slice.
func queryPartition(ctx context.Context, db *dynamodb.Client, table, keyAttr, keyValue string, out any) error {
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue

	for {
		res, err := db.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(table),
			KeyConditionExpression: aws.String(fmt.Sprintf("%s = :pk", keyAttr)),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: keyValue},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return storeErr("query "+table, err)
		}
		items = append(items, res.Items...)
		if res.LastEvaluatedKey == nil {
			break
		}
		startKey = res.LastEvaluatedKey
	}

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("dynamo: unmarshal %s records: %w", table, err)
	}
	return nil
}

func marshal(table string, rec any) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("dynamo: marshal %s record: %w", table, err)
	}
	return av, nil
}

func stringKey(attr, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attr: &types.AttributeValueMemberS{Value: value},
	}
}

func compositeKey(pkAttr, pk, skAttr, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkAttr: &types.AttributeValueMemberS{Value: pk},
		skAttr: &types.AttributeValueMemberS{Value: sk},
	}
}

// clamp applies ListOpts to an already-fetched slice. Partitions here are
// per-user and small, so post-fetch pagination is acceptable.
func clamp[T any](in []T, opts domain.ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(in) {
			return nil
		}
		in = in[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(in) {
		in = in[:opts.Limit]
	}
	return in
}
