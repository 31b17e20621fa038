package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// ItemStore persists auction items in the items table, partitioned by
// sellerId with id as the sort key.
type ItemStore struct {
	c *Client
}

func NewItemStore(c *Client) *ItemStore {
	return &ItemStore{c: c}
}

func (s *ItemStore) Get(ctx context.Context, sellerID, id string) (domain.Item, error) {
	var it domain.Item
	err := getItem(ctx, s.c.db, s.c.tables.Items, compositeKey("sellerId", sellerID, "id", id), &it)
	return it, err
}

func (s *ItemStore) Create(ctx context.Context, it domain.Item) error {
	it.Version = 1
	av, err := marshal(s.c.tables.Items, it)
	if err != nil {
		return err
	}
	return putNew(ctx, s.c.db, s.c.tables.Items, "sellerId", av)
}

func (s *ItemStore) Update(ctx context.Context, it domain.Item, expectedVersion int64) error {
	it.Version = expectedVersion + 1
	av, err := marshal(s.c.tables.Items, it)
	if err != nil {
		return err
	}
	return putVersioned(ctx, s.c.db, s.c.tables.Items, av, expectedVersion)
}

func (s *ItemStore) ListBySeller(ctx context.Context, sellerID string, opts domain.ListOpts) ([]domain.Item, error) {
	var items []domain.Item
	if err := queryPartition(ctx, s.c.db, s.c.tables.Items, "sellerId", sellerID, &items); err != nil {
		return nil, err
	}
	return clamp(items, opts), nil
}

// ListListed scans for items currently open for bidding. The catalog is small
// relative to the ledger tables, so a filtered scan is acceptable here.
func (s *ItemStore) ListListed(ctx context.Context, opts domain.ListOpts) ([]domain.Item, error) {
	var raw []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue

	for {
		res, err := s.c.db.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(s.c.tables.Items),
			FilterExpression: aws.String("#st = :listed"),
			ExpressionAttributeNames: map[string]string{
				"#st": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":listed": &types.AttributeValueMemberS{Value: string(domain.ItemStatusListed)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, storeErr("scan "+s.c.tables.Items, err)
		}
		raw = append(raw, res.Items...)
		if res.LastEvaluatedKey == nil {
			break
		}
		startKey = res.LastEvaluatedKey
	}

	var items []domain.Item
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, storeErr("unmarshal "+s.c.tables.Items, err)
	}
	return clamp(items, opts), nil
}
