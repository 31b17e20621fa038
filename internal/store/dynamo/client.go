// Package dynamo implements the domain ledger store interfaces on DynamoDB.
// Every collection is one table; optimistic concurrency rides on a numeric
// "version" attribute enforced through condition expressions, which is the
// only coordination primitive the domain layer is allowed to use.
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// Tables names the six collection tables.
type Tables struct {
	Buyers           string
	Sellers          string
	Items            string
	Bids             string
	Purchases        string
	UnfreezeRequests string
}

// ClientConfig holds connection parameters for DynamoDB. Endpoint overrides
// the AWS endpoint for local development (dynamodb-local, LocalStack); static
// credentials are optional and fall back to the default provider chain.
type ClientConfig struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Tables    Tables
}

// Client wraps the DynamoDB SDK client together with the table names.
type Client struct {
	db     *dynamodb.Client
	tables Tables
}

// New creates a Client from the given configuration.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("dynamo: region is required")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("dynamo: load aws config: %w", err)
	}

	var dbOpts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		dbOpts = append(dbOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return &Client{
		db:     dynamodb.NewFromConfig(awsCfg, dbOpts...),
		tables: cfg.Tables,
	}, nil
}

// DB exposes the underlying SDK client.
func (c *Client) DB() *dynamodb.Client { return c.db }

// conditionFailed reports whether err is a failed condition expression, i.e.
// a lost optimistic race or a key collision, as opposed to an infrastructure
// failure.
func conditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// storeErr wraps a transient SDK failure so callers can match it against
// domain.ErrStoreUnavailable while keeping the SDK detail in the chain.
func storeErr(op string, err error) error {
	return fmt.Errorf("dynamo: %s: %w", op, errors.Join(domain.ErrStoreUnavailable, err))
}
