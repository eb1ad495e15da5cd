package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// API is the surface of the AWS SDK DynamoDB client consumed by this
// package. It exists so operations can be tested against a mock.
type API interface {
	CreateTable(ctx context.Context, params *awsdynamodb.CreateTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *awsdynamodb.DeleteTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DeleteTableOutput, error)
	DescribeTable(ctx context.Context, params *awsdynamodb.DescribeTableInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DescribeTableOutput, error)
	PutItem(ctx context.Context, params *awsdynamodb.PutItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *awsdynamodb.GetItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *awsdynamodb.DeleteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *awsdynamodb.BatchWriteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.BatchWriteItemOutput, error)
}

// Compile-time check that the real SDK client satisfies the interface.
var _ API = (*awsdynamodb.Client)(nil)

// clientConfig holds the configuration assembled from Option values.
type clientConfig struct {
	region          string
	endpoint        string
	customAWSConfig *aws.Config
}

// Option configures the DynamoDB client during construction.
type Option func(*clientConfig)

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(c *clientConfig) {
		c.region = region
	}
}

// WithEndpoint sets a custom endpoint, e.g. a DynamoDB Local URL.
func WithEndpoint(endpoint string) Option {
	return func(c *clientConfig) {
		c.endpoint = endpoint
	}
}

// WithAWSConfig provides a pre-configured AWS config, bypassing the default
// credential chain.
func WithAWSConfig(cfg *aws.Config) Option {
	return func(c *clientConfig) {
		c.customAWSConfig = cfg
	}
}

// Client is a DynamoDB connector handle. It is safe for concurrent use.
type Client struct {
	api API
}

// New creates a DynamoDB client using the AWS credential chain.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	var awsCfg aws.Config
	if cfg.customAWSConfig != nil {
		awsCfg = *cfg.customAWSConfig
	} else {
		var err error
		awsCfg, err = config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
	}

	if cfg.region != "" {
		awsCfg.Region = cfg.region
	}

	var clientOpts []func(*awsdynamodb.Options)
	if cfg.endpoint != "" {
		endpoint := cfg.endpoint
		clientOpts = append(clientOpts, func(o *awsdynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &Client{
		api: awsdynamodb.NewFromConfig(awsCfg, clientOpts...),
	}, nil
}

// NewWithClient creates a Client with a pre-configured SDK client.
// Intended for testing with mocks and for sharing SDK clients across
// connectors.
func NewWithClient(api API) *Client {
	return &Client{api: api}
}
