package writer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBAPI abstracts the DynamoDB operations the client performs,
// allowing the real SDK client to be swapped for a fake in tests.
type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Client stages write and delete operations into wire-sized sub-batches and
// flushes them with bounded retry on unprocessed items.
//
// Staging is single-threaded; callers running concurrent producers must
// serialize PutBatch calls or shard by collection onto separate clients.
type Client struct {
	api      DynamoDBAPI
	cfg      Config
	registry *ProviderRegistry
	logger   *slog.Logger
	batch    *batch
}

// New creates a Client over an already-configured DynamoDB API.
func New(api DynamoDBAPI, cfg Config) *Client {
	cfg.validate()
	return &Client{
		api:    api,
		cfg:    cfg,
		logger: cfg.Logger,
		batch:  newBatch(),
	}
}

// NewWithRegistry creates a Client carrying a pluggable credentials provider
// registry. The registry only matters for clients built through
// NewFromConfig; it is kept here so a Client can be rebuilt from its own
// configuration.
func NewWithRegistry(api DynamoDBAPI, cfg Config, registry *ProviderRegistry) *Client {
	c := New(api, cfg)
	c.registry = registry
	return c
}

// NewFromConfig resolves credentials and proxy settings from cfg, builds the
// underlying DynamoDB client, and returns a Client over it. The network
// client is configured exactly once here and never reconfigured.
//
// registry may be nil when Config.CredentialsProvider is unset.
func NewFromConfig(ctx context.Context, cfg Config, registry *ProviderRegistry) (*Client, error) {
	cfg.validate()

	provider, err := resolveCredentials(cfg, registry)
	if err != nil {
		return nil, err
	}

	httpClient, err := httpClientFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if provider != nil {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.NewCredentialsCache(provider)))
	}
	if httpClient != nil {
		loadOpts = append(loadOpts, config.WithHTTPClient(httpClient))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("granary: load AWS config: %w", err)
	}

	api := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewWithRegistry(api, cfg, registry), nil
}

// LoadKeySchema discovers the key attribute names for collection from the
// live table when none were configured. Delete-mode projection and duplicate
// detection use the discovered schema afterwards.
func (c *Client) LoadKeySchema(ctx context.Context, collection string) error {
	if len(c.cfg.KeyAttributeNames) > 0 {
		return nil
	}

	out, err := c.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(collection),
	})
	if err != nil {
		return fmt.Errorf("granary: describe table %q: %w", collection, err)
	}
	if out.Table == nil || len(out.Table.KeySchema) == 0 {
		return fmt.Errorf("%w: table %q", ErrNoKeySchema, collection)
	}

	names := make([]string, 0, len(out.Table.KeySchema))
	for _, element := range out.Table.KeySchema {
		if element.AttributeName != nil {
			names = append(names, *element.AttributeName)
		}
	}
	c.cfg.KeyAttributeNames = names

	c.logger.Debug("loaded key schema",
		"collection", collection,
		"keys", names,
	)
	return nil
}

// KeyAttributeNames returns the key schema the client is currently using.
func (c *Client) KeyAttributeNames() []string {
	return c.cfg.KeyAttributeNames
}
