package writer_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/granary/writer"
)

// fakeDynamo implements writer.DynamoDBAPI for tests.
type fakeDynamo struct {
	batchWrite func(*dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error)
	describe   func(*dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error)

	batchWriteCalls int
	describeCalls   int
	inputs          []*dynamodb.BatchWriteItemInput
}

func (f *fakeDynamo) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.batchWriteCalls++
	f.inputs = append(f.inputs, params)
	if f.batchWrite == nil {
		return &dynamodb.BatchWriteItemOutput{}, nil
	}
	return f.batchWrite(params)
}

func (f *fakeDynamo) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.describeCalls++
	if f.describe == nil {
		return &dynamodb.DescribeTableOutput{}, nil
	}
	return f.describe(params)
}

// testConfig keeps flush retries cheap and backoff negligible in tests.
func testConfig() writer.Config {
	cfg := writer.DefaultConfig()
	cfg.MaxFlushRetries = 2
	cfg.MaxBackoff = time.Millisecond
	return cfg
}

func strItem(pairs ...string) writer.Item {
	item := writer.Item{}
	for i := 0; i+1 < len(pairs); i += 2 {
		item[pairs[i]] = &types.AttributeValueMemberS{Value: pairs[i+1]}
	}
	return item
}

// --- Config Tests ---

func TestDefaultConfig(t *testing.T) {
	cfg := writer.DefaultConfig()

	if cfg.MaxItemSize != writer.DefaultMaxItemSize {
		t.Errorf("expected MaxItemSize %d, got %d", writer.DefaultMaxItemSize, cfg.MaxItemSize)
	}
	if cfg.MaxBatchSize != writer.DefaultMaxBatchSize {
		t.Errorf("expected MaxBatchSize %d, got %d", writer.DefaultMaxBatchSize, cfg.MaxBatchSize)
	}
	if cfg.MaxFlushRetries != writer.DefaultMaxFlushRetries {
		t.Errorf("expected MaxFlushRetries %d, got %d", writer.DefaultMaxFlushRetries, cfg.MaxFlushRetries)
	}
	if cfg.MaxBackoff != writer.DefaultMaxBackoff {
		t.Errorf("expected MaxBackoff %v, got %v", writer.DefaultMaxBackoff, cfg.MaxBackoff)
	}
}

func TestNew_ZeroConfigGetsDefaults(t *testing.T) {
	c := writer.New(&fakeDynamo{}, writer.Config{})
	if c == nil {
		t.Fatal("expected non-nil Client")
	}

	// A zero config must still accept a normal item.
	if err := c.PutBatch("records", strItem("id", "1"), 0, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Pending() != 1 {
		t.Errorf("expected 1 pending operation, got %d", c.Pending())
	}
}

func TestSplitKeyNames(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"single", "id", []string{"id"}},
		{"pair", "pk,sk", []string{"pk", "sk"}},
		{"whitespace", " pk , sk ", []string{"pk", "sk"}},
		{"blank entries dropped", "pk,,sk,", []string{"pk", "sk"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := writer.SplitKeyNames(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// --- LoadKeySchema Tests ---

func TestLoadKeySchema_DiscoversFromTable(t *testing.T) {
	fake := &fakeDynamo{
		describe: func(in *dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error) {
			return &dynamodb.DescribeTableOutput{
				Table: &types.TableDescription{
					KeySchema: []types.KeySchemaElement{
						{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
						{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
					},
				},
			}, nil
		},
	}
	c := writer.New(fake, testConfig())

	if err := c.LoadKeySchema(context.Background(), "records"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.KeyAttributeNames(); !reflect.DeepEqual(got, []string{"pk", "sk"}) {
		t.Errorf("expected [pk sk], got %v", got)
	}

	// Second call is a no-op once the schema is known.
	if err := c.LoadKeySchema(context.Background(), "records"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.describeCalls != 1 {
		t.Errorf("expected 1 DescribeTable call, got %d", fake.describeCalls)
	}
}

func TestLoadKeySchema_ConfiguredSchemaSkipsLookup(t *testing.T) {
	fake := &fakeDynamo{}
	cfg := testConfig()
	cfg.KeyAttributeNames = []string{"id"}
	c := writer.New(fake, cfg)

	if err := c.LoadKeySchema(context.Background(), "records"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.describeCalls != 0 {
		t.Errorf("expected no DescribeTable calls, got %d", fake.describeCalls)
	}
}

func TestLoadKeySchema_MissingSchema(t *testing.T) {
	fake := &fakeDynamo{
		describe: func(in *dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error) {
			return &dynamodb.DescribeTableOutput{}, nil
		},
	}
	c := writer.New(fake, testConfig())

	err := c.LoadKeySchema(context.Background(), "records")
	if !errors.Is(err, writer.ErrNoKeySchema) {
		t.Fatalf("expected ErrNoKeySchema, got %v", err)
	}
}

// --- NewItem Tests ---

func TestNewItem(t *testing.T) {
	type record struct {
		ID    string `dynamodbav:"id"`
		Count int    `dynamodbav:"count"`
	}

	item, err := writer.NewItem(record{ID: "r1", Count: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, ok := item["id"].(*types.AttributeValueMemberS); !ok || v.Value != "r1" {
		t.Error("expected id to be 'r1'")
	}
	if v, ok := item["count"].(*types.AttributeValueMemberN); !ok || v.Value != "7" {
		t.Error("expected count to be '7'")
	}
}
