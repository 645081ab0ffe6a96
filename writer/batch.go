package writer

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/granary/internal/itemsize"
)

// Item is one record's attribute map, as sent on the wire.
type Item map[string]types.AttributeValue

// NewItem marshals a Go value into an Item using the SDK attributevalue
// conventions (struct tags, map keys, etc.).
func NewItem(v any) (Item, error) {
	m, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("granary: marshal item: %w", err)
	}
	return Item(m), nil
}

// batch accumulates write operations per collection, partitioned into
// sub-batches that each fit a single BatchWriteItem request. Staging is
// not safe for concurrent use; callers serialize or shard by collection.
type batch struct {
	subBatches map[string][][]types.WriteRequest

	// pendingKeys tracks the key fingerprints present in each collection's
	// in-progress (last) sub-batch, for eager duplicate detection.
	pendingKeys map[string]map[string]struct{}

	count int
	units int
}

func newBatch() *batch {
	return &batch{
		subBatches:  make(map[string][][]types.WriteRequest),
		pendingKeys: make(map[string]map[string]struct{}),
	}
}

// add appends a request to the collection's current sub-batch, starting a
// new sub-batch once limit operations are pending. Operations are never
// split across sub-batches.
func (b *batch) add(collection string, req types.WriteRequest, limit int, keyFP string, units int) error {
	batches := b.subBatches[collection]
	if len(batches) == 0 || len(batches[len(batches)-1]) >= limit {
		batches = append(batches, nil)
		b.pendingKeys[collection] = make(map[string]struct{})
	}

	if keyFP != "" {
		if _, dup := b.pendingKeys[collection][keyFP]; dup {
			return fmt.Errorf("%w: collection %q", ErrDuplicateKey, collection)
		}
		b.pendingKeys[collection][keyFP] = struct{}{}
	}

	batches[len(batches)-1] = append(batches[len(batches)-1], req)
	b.subBatches[collection] = batches
	b.count++
	b.units += units
	return nil
}

// drain hands the staged sub-batches to the caller and resets the batch.
func (b *batch) drain() map[string][][]types.WriteRequest {
	staged := b.subBatches
	b.subBatches = make(map[string][][]types.WriteRequest)
	b.pendingKeys = make(map[string]map[string]struct{})
	b.count = 0
	b.units = 0
	return staged
}

// PutBatch stages one write or delete operation for collection. No network
// call happens here; staged operations are sent by Flush.
//
// batchSizeLimit caps operations per wire request for this call path; zero
// or anything above Config.MaxBatchSize falls back to the configured limit.
// With deleteMode set the item is projected onto the key schema and staged
// as a key-only delete.
func (c *Client) PutBatch(collection string, item Item, batchSizeLimit int, deleteMode bool) error {
	if len(item) == 0 {
		return fmt.Errorf("%w: collection %q", ErrEmptyItem, collection)
	}

	size := itemsize.Size(item)
	if size > c.cfg.MaxItemSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrItemTooLarge, size, c.cfg.MaxItemSize)
	}

	limit := batchSizeLimit
	if limit <= 0 || limit > c.cfg.MaxBatchSize {
		limit = c.cfg.MaxBatchSize
	}

	var req types.WriteRequest
	var keyFP string

	if deleteMode {
		key := c.projectKey(item)
		if len(key) == 0 {
			return fmt.Errorf("%w: collection %q, key schema %v", ErrMissingKey, collection, c.cfg.KeyAttributeNames)
		}
		req = types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}}
		keyFP = keyFingerprint(key)
		size = itemsize.Size(key)
	} else {
		req = types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}
		if len(c.cfg.KeyAttributeNames) > 0 {
			if key := c.projectKey(item); len(key) > 0 {
				keyFP = keyFingerprint(key)
			}
		}
	}

	return c.batch.add(collection, req, limit, keyFP, itemsize.WriteUnits(size))
}

// Pending returns the number of staged operations awaiting a Flush.
func (c *Client) Pending() int {
	return c.batch.count
}

// PendingWriteUnits estimates the write capacity units the staged operations
// will consume, from their serialized sizes. DynamoDB's own accounting, as
// reported in FlushResult.ConsumedCapacity, is authoritative.
func (c *Client) PendingWriteUnits() int {
	return c.batch.units
}

// projectKey restricts an item to the configured key attributes. With no
// key schema configured the whole item is taken to be the key, matching
// callers that hand key-only records to delete mode.
func (c *Client) projectKey(item Item) map[string]types.AttributeValue {
	if len(c.cfg.KeyAttributeNames) == 0 {
		key := make(map[string]types.AttributeValue, len(item))
		for name, value := range item {
			key[name] = value
		}
		return key
	}

	key := make(map[string]types.AttributeValue)
	for _, name := range c.cfg.KeyAttributeNames {
		if value, ok := item[name]; ok {
			key[name] = value
		}
	}
	return key
}

// keyFingerprint renders a key as a canonical string for duplicate detection.
func keyFingerprint(key map[string]types.AttributeValue) string {
	names := make([]string, 0, len(key))
	for name := range key {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(scalarString(key[name]))
		sb.WriteByte(';')
	}
	return sb.String()
}

func scalarString(value types.AttributeValue) string {
	switch v := value.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + v.Value
	case *types.AttributeValueMemberN:
		return "N:" + v.Value
	case *types.AttributeValueMemberB:
		return "B:" + base64.StdEncoding.EncodeToString(v.Value)
	case *types.AttributeValueMemberBOOL:
		return fmt.Sprintf("BOOL:%t", v.Value)
	case *types.AttributeValueMemberNULL:
		return "NULL"
	default:
		return fmt.Sprintf("%#v", value)
	}
}
