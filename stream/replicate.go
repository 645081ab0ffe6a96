// Package stream replicates DynamoDB Streams records through the batching
// write client, mirroring a source table into a destination table.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/granary/writer"
)

// Replicator applies DynamoDB stream records to a destination collection:
// INSERT and MODIFY become puts of the new image, REMOVE becomes a key-only
// delete. Records are staged through the write client and flushed once per
// event batch, so unprocessed-item retry and partial-failure reporting come
// from the client.
type Replicator struct {
	client *writer.Client
	table  string
	logger *slog.Logger
}

// NewReplicator creates a Replicator writing to table.
func NewReplicator(client *writer.Client, table string, logger *slog.Logger) *Replicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Replicator{
		client: client,
		table:  table,
		logger: logger,
	}
}

// HandleEvent processes one stream event batch. Designed to be used as an
// AWS Lambda handler. Returning an error makes the event source retry the
// batch, which is safe: puts and deletes are idempotent per key.
func (r *Replicator) HandleEvent(ctx context.Context, event events.DynamoDBEvent) error {
	staged := 0
	for _, record := range event.Records {
		ok, err := r.stageRecord(record)
		if err != nil {
			return fmt.Errorf("stage record %s: %w", record.EventID, err)
		}
		if ok {
			staged++
		}
	}

	result, err := r.client.Flush(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("replicated stream batch",
		"table", r.table,
		"records", len(event.Records),
		"staged", staged,
		"written", result.Written,
	)
	return nil
}

// stageRecord stages a single stream record, reporting whether it produced
// an operation.
func (r *Replicator) stageRecord(record events.DynamoDBEventRecord) (bool, error) {
	switch record.EventName {
	case "INSERT", "MODIFY":
		item := ConvertImage(record.Change.NewImage)
		if len(item) == 0 {
			return false, nil
		}
		return true, r.client.PutBatch(r.table, item, 0, false)
	case "REMOVE":
		key := ConvertImage(record.Change.Keys)
		if len(key) == 0 {
			return false, nil
		}
		return true, r.client.PutBatch(r.table, key, 0, true)
	default:
		return false, nil
	}
}

// ConvertImage converts a stream image (or key) to SDK attribute values.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) writer.Item {
	if len(image) == 0 {
		return nil
	}
	item := make(writer.Item, len(image))
	for name, value := range image {
		item[name] = convertValue(value)
	}
	return item
}

func convertValue(value events.DynamoDBAttributeValue) types.AttributeValue {
	switch value.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: value.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: value.Number()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: value.Binary()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: value.Boolean()}
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: value.StringSet()}
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: value.NumberSet()}
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: value.BinarySet()}
	case events.DataTypeList:
		list := make([]types.AttributeValue, 0, len(value.List()))
		for _, elem := range value.List() {
			list = append(list, convertValue(elem))
		}
		return &types.AttributeValueMemberL{Value: list}
	case events.DataTypeMap:
		m := make(map[string]types.AttributeValue, len(value.Map()))
		for k, v := range value.Map() {
			m[k] = convertValue(v)
		}
		return &types.AttributeValueMemberM{Value: m}
	default:
		return &types.AttributeValueMemberNULL{Value: true}
	}
}
