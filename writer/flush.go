package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// FlushResult reports a completed flush: how many operations were written
// and the capacity they consumed, per collection.
type FlushResult struct {
	// Written is the number of operations the store completed.
	Written int

	// ConsumedCapacity is the capacity units consumed per collection.
	// Purely observational; never used to gate correctness.
	ConsumedCapacity map[string]float64
}

// workItem is one sub-batch addressed to one collection.
type workItem struct {
	collection string
	requests   []types.WriteRequest
}

// Flush sends all staged operations. Each sub-batch goes out as one
// BatchWriteItem request; unprocessed operations are resubmitted with
// exponential backoff and jitter until they complete or
// Config.MaxFlushRetries is exhausted.
//
// When retries run out, or ctx expires mid-flush, Flush returns an
// *IncompleteWriteError carrying the surviving operations and the capacity
// consumed so far. Flushing an empty batch succeeds without any network
// call. The staged batch is reset either way; survivors live only in the
// returned error.
func (c *Client) Flush(ctx context.Context) (*FlushResult, error) {
	estimatedUnits := c.batch.units
	staged := c.batch.drain()

	result := &FlushResult{ConsumedCapacity: make(map[string]float64)}
	if len(staged) == 0 {
		return result, nil
	}

	flushID := uuid.New().String()[:8]
	logger := c.logger.With("flush", flushID)
	logger.Debug("flushing staged operations",
		"collections", len(staged),
		"estimated_units", estimatedUnits,
	)

	queue := flattenBatches(staged)
	backoff := retry.NewExponentialJitterBackoff(c.cfg.MaxBackoff)
	survivors := make(map[string][]types.WriteRequest)
	expired := false

	for _, w := range queue {
		if expired {
			survivors[w.collection] = append(survivors[w.collection], w.requests...)
			continue
		}

		pending, err := c.sendSubBatch(ctx, logger, backoff, w, result)
		if err != nil {
			return nil, err
		}
		if len(pending) > 0 {
			survivors[w.collection] = append(survivors[w.collection], pending...)
			expired = ctx.Err() != nil
		}
	}

	if len(survivors) > 0 {
		return nil, &IncompleteWriteError{
			Unprocessed: survivors,
			Consumed:    result.ConsumedCapacity,
		}
	}

	logger.Info("flush complete",
		"written", result.Written,
		"collections", len(staged),
	)
	return result, nil
}

// sendSubBatch drives one sub-batch to completion and returns any
// operations that survived the retry budget. A non-retryable API error is
// returned as-is and aborts the flush.
func (c *Client) sendSubBatch(ctx context.Context, logger *slog.Logger, backoff retry.BackoffDelayer, w workItem, result *FlushResult) ([]types.WriteRequest, error) {
	pending := w.requests

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return pending, nil
		}

		out, err := c.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems:           map[string][]types.WriteRequest{w.collection: pending},
			ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
		})
		switch {
		case err != nil && ctx.Err() != nil:
			return pending, nil
		case err != nil && !retryableWriteError(err):
			return nil, fmt.Errorf("granary: batch write to %q: %w", w.collection, err)
		case err == nil:
			accumulateCapacity(result, out.ConsumedCapacity)
			next := out.UnprocessedItems[w.collection]
			result.Written += len(pending) - len(next)
			pending = next
			if len(pending) == 0 {
				return nil, nil
			}
		}

		if attempt >= c.cfg.MaxFlushRetries {
			logger.Warn("retry budget exhausted",
				"collection", w.collection,
				"unprocessed", len(pending),
				"attempts", attempt+1,
			)
			return pending, nil
		}

		delay, derr := backoff.BackoffDelay(attempt, err)
		if derr != nil {
			delay = time.Second
		}
		logger.Debug("resubmitting unprocessed operations",
			"collection", w.collection,
			"unprocessed", len(pending),
			"attempt", attempt+1,
			"delay", delay,
		)
		if !sleepContext(ctx, delay) {
			return pending, nil
		}
	}
}

// flattenBatches orders staged sub-batches deterministically by collection.
func flattenBatches(staged map[string][][]types.WriteRequest) []workItem {
	collections := make([]string, 0, len(staged))
	for collection := range staged {
		collections = append(collections, collection)
	}
	sort.Strings(collections)

	var queue []workItem
	for _, collection := range collections {
		for _, requests := range staged[collection] {
			if len(requests) > 0 {
				queue = append(queue, workItem{collection: collection, requests: requests})
			}
		}
	}
	return queue
}

func accumulateCapacity(result *FlushResult, consumed []types.ConsumedCapacity) {
	for _, cc := range consumed {
		if cc.TableName != nil && cc.CapacityUnits != nil {
			result.ConsumedCapacity[*cc.TableName] += *cc.CapacityUnits
		}
	}
}

// retryableWriteError reports whether a BatchWriteItem error warrants the
// same backoff-and-retry treatment as unprocessed items. Capacity
// exhaustion is not special-cased beyond this; the store's protocol does
// not distinguish throttling from other unprocessed causes at this layer.
func retryableWriteError(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var requestLimit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if errors.As(err, &throughput) || errors.As(err, &requestLimit) || errors.As(err, &internal) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorFault() == smithy.FaultServer
	}
	return false
}

// sleepContext sleeps for d or until ctx is done, reporting whether the
// full delay elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
