// Package writer provides a batching write/delete client for DynamoDB.
//
// Granary targets bulk-load and bulk-delete workloads: callers stage
// arbitrary items with [Client.PutBatch], the client partitions them into
// sub-batches that fit single BatchWriteItem requests, and [Client.Flush]
// drives every sub-batch to completion, resubmitting unprocessed items with
// exponential backoff until done or the retry budget runs out.
//
// # Staging and flushing
//
//	c, err := writer.NewFromConfig(ctx, writer.DefaultConfig(), nil)
//	// ...
//	for _, item := range items {
//	    if err := c.PutBatch("events", item, 0, false); err != nil { ... }
//	}
//	res, err := c.Flush(ctx)
//
// Items are validated at staging time: an item whose serialized size
// exceeds Config.MaxItemSize fails with [ErrItemTooLarge], a delete-mode
// item with no key attributes fails with [ErrMissingKey], and a second
// operation on the same key within one pending sub-batch fails with
// [ErrDuplicateKey]. Validation happens before any state changes, so a
// rejected item never corrupts the staged batch.
//
// # Partial failure
//
// Flush is a partial-failure operation. When the retry budget is exhausted
// (or the context expires) with operations still unprocessed, it returns an
// [*IncompleteWriteError] carrying the surviving operations and the
// capacity consumed so far; everything already written stays written.
// Callers checkpoint and resume from the error, or fail the surrounding
// job.
//
// # Credentials and proxy
//
// [NewFromConfig] resolves credentials with a strict precedence: a named
// pluggable provider from a [ProviderRegistry], then the store-specific
// access/secret(/session) keys, then the fallback pair, then the SDK
// default chain. Providers implementing [Configurable] get the Config
// injected before first use. Proxy host/port/username/password are
// validated as a unit and applied to the transport once at construction.
package writer
