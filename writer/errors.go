package writer

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	// ErrEmptyItem is returned when an item with no attributes is staged.
	ErrEmptyItem = errors.New("granary: item has no attributes")

	// ErrItemTooLarge is returned when an item's serialized size exceeds MaxItemSize.
	ErrItemTooLarge = errors.New("granary: item exceeds the maximum item size")

	// ErrMissingKey is returned when a delete-mode item contains none of the key attributes.
	ErrMissingKey = errors.New("granary: item contains none of the key attributes")

	// ErrDuplicateKey is returned when two operations in the same pending
	// sub-batch resolve to the same primary key.
	ErrDuplicateKey = errors.New("granary: duplicate key in pending sub-batch")

	// ErrProxyConfig is returned for inconsistent proxy settings.
	ErrProxyConfig = errors.New("granary: invalid proxy configuration")

	// ErrUnknownCredentialsProvider is returned when Config.CredentialsProvider
	// names a provider that was never registered.
	ErrUnknownCredentialsProvider = errors.New("granary: credentials provider is not registered")

	// ErrNotCredentialsProvider is returned when a registered factory produces
	// a value that does not implement aws.CredentialsProvider.
	ErrNotCredentialsProvider = errors.New("granary: factory result does not implement aws.CredentialsProvider")

	// ErrNoKeySchema is returned when key attribute names could not be determined.
	ErrNoKeySchema = errors.New("granary: no key attribute names available")
)

// CredentialError is returned when a configured credentials source cannot be
// resolved. It wraps the underlying cause.
type CredentialError struct {
	// Provider is the registry name from Config.CredentialsProvider.
	Provider string

	// Err is the underlying cause.
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("granary: credentials provider %q: %v", e.Provider, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// IncompleteWriteError is returned by Flush when retries were exhausted (or
// the context expired) with operations still unprocessed. It is a
// partial-failure outcome: completed operations stay written, and the
// survivors are carried here for caller-level recovery.
type IncompleteWriteError struct {
	// Unprocessed maps collection name to the operations that never completed.
	Unprocessed map[string][]types.WriteRequest

	// Consumed is the per-collection capacity consumed before giving up.
	Consumed map[string]float64
}

func (e *IncompleteWriteError) Error() string {
	var n int
	for _, reqs := range e.Unprocessed {
		n += len(reqs)
	}
	return fmt.Sprintf("granary: %d operations across %d collections remain unprocessed after exhausting retries",
		n, len(e.Unprocessed))
}
