package writer

import (
	"log/slog"
	"strings"
	"time"
)

const (
	// DefaultMaxItemSize is the DynamoDB item size ceiling (400 KiB).
	DefaultMaxItemSize = 400 * 1024

	// DefaultMaxBatchSize is the BatchWriteItem limit of 25 operations per request.
	DefaultMaxBatchSize = 25

	// DefaultMaxFlushRetries bounds resubmission of unprocessed operations.
	DefaultMaxFlushRetries = 10

	// DefaultMaxBackoff caps the per-attempt backoff delay.
	DefaultMaxBackoff = 5 * time.Second
)

// Config holds configuration for a Client. The zero value plus validate()
// yields working defaults for everything except the target region, which the
// ambient AWS configuration may still supply.
type Config struct {
	// Region is the AWS region. Empty defers to the ambient configuration.
	Region string

	// Endpoint optionally overrides the DynamoDB endpoint (e.g. DynamoDB Local).
	Endpoint string

	// AccessKey, SecretKey and SessionToken are the store-specific
	// credentials. Access and secret key together select static credentials;
	// adding SessionToken selects session credentials.
	AccessKey    string
	SecretKey    string
	SessionToken string

	// FallbackAccessKey and FallbackSecretKey are the generic credential
	// pair consulted when the store-specific pair is absent.
	FallbackAccessKey string
	FallbackSecretKey string

	// CredentialsProvider names a provider registered in a ProviderRegistry.
	// When set it takes precedence over both key pairs.
	CredentialsProvider string

	// ProxyHost and ProxyPort configure an HTTP proxy for the transport.
	// Both must be set together.
	ProxyHost string
	ProxyPort int

	// ProxyUsername and ProxyPassword authenticate against the proxy.
	// Both must be set together, and only alongside ProxyHost/ProxyPort.
	ProxyUsername string
	ProxyPassword string

	// KeyAttributeNames is the ordered primary key schema of the target
	// collections, used for delete-mode key projection and duplicate
	// detection. Leave empty to discover it with Client.LoadKeySchema, or
	// populate from the external comma-separated form with SplitKeyNames.
	KeyAttributeNames []string

	// MaxItemSize is the serialized item size ceiling in bytes.
	// Default: DefaultMaxItemSize.
	MaxItemSize int

	// MaxBatchSize caps operations per wire request.
	// Default and upper bound: DefaultMaxBatchSize.
	MaxBatchSize int

	// MaxFlushRetries bounds resubmission attempts per sub-batch.
	// Default: DefaultMaxFlushRetries.
	MaxFlushRetries int

	// MaxBackoff caps the exponential backoff delay between attempts.
	// Default: DefaultMaxBackoff.
	MaxBackoff time.Duration

	// Logger receives structured flush telemetry. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with all limits at their defaults.
func DefaultConfig() Config {
	return Config{
		MaxItemSize:     DefaultMaxItemSize,
		MaxBatchSize:    DefaultMaxBatchSize,
		MaxFlushRetries: DefaultMaxFlushRetries,
		MaxBackoff:      DefaultMaxBackoff,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.MaxItemSize <= 0 {
		c.MaxItemSize = DefaultMaxItemSize
	}
	if c.MaxBatchSize <= 0 || c.MaxBatchSize > DefaultMaxBatchSize {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.MaxFlushRetries <= 0 {
		c.MaxFlushRetries = DefaultMaxFlushRetries
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// SplitKeyNames parses the external comma-separated key attribute list
// ("hash,range") into the form KeyAttributeNames expects. Blank entries are
// dropped.
func SplitKeyNames(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
