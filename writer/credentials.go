package writer

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// resolveCredentials produces the credentials provider for a client, or nil
// when nothing is configured and the ambient default chain should be used.
//
// Precedence, first match wins:
//  1. a named provider from the registry (Config.CredentialsProvider)
//  2. the store-specific access/secret pair, as session credentials when
//     SessionToken is also set
//  3. the generic fallback access/secret pair
//  4. nil, deferring to the SDK default chain
func resolveCredentials(cfg Config, registry *ProviderRegistry) (aws.CredentialsProvider, error) {
	if cfg.CredentialsProvider != "" {
		return resolveNamedProvider(cfg, registry)
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		return credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken), nil
	}

	if cfg.FallbackAccessKey != "" && cfg.FallbackSecretKey != "" {
		return credentials.NewStaticCredentialsProvider(cfg.FallbackAccessKey, cfg.FallbackSecretKey, ""), nil
	}

	return nil, nil
}

func resolveNamedProvider(cfg Config, registry *ProviderRegistry) (aws.CredentialsProvider, error) {
	name := cfg.CredentialsProvider

	var factory ProviderFactory
	if registry != nil {
		factory, _ = registry.Lookup(name)
	}
	if factory == nil {
		return nil, &CredentialError{Provider: name, Err: ErrUnknownCredentialsProvider}
	}

	candidate, err := factory()
	if err != nil {
		return nil, &CredentialError{Provider: name, Err: err}
	}

	provider, ok := candidate.(aws.CredentialsProvider)
	if !ok {
		return nil, &CredentialError{Provider: name, Err: ErrNotCredentialsProvider}
	}

	// Inject configuration before first use when supported.
	if configurable, ok := candidate.(Configurable); ok {
		configurable.SetConfig(cfg)
	}

	return provider, nil
}
