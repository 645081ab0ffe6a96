package writer

// ProviderFactory constructs a pluggable credentials provider. The result is
// checked against aws.CredentialsProvider at resolution time; a factory that
// fails to construct its provider returns the error as the cause of the
// resulting CredentialError.
type ProviderFactory func() (any, error)

// Configurable is implemented by credential providers that want the client
// Config injected before first use.
type Configurable interface {
	SetConfig(Config)
}

// ProviderRegistry maps provider names to factories. Config.CredentialsProvider
// selects a factory by name at client construction time.
type ProviderRegistry struct {
	factories map[string]ProviderFactory
}

// NewProviderRegistry creates a new empty ProviderRegistry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		factories: make(map[string]ProviderFactory),
	}
}

// Register adds a factory under name, replacing any previous registration.
// This should be called during init() for each pluggable provider.
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.factories[name] = factory
}

// Lookup returns the factory registered under name.
func (r *ProviderRegistry) Lookup(name string) (ProviderFactory, bool) {
	factory, ok := r.factories[name]
	return factory, ok
}

// Names returns all registered provider names.
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
