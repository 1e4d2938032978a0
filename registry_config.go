package metrics

type registryConfig struct {
	prefix    string
	prefixSet bool
	labels    map[string]string
	logger    Logger
}

// RegistryOption configures a Registry constructed by NewCustomRegistry.
type RegistryOption func(*registryConfig)

// WithPrefix prepends prefix and "_" to every gathered family name.
func WithPrefix(prefix string) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.prefix = prefix
		cfg.prefixSet = true
	}
}

// WithCommonLabels appends labels to every gathered sample, after the
// sample's own labels.
func WithCommonLabels(labels map[string]string) RegistryOption {
	return func(cfg *registryConfig) {
		if len(labels) == 0 {
			return
		}
		if cfg.labels == nil {
			cfg.labels = make(map[string]string, len(labels))
		}
		for k, v := range labels {
			cfg.labels[k] = v
		}
	}
}

// WithRegistryLogger sets the logger used for registration events.
func WithRegistryLogger(l Logger) RegistryOption {
	return func(cfg *registryConfig) { cfg.logger = l }
}
