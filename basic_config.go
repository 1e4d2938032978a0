package metrics

type basicProviderConfig struct {
	// when false, remove per-key mutex entries from `inits` after initialization to
	// allow GC of mutexes for many ephemeral instrument names. Default: false.
	doNotCleanupInits bool
	logger            Logger
	registry          *Registry
}

// BasicProviderOption configures a BasicProvider constructed by NewBasicProvider.
type BasicProviderOption func(*basicProviderConfig)

// WithInitCleanupDisabled keeps per-key init mutex entries after
// initialization. Init cleanup is enabled by default.
func WithInitCleanupDisabled() BasicProviderOption {
	return func(cfg *basicProviderConfig) { cfg.doNotCleanupInits = true }
}

// WithBasicProviderLogger sets the logger used for invariant reports.
func WithBasicProviderLogger(l Logger) BasicProviderOption {
	return func(cfg *basicProviderConfig) { cfg.logger = l }
}

// WithBasicProviderRegistry registers instruments with r instead of the
// default registry.
func WithBasicProviderRegistry(r *Registry) BasicProviderOption {
	return func(cfg *basicProviderConfig) { cfg.registry = r }
}
