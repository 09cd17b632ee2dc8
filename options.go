package sigmux

// LoggerFunc receives registry bookkeeping messages. It is only ever
// called from ordinary context (registration, removal, reset) — never
// from the dispatch path, which must not allocate or block.
type LoggerFunc func(format string, args ...any)

type Option func(*Registry)

// WithPolicy sets the registry's dispatch policy.
func WithPolicy(p Policy) Option {
	return func(r *Registry) { r.policy.Store(&p) }
}

// WithLogger sets the logger for registration bookkeeping.
func WithLogger(l LoggerFunc) Option {
	return func(r *Registry) { r.logf = l }
}

// WithDebug enables bookkeeping log output.
func WithDebug(enabled bool) Option {
	return func(r *Registry) { r.debug = enabled }
}

// WithInstaller replaces the OS installation primitive, primarily for
// tests that need to observe or fail handler installation.
func WithInstaller(i Installer) Option {
	return func(r *Registry) { r.installer = i }
}
