package registry

import "sync"

// Process-wide default instance. Application entry points should prefer
// constructing a Registry explicitly and passing it down; the default
// exists for the callers that cannot thread one through.
var (
	defaultMu       sync.Mutex
	defaultRegistry *Registry
)

// Default returns the process-wide registry, constructing it on first
// call. Later calls return the same instance and ignore their deps
// argument (first-writer-wins) until ResetDefault.
func Default(deps Deps) *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRegistry == nil {
		defaultRegistry = New(deps)
	}
	return defaultRegistry
}

// ResetDefault drops the default instance so the next Default call
// builds a fresh one. Test isolation hook.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRegistry != nil {
		defaultRegistry.Reset()
	}
	defaultRegistry = nil
}
