package logger

import "sync"

var (
	namedMu sync.RWMutex
	named   = map[string]*Logger{}
)

// Register binds a logger to a component name, replacing any earlier
// binding. Components resolve their logger through Get at construction
// time, so a rebind only affects loggers fetched afterwards.
func Register(name string, l *Logger) {
	namedMu.Lock()
	named[name] = l
	namedMu.Unlock()
}

// Get returns the logger bound to name. Unbound names fall back to the
// global logger tagged with the component name, so callers never check
// registration first.
func Get(name string) *Logger {
	namedMu.RLock()
	l, ok := named[name]
	namedMu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}
