// Package payload stores pipeline intermediates on the local filesystem.
// The job store tracks work units and their references; this package owns
// the referenced bytes.
package payload
