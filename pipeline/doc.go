// Package pipeline provides small, lazy, pull-based stream operators used
// to fan chunk extraction out across workers while keeping failure handling
// at the call site.
package pipeline
