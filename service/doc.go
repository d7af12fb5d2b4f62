// Package service assembles the pipeline from a resolved configuration:
// it opens the job and payload stores, constructs the foreman and the
// capability providers via their registries, wires the orchestrator and
// its worker loop, and optionally serves the operator API. Run blocks
// until cancellation or a termination signal.
package service
