// Package orchestrator drives jobs through the meeting pipeline. It claims
// pending jobs from the job store, routes accelerator-bound stages through
// the foreman lock, runs the stage transforms, persists stage outputs as
// payloads, and spawns downstream jobs: one map job per transcript chunk,
// a single reduce job once every map job for a meeting is terminal, and an
// optional refine job after the reduce completes.
package orchestrator
