// Package foreman serializes access to the shared accelerator. At most one
// heavy model may be resident at a time; workers follow the
// acquire/load/run/unload/release lifecycle and present the token returned
// by Acquire back to Release. Waiting acquisitions are served in configured
// task-type priority order rather than strict FIFO, and a stale holder is
// force-reclaimed after a maximum hold duration.
package foreman
