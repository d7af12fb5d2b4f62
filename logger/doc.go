// Package logger provides structured logging for the pipeline built on
// zerolog. Components obtain a tagged logger via logger.Get(name) or
// WithComponent, and enrich entries with the domain field constants
// (meeting_id, job_id, task_type, stage).
package logger
