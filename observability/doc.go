// Package observability initializes OpenTelemetry tracing and metrics for
// the pipeline: per-stage spans, stage duration histograms, job transition
// counters, and accelerator lock wait/hold histograms. Exporters speak OTLP
// over HTTP.
package observability
