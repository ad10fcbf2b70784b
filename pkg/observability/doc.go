/*
Package observability provides the monitoring side of the atelier engine.

It includes Prometheus collectors fed by lifecycle hooks, a hook that logs
render events, helpers to chain several hook sets, and OpenTelemetry span
helpers used around compose, paint and delegate calls.
*/
package observability
