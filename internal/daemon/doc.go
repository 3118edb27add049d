// Package daemon is the long-running trigger surface. It accepts push webhooks and
// manual triggers over HTTP, hands them to a runner.Coordinator, serves run history and
// Prometheus metrics, reloads configuration when the file changes and prunes old
// history on a schedule.
package daemon
