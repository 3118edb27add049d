// Package workspace manages the per-run working directory that holds the source
// checkout and the assembled public site.
//
// Ephemeral mode creates a directory named after the run (docpublish-<run-id>) and
// removes it on Cleanup. Persistent mode reuses a fixed directory that survives the
// run for inspection; its contents are reset on Create so every run starts clean.
package workspace
