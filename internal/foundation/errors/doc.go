// Package errors provides the classified error primitives used across docpublish.
//
// Every stage of the publishing pipeline reports failures as a ClassifiedError so that the
// CLI can map them to exit codes and the daemon can map them to HTTP status codes. There is
// deliberately no retry classification: a failed stage aborts the run.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryAssembly, "move generated tree").
//		WithContext("target", docRoot).
//		Build()
package errors
