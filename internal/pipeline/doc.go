// Package pipeline runs one documentation publish: acquire the source, generate the
// doc tree, assemble the public site, verify its links and publish it.
//
// Stages run strictly in order and the first failure ends the run. There are no
// retries and nothing is published from a failed run.
package pipeline
