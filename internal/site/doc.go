// Package site assembles the public documentation site from a generated doc tree.
//
// The layout of an assembled site is fixed:
//
//	index.html              landing page linking to doc/index.html
//	doc/index.html          component index, one link per component
//	doc/<component>/...     generator output, relocated verbatim
//
// Assemble consumes the generated tree: it is moved, not copied, under doc/ before any
// page is written. Components are the directories at the root of doc/ whose names start
// with the configured prefix and that contain an index.html.
package site
