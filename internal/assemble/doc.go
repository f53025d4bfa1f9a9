// Package assemble writes a finished tutorial to disk: an index page with the
// project summary, relationship diagram and table of contents, plus one
// Markdown file per chapter with deterministic frontmatter and navigation.
//
// Output is a pure function of the input, so writing the same tutorial twice
// produces byte-identical files.
package assemble
