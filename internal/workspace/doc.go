// Package workspace manages the scratch directory of one run. Repository
// clones and URL downloads land there, and the whole tree is removed when the
// run ends.
package workspace
