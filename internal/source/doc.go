// Package source selects the files a tutorial is generated from.
//
// A Handle names exactly one source: a remote repository, a local
// directory or a single file. URL arguments are downloaded to a file
// with Fetch before selection. The Selector applies include and exclude
// globs (exclude wins) and a size ceiling, and returns the eligible files
// sorted by relative path so that every later reference can use an index.
package source
