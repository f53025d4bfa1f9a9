// Package stages implements the tutorial pipeline stages and the runner that
// executes them in order against a models.RunState.
package stages
