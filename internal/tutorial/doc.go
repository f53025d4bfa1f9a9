// Package tutorial runs the tutorial generation pipeline.
//
// The Orchestrator owns one RunState per run, executes the stages in order and
// turns a failure into a RunError that carries the state it failed in.
package tutorial
