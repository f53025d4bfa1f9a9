// Package models holds the types shared by the tutorial pipeline stages:
// the run state threaded through every stage, the phase machine, stage
// definitions and errors, the run report and run observers.
package models
