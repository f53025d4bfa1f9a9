// Package notify publishes run and stage lifecycle events to NATS so other
// systems can follow tutorial generation as it happens.
package notify
