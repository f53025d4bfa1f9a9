// Package journal records run lifecycle events in a SQLite database so past
// runs can be listed and inspected with `codetutor runs`.
package journal
