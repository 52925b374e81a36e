// Package logging builds slog loggers for the daemon and CLI.
//
// The console format renders compact "TIME LEVEL component: message k=v"
// lines for interactive use; the json format emits machine-readable records.
// Components derive child loggers via NewComponentLogger so every record
// carries a component attribute, and tests use NewNop to silence output.
package logging
