// Package cli implements tally-cli, a command line client for the report API.
//
// # Commands
//
//	tally-cli list [--server URL] [--json]
//	tally-cli get NAME [--label L] [--start T] [--duration D] [--json]
//
// The server defaults to $TALLY_SERVER, then http://localhost:8080. Without
// --json, charts are printed as tables: pie slices with their share, line and
// stack series one point per row, and audit tables with one column per used
// field.
package cli
