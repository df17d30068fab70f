// Command aegis is a CLI for the attribute-/group-based authorization
// engine: it runs individual authorize calls against a configured storage
// backend, inspects the resulting trace channels, applies the PostgreSQL
// schema, and reports on the health of a deployed backend.
//
// Usage:
//
//	aegis [flags] <command>
//
// Commands that touch storage (check, trace, migrate, doctor) need a
// backend configured, either via aegis.yaml or the --db flag; check and
// trace also accept --memstore.
package main

func main() {
	Execute()
}
