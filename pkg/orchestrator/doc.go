// Package orchestrator wires the catalog store, widget decoration, engine
// sessions and the renderer registry behind one entry point, so servers and
// command line tools share a single setup path.
package orchestrator
