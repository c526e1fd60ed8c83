// Package main hosts the vis4d CLI entrypoint and command graph.
//
// The Cobra-based command tree exposes the data-loading core to operators:
// configuration scaffolding, building and pruning cached dataset mappings,
// video statistics, and preparing individual training samples to check that
// sampling and augmentation behave as configured. Configuration resolution
// and logging setup live in the command context so subcommands only wire
// internal packages together.
package main
