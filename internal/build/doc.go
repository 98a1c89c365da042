// Package build orchestrates sheet builds.
//
// The Orchestrator owns the mapping from sheet name to source set. A run
// resolves and classifies each sheet's sources, then runs the sprite and
// icon-font builders concurrently within the sheet and across sheets. A
// failing sheet is logged and reported in its SheetResult; it never aborts
// its siblings. Builds of the same sheet are serialized, so watch-triggered
// rebuilds cannot interleave their output.
//
// All execution paths (CLI build, watch mode, tests) go through Service.
package build
