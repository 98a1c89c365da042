package build

import "context"

// Service is the build surface used by the CLI and the watch coordinator.
type Service interface {
	// Start runs every configured sheet once. When watch mode is enabled the
	// registered watch hook runs after the first Start only.
	Start(ctx context.Context) (*RunResult, error)

	// RebuildSheet rebuilds one sheet, leaving every other sheet untouched.
	RebuildSheet(ctx context.Context, name, trigger string) (*SheetResult, error)

	// RebuildAll runs every sheet again.
	RebuildAll(ctx context.Context, trigger string) (*RunResult, error)

	// Sheets returns a snapshot of every sheet's sources.
	Sheets() []SheetInfo

	// AddPath and RemovePath mutate the literal source list of a sheet; they
	// report false for pattern sheets or when nothing changed.
	AddPath(sheet, path string) bool
	RemovePath(sheet, path string) bool
}
