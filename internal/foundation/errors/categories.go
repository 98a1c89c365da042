package errors

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Per-sheet build failures.
	CategoryResolution ErrorCategory = "resolution"
	CategoryPacking    ErrorCategory = "packing"
	CategoryMetadata   ErrorCategory = "metadata"
	CategoryConversion ErrorCategory = "conversion"
	CategoryWrite      ErrorCategory = "write"
	CategoryTemplate   ErrorCategory = "template"
	CategoryTimeout    ErrorCategory = "timeout"

	// Runtime and infrastructure errors.
	CategoryWatch    ErrorCategory = "watch"
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// SheetScoped reports whether errors of this category fail a single sheet
// and leave the rest of the run intact.
func (c ErrorCategory) SheetScoped() bool {
	switch c {
	case CategoryResolution, CategoryPacking, CategoryMetadata, CategoryConversion,
		CategoryWrite, CategoryTemplate, CategoryTimeout:
		return true
	default:
		return false
	}
}

// ExitCode is the process exit status the CLI uses for the category.
func (c ErrorCategory) ExitCode() int {
	switch {
	case c == CategoryValidation:
		return 2
	case c == CategoryConfig:
		return 7
	case c == CategoryInternal:
		return 10
	case c.SheetScoped():
		return 11
	case c == CategoryWatch, c == CategoryRuntime:
		return 12
	default:
		return 1
	}
}

// ErrorSeverity indicates whether an error stops the whole run.
type ErrorSeverity string

const (
	SeverityFatal ErrorSeverity = "fatal" // Stops the whole run
	SeverityError ErrorSeverity = "error" // Fails the current sheet
)

// ErrorContext carries structured key/value details for logging.
type ErrorContext map[string]any

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	str, ok := c[key].(string)
	return str, ok
}
