package errors

import "maps"

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts a sheet-level error of the given category.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		message:  message,
		context:  make(ErrorContext),
	}}
}

// WrapError starts an error that wraps cause.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(cause)
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

// ForSheet attributes the error to a sheet.
func (b *ErrorBuilder) ForSheet(name string) *ErrorBuilder {
	b.err.sheet = name
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context[key] = value
	return b
}

// Fatal marks the error as aborting the run.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.err.severity = SeverityFatal
	return b
}

func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	out.context = maps.Clone(b.err.context)
	return &out
}

// ConfigError creates a configuration error. Configuration errors abort the run.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError creates an input validation error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

func ResolutionError(message string) *ErrorBuilder {
	return NewError(CategoryResolution, message)
}

func PackingError(message string) *ErrorBuilder {
	return NewError(CategoryPacking, message)
}

func MetadataError(message string) *ErrorBuilder {
	return NewError(CategoryMetadata, message)
}

func ConversionError(message string) *ErrorBuilder {
	return NewError(CategoryConversion, message)
}

func WriteError(message string) *ErrorBuilder {
	return NewError(CategoryWrite, message)
}

// TemplateReadError creates a custom template read error.
func TemplateReadError(message string) *ErrorBuilder {
	return NewError(CategoryTemplate, message)
}

func TimeoutError(message string) *ErrorBuilder {
	return NewError(CategoryTimeout, message)
}

// WatchError creates a watcher error. The watch loop logs these and keeps running.
func WatchError(message string) *ErrorBuilder {
	return NewError(CategoryWatch, message)
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
