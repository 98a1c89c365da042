package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
)

// ClassifiedError is a categorized error, optionally attributed to one sheet.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	sheet    string
	message  string
	cause    error
	context  ErrorContext
}

// Error renders "[category] sheet: message: cause", omitting empty parts.
func (e *ClassifiedError) Error() string {
	msg := e.message
	if e.sheet != "" {
		msg = e.sheet + ": " + msg
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.category, msg, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.category, msg)
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }

func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }

// Sheet names the sheet the failure belongs to, or "" for run-level errors.
func (e *ClassifiedError) Sheet() string { return e.sheet }

// Message returns the error message without sheet or cause.
func (e *ClassifiedError) Message() string { return e.message }

func (e *ClassifiedError) Cause() error { return e.cause }

func (e *ClassifiedError) Context() ErrorContext { return e.context }

// WithContext returns a copy of the error with an extra context value.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	cp := *e
	cp.context = maps.Clone(e.context)
	if cp.context == nil {
		cp.context = make(ErrorContext, 1)
	}
	cp.context[key] = value
	return &cp
}

// ForSheet returns a copy of the error attributed to sheet.
func (e *ClassifiedError) ForSheet(sheet string) *ClassifiedError {
	cp := *e
	cp.sheet = sheet
	return &cp
}

// Is reports category+message equality so sentinel-style comparisons work.
func (e *ClassifiedError) Is(target error) bool {
	if other, ok := target.(*ClassifiedError); ok {
		return e.category == other.category && e.message == other.message
	}
	return false
}

// IsFatal reports whether the error aborts the run rather than one sheet.
func (e *ClassifiedError) IsFatal() bool {
	return e.severity == SeverityFatal
}

// IsClassified checks if any error in the chain is a ClassifiedError.
func IsClassified(err error) bool {
	_, ok := AsClassified(err)
	return ok
}

// AsClassified returns the outermost ClassifiedError in the chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory checks if the outermost classified error in the chain belongs to a category.
func HasCategory(err error, category ErrorCategory) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal.
func GetCategory(err error) ErrorCategory {
	if classified, ok := AsClassified(err); ok {
		return classified.Category()
	}
	return CategoryInternal
}

// FailedSheets lists the sheets named by classified errors in err, which may
// be a join of per-sheet failures. Order follows the join; duplicates are dropped.
func FailedSheets(err error) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		if ce, ok := AsClassified(e); ok && ce.sheet != "" && !seen[ce.sheet] {
			seen[ce.sheet] = true
			out = append(out, ce.sheet)
		}
	}
	walk(err)
	return out
}
