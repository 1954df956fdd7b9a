// Package coreerr holds the structured error kinds shared by the pattern
// matcher, JSON Patch engine, and watch registry. Every error carries a
// machine-readable kind plus enough context (a JSON Pointer, an offending
// pattern) for a caller to map it onto an HTTP response without string
// parsing.
package coreerr

import "fmt"

// InvalidPattern is returned when a path pattern fails to compile.
type InvalidPattern struct {
	Pattern string
	Reason  string
}

func (e *InvalidPattern) Error() string {
	return fmt.Sprintf("invalid pattern %q: %s", e.Pattern, e.Reason)
}

// JsonPatchConflict is raised by the patch engine for a missing node, a
// non-container parent, an out-of-range array index, or a move into a
// descendant of itself.
type JsonPatchConflict struct {
	Pointer string
	Reason  string
}

func (e *JsonPatchConflict) Error() string {
	return fmt.Sprintf("json patch conflict at %q: %s", e.Pointer, e.Reason)
}

// TestFailed is raised by test, testAbsence, and safeReplace when the
// observed value does not match what the operation expected.
type TestFailed struct {
	Pointer  string
	Expected any
	Actual   any
	// HasActual is false when nothing exists at Pointer (test or
	// safeReplace against a missing target), so there is no observed value.
	HasActual bool
}

func (e *TestFailed) Error() string {
	if !e.HasActual {
		return fmt.Sprintf("test failed at %q: expected %v, found nothing", e.Pointer, e.Expected)
	}
	return fmt.Sprintf("test failed at %q: expected %v, got %v", e.Pointer, e.Expected, e.Actual)
}

// RegistryClosed is surfaced through every watch still outstanding when a
// Registry is closed.
type RegistryClosed struct {
	Cause error
}

func (e *RegistryClosed) Error() string {
	if e.Cause == nil {
		return "watch registry closed"
	}
	return fmt.Sprintf("watch registry closed: %v", e.Cause)
}

func (e *RegistryClosed) Unwrap() error { return e.Cause }

// StorageClosed is returned by the commit store once it has been shut
// down; it is typically wrapped into the ErrorFactory passed to a
// Registry's close.
type StorageClosed struct {
	Reason string
}

func (e *StorageClosed) Error() string {
	if e.Reason == "" {
		return "storage closed"
	}
	return fmt.Sprintf("storage closed: %s", e.Reason)
}

// ErrorFactory lazily produces the error used to fail outstanding watches
// on Registry.close. It is a factory, not a value, so the cause can be
// computed once and shared across every watch it fails.
type ErrorFactory func() error
