package manager

import "errors"

// LoadError signals that the model could not be constructed. The caller whose
// Acquire triggered the load receives it; the next Acquire retries.
type LoadError struct{ Cause error }

func (e *LoadError) Error() string { return "model load failed: " + e.Cause.Error() }

func (e *LoadError) Unwrap() error { return e.Cause }

// IsLoadFailure reports whether err came from a failed model load (return 503).
func IsLoadFailure(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// modelNotFoundError is returned by loaders when the weights artifact is missing.
type modelNotFoundError struct{ path string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.path }

// ErrModelNotFound returns an error for a missing model artifact at path.
func ErrModelNotFound(path string) error { return modelNotFoundError{path: path} }

// IsModelNotFound reports whether the error indicates a missing model artifact.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a missing runtime dependency (e.g. the
// binary was built without the llama tag) so the HTTP layer can return 503.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}
