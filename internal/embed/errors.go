package embed

import (
	"errors"
	"fmt"
)

// InferenceError wraps a failure of the model's encode call, or a malformed
// result from it, for the batch starting at input index Offset.
type InferenceError struct {
	Offset int
	Cause  error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed at batch offset %d: %v", e.Offset, e.Cause)
}

func (e *InferenceError) Unwrap() error { return e.Cause }

// IsInferenceFailure reports whether err came from the model's compute call.
func IsInferenceFailure(err error) bool {
	var ie *InferenceError
	return errors.As(err, &ie)
}
