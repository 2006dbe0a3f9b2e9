package compression

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to check for them.
var (
	// ErrAlgorithmMismatch indicates an envelope was handed to a codec that did not produce it.
	ErrAlgorithmMismatch = errors.New("algorithm mismatch")

	// ErrInvalidPayload indicates a payload the codec cannot invert.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrInvalidConfig indicates a config value outside the supported ranges.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidScore indicates a score that cannot be rendered into an envelope.
	ErrInvalidScore = errors.New("invalid score")
)

// AlgorithmMismatchError reports which codec rejected which envelope tag.
type AlgorithmMismatchError struct {
	Expected Algorithm
	Got      string
}

func (e *AlgorithmMismatchError) Error() string {
	return fmt.Sprintf("%s: %s decoder expected algorithm %q but got %q",
		ErrAlgorithmMismatch.Error(), e.Expected, e.Expected, e.Got)
}

func (e *AlgorithmMismatchError) Unwrap() error {
	return ErrAlgorithmMismatch
}
