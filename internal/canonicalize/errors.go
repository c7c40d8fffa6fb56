package canonicalize

import "fmt"

// Step identifies a generator stage.
type Step string

// Generator steps, in execution order.
const (
	StepWriteEmail       Step = "write-email"
	StepClearStale       Step = "clear-stale"
	StepRunCanonicalizer Step = "run-canonicalizer"
	StepReadInputs       Step = "read-inputs"
	StepParseInputs      Step = "parse-inputs"
)

// Error is a generator failure. Path is the artifact or command involved.
type Error struct {
	Step Step
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Step {
	case StepWriteEmail:
		return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
	case StepClearStale:
		return fmt.Sprintf("failed to delete %s: %v", e.Path, e.Err)
	case StepRunCanonicalizer:
		return fmt.Sprintf("failed to run %s: %v", e.Path, e.Err)
	case StepReadInputs:
		return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
	case StepParseInputs:
		return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("canonicalize %s failed for %s: %v", e.Step, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
