package zkemail

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zkemail/prover-go/internal/canonicalize"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrNilImage is returned when no program image is provided.
	ErrNilImage = errors.New("program image is required")

	// ErrModeConflict is returned when zero or both run modes are requested.
	ErrModeConflict = errors.New("exactly one of execute or prove must be selected")

	// ErrInvalidInputs is returned when an email inputs record is incomplete.
	ErrInvalidInputs = errors.New("email inputs are incomplete")

	// ErrEmailWrite is returned when the raw email cannot be persisted for
	// the canonicalizer.
	ErrEmailWrite = errors.New("failed to write email file")

	// ErrStaleDelete is returned when a stale inputs artifact cannot be removed.
	ErrStaleDelete = errors.New("failed to delete stale email inputs")

	// ErrCanonicalizerSpawn is returned when the canonicalizer process cannot
	// be started or exits non-zero.
	ErrCanonicalizerSpawn = errors.New("canonicalizer invocation failed")

	// ErrInputsRead is returned when the canonicalizer's output artifact is missing
	// or unreadable.
	ErrInputsRead = errors.New("failed to read email inputs")

	// ErrInputsParse is returned when the output artifact is not a well-formed
	// inputs record.
	ErrInputsParse = errors.New("failed to parse email inputs")

	// ErrExecution is returned when the program traps or otherwise fails
	// during execution.
	ErrExecution = errors.New("program execution failed")

	// ErrSetup is returned when proving/verifying key derivation fails.
	ErrSetup = errors.New("proving key setup failed")

	// ErrProofGeneration is returned when proof generation fails.
	ErrProofGeneration = errors.New("proof generation failed")

	// ErrVerification is returned when a generated proof fails verification.
	// This signals either a prover bug or tampered inputs and is never suppressed.
	ErrVerification = errors.New("proof verification failed")
)

// ZKEmailError is implemented by all pipeline errors.
type ZKEmailError interface {
	error
	ZKEmailError() // marker method
}

// GenerationStep identifies the failing step of the Email Input Generator.
type GenerationStep string

// Generator steps, in pipeline order.
const (
	StepWriteEmail   GenerationStep = "write-email"
	StepClearStale   GenerationStep = "clear-stale"
	StepCanonicalize GenerationStep = "canonicalize"
	StepReadInputs   GenerationStep = "read-inputs"
	StepParseInputs  GenerationStep = "parse-inputs"
)

// GenerationError represents a failure while producing the email inputs
// record. Step identifies which stage of the generator failed; Path is the
// file artifact or command involved.
type GenerationError struct {
	Step GenerationStep
	Path string
	Err  error
}

func (e *GenerationError) Error() string {
	switch e.Step {
	case StepWriteEmail:
		return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
	case StepClearStale:
		return fmt.Sprintf("failed to delete %s: %v", e.Path, e.Err)
	case StepCanonicalize:
		return fmt.Sprintf("failed to run %s: %v", e.Path, e.Err)
	case StepReadInputs:
		return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
	case StepParseInputs:
		return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("input generation failed at %s for %s: %v", e.Step, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *GenerationError) Is(target error) bool {
	switch e.Step {
	case StepWriteEmail:
		return target == ErrEmailWrite
	case StepClearStale:
		return target == ErrStaleDelete
	case StepCanonicalize:
		return target == ErrCanonicalizerSpawn
	case StepReadInputs:
		return target == ErrInputsRead
	case StepParseInputs:
		return target == ErrInputsParse
	}
	return false
}

// ZKEmailError implements the ZKEmailError interface.
func (e *GenerationError) ZKEmailError() {}

// ProverStage identifies the failing stage of the Prover Orchestrator.
type ProverStage string

// Orchestrator stages.
const (
	StageExecute ProverStage = "execute"
	StageSetup   ProverStage = "setup"
	StageProve   ProverStage = "prove"
	StageVerify  ProverStage = "verify"
)

// ProverError represents a failure in the Prover Orchestrator. Backend
// names the prover capability implementation that reported the failure.
type ProverError struct {
	Stage   ProverStage
	Backend string
	Err     error
}

func (e *ProverError) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("prover %s failed (%s backend): %v", e.Stage, e.Backend, e.Err)
	}
	return fmt.Sprintf("prover %s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProverError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *ProverError) Is(target error) bool {
	switch e.Stage {
	case StageExecute:
		return target == ErrExecution
	case StageSetup:
		return target == ErrSetup
	case StageProve:
		return target == ErrProofGeneration
	case StageVerify:
		return target == ErrVerification
	}
	return false
}

// ZKEmailError implements the ZKEmailError interface.
func (e *ProverError) ZKEmailError() {}

// ValidationError reports which fields of an email inputs record are empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("email inputs are incomplete: missing %s", strings.Join(e.Missing, ", "))
}

// Is implements errors.Is for sentinel error matching.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInputs
}

// ZKEmailError implements the ZKEmailError interface.
func (e *ValidationError) ZKEmailError() {}

// wrapGenerationError converts internal canonicalize errors to public errors.
// This ensures that errors.Is() checks work with public sentinel errors.
func wrapGenerationError(err error) error {
	if err == nil {
		return nil
	}

	var genErr *canonicalize.Error
	if errors.As(err, &genErr) {
		return &GenerationError{
			Step: generationStep(genErr.Step),
			Path: genErr.Path,
			Err:  genErr.Err,
		}
	}

	return err
}

func generationStep(step canonicalize.Step) GenerationStep {
	switch step {
	case canonicalize.StepWriteEmail:
		return StepWriteEmail
	case canonicalize.StepClearStale:
		return StepClearStale
	case canonicalize.StepRunCanonicalizer:
		return StepCanonicalize
	case canonicalize.StepReadInputs:
		return StepReadInputs
	case canonicalize.StepParseInputs:
		return StepParseInputs
	}
	return GenerationStep(step)
}
