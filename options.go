package zkemail

import "time"

// RunMode selects what the pipeline does with the generated inputs.
type RunMode string

const (
	// ModeExecute runs the program and reports its instruction-count metric
	// without producing a trust artifact.
	ModeExecute RunMode = "execute"
	// ModeProve generates a cryptographic proof and immediately verifies it.
	ModeProve RunMode = "prove"
)

// SelectMode enforces that exactly one run mode was requested. Inconsistent
// mode selection makes all downstream work meaningless, so this is checked
// before anything else happens.
func SelectMode(execute, prove bool) (RunMode, error) {
	if execute == prove {
		return "", ErrModeConflict
	}
	if execute {
		return ModeExecute, nil
	}
	return ModeProve, nil
}

// BackendKind selects the prover capability implementation.
type BackendKind string

const (
	// BackendAuto detects the backend from the program image format.
	BackendAuto BackendKind = "auto"
	// BackendGroth16 uses the gnark Groth16 prover.
	BackendGroth16 BackendKind = "groth16"
	// BackendAttestation uses the ML-DSA-65 attestation prover.
	BackendAttestation BackendKind = "attestation"
)

const (
	defaultWorkDir        = "email-input"
	defaultEmailFileName  = "email.eml"
	defaultInputsFileName = "email-inputs.json"
	defaultCanonicalizer  = "node generate-email-inputs.js"
)

// pipelineConfig holds configuration for the pipeline.
type pipelineConfig struct {
	workDir        string
	emailFileName  string
	inputsFileName string
	canonicalizer  string
	backend        BackendKind
	canonTimeout   time.Duration
	proveTimeout   time.Duration
}

func defaultPipelineConfig() pipelineConfig {
	return pipelineConfig{
		workDir:        defaultWorkDir,
		emailFileName:  defaultEmailFileName,
		inputsFileName: defaultInputsFileName,
		canonicalizer:  defaultCanonicalizer,
		backend:        BackendAuto,
	}
}

// Option configures the pipeline.
type Option func(*pipelineConfig)

// WithWorkDir sets the directory holding the email and inputs artifacts.
// The canonicalizer runs with this directory as its working directory.
func WithWorkDir(dir string) Option {
	return func(c *pipelineConfig) {
		c.workDir = dir
	}
}

// WithCanonicalizer sets the shell command invoked to canonicalize the
// persisted email into the inputs artifact.
func WithCanonicalizer(command string) Option {
	return func(c *pipelineConfig) {
		c.canonicalizer = command
	}
}

// WithBackend selects the prover capability implementation.
func WithBackend(kind BackendKind) Option {
	return func(c *pipelineConfig) {
		c.backend = kind
	}
}

// WithCanonicalizerTimeout bounds the canonicalizer invocation. Zero means
// no deadline, which matches the historical behavior.
func WithCanonicalizerTimeout(d time.Duration) Option {
	return func(c *pipelineConfig) {
		c.canonTimeout = d
	}
}

// WithProveTimeout bounds proof generation. Zero means no deadline.
func WithProveTimeout(d time.Duration) Option {
	return func(c *pipelineConfig) {
		c.proveTimeout = d
	}
}
