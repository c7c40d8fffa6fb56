package zkemail

import (
	"context"
	"fmt"
	"os"

	"github.com/zkemail/prover-go/internal/backend"
	"github.com/zkemail/prover-go/internal/canonicalize"
)

// Pipeline orchestrates one proof-generation run: raw email in, execution
// metrics or a verified proof out. A pipeline holds the program image as
// read-only shared data; one pipeline serves one run at a time.
type Pipeline struct {
	cfg     pipelineConfig
	image   *ProgramImage
	backend backend.Backend
}

// New creates a pipeline for the given program image.
func New(image *ProgramImage, opts ...Option) (*Pipeline, error) {
	if image == nil {
		return nil, ErrNilImage
	}

	cfg := defaultPipelineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	b, err := selectBackend(cfg.backend, image)
	if err != nil {
		return nil, err
	}

	return &Pipeline{cfg: cfg, image: image, backend: b}, nil
}

func selectBackend(kind BackendKind, image *ProgramImage) (backend.Backend, error) {
	switch kind {
	case BackendAuto, "":
		return backend.Select(image.Bytes()), nil
	default:
		return backend.ForName(string(kind))
	}
}

// Backend returns the name of the selected prover backend.
func (p *Pipeline) Backend() string {
	return p.backend.Name()
}

// GenerateInputs converts raw email text into the structured inputs
// record via the external canonicalizer. Every failure is fatal and
// carries the failing generator step.
func (p *Pipeline) GenerateInputs(ctx context.Context, emailText string) (*EmailInputs, error) {
	if p.cfg.canonTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.canonTimeout)
		defer cancel()
	}

	gen := canonicalize.New(canonicalize.Config{
		WorkDir:        p.cfg.workDir,
		EmailFileName:  p.cfg.emailFileName,
		InputsFileName: p.cfg.inputsFileName,
		Command:        p.cfg.canonicalizer,
	})

	raw, err := gen.Generate(ctx, emailText)
	if err != nil {
		return nil, wrapGenerationError(err)
	}

	inputs := &EmailInputs{
		PublicKey: raw.PublicKey,
		Signature: raw.Signature,
		Headers:   raw.Headers,
		Body:      raw.Body,
		BodyHash:  raw.BodyHash,
	}
	if err := inputs.Validate(); err != nil {
		return nil, err
	}
	return inputs, nil
}

// GenerateInputsFromFile reads the raw email from path and generates the
// inputs record. A missing or unreadable source fails the persist step:
// the canonicalizer cannot run without its input file, and no subprocess
// is spawned.
func (p *Pipeline) GenerateInputsFromFile(ctx context.Context, path string) (*EmailInputs, error) {
	email, err := os.ReadFile(path)
	if err != nil {
		return nil, &GenerationError{Step: StepWriteEmail, Path: path, Err: err}
	}
	return p.GenerateInputs(ctx, string(email))
}

// RunOutcome is the result of one pipeline run.
type RunOutcome struct {
	// Mode is the run mode that produced this outcome.
	Mode RunMode

	// Backend is the prover backend that ran.
	Backend string

	// Output is the program output (execute mode).
	Output []byte

	// Cycles is the instruction-count metric (execute mode).
	Cycles uint64

	// Proof is the serialized proof, for reporting (prove mode).
	Proof []byte

	// ProofVerified reports that the proof passed verification (prove mode).
	// Run never returns an outcome with a generated but unverified proof.
	ProofVerified bool
}

// Run drives the program through the selected mode. The two branches are
// mutually exclusive: execute measures cost without producing a trust
// artifact, prove produces the trust artifact and immediately verifies
// it. Failures abort the run and are never retried — both branches are
// deterministic, so a repeat would fail identically.
func (p *Pipeline) Run(ctx context.Context, mode RunMode, inputs *EmailInputs) (*RunOutcome, error) {
	switch mode {
	case ModeExecute, ModeProve:
	default:
		return nil, fmt.Errorf("%w: got %q", ErrModeConflict, mode)
	}
	if err := inputs.Validate(); err != nil {
		return nil, err
	}

	stdin, err := inputs.serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize inputs: %w", err)
	}

	if mode == ModeExecute {
		return p.runExecute(ctx, stdin)
	}
	return p.runProve(ctx, stdin)
}

func (p *Pipeline) runExecute(ctx context.Context, stdin []byte) (*RunOutcome, error) {
	output, cycles, err := p.backend.Execute(ctx, p.image.Bytes(), stdin)
	if err != nil {
		return nil, &ProverError{Stage: StageExecute, Backend: p.backend.Name(), Err: err}
	}
	return &RunOutcome{
		Mode:    ModeExecute,
		Backend: p.backend.Name(),
		Output:  output,
		Cycles:  cycles,
	}, nil
}

func (p *Pipeline) runProve(ctx context.Context, stdin []byte) (*RunOutcome, error) {
	pk, vk, err := p.backend.Setup(ctx, p.image.Bytes())
	if err != nil {
		return nil, &ProverError{Stage: StageSetup, Backend: p.backend.Name(), Err: err}
	}

	proveCtx := ctx
	if p.cfg.proveTimeout > 0 {
		var cancel context.CancelFunc
		proveCtx, cancel = context.WithTimeout(ctx, p.cfg.proveTimeout)
		defer cancel()
	}

	proof, err := p.backend.Prove(proveCtx, pk, stdin)
	if err != nil {
		return nil, &ProverError{Stage: StageProve, Backend: p.backend.Name(), Err: err}
	}

	if err := p.backend.Verify(proof, vk); err != nil {
		return nil, &ProverError{Stage: StageVerify, Backend: p.backend.Name(), Err: err}
	}

	return &RunOutcome{
		Mode:          ModeProve,
		Backend:       p.backend.Name(),
		Proof:         proof.Bytes(),
		ProofVerified: true,
	}, nil
}
