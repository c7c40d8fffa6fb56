// Package canonicalize produces the structured email inputs record by
// delegating to an external canonicalizer process through a file-based
// handoff. The package owns the intermediate artifacts for the duration of
// a run: it persists the raw email, clears any stale output, invokes the
// canonicalizer, and reads back the record it wrote.
package canonicalize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Default artifact layout, shared with the external canonicalizer.
const (
	DefaultWorkDir        = "email-input"
	DefaultEmailFileName  = "email.eml"
	DefaultInputsFileName = "email-inputs.json"
	DefaultCommand        = "node generate-email-inputs.js"
)

// Inputs is the record the canonicalizer writes, field-keyed with
// lower-camel-case keys.
type Inputs struct {
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
	Headers   string `json:"headers"`
	Body      string `json:"body"`
	BodyHash  string `json:"bodyHash"`
}

// Config holds generator configuration. Zero values fall back to the
// default artifact layout.
type Config struct {
	// WorkDir is the directory holding both artifacts. The canonicalizer
	// runs with WorkDir as its working directory.
	WorkDir string

	// EmailFileName is the raw email artifact name inside WorkDir.
	EmailFileName string

	// InputsFileName is the canonicalizer output artifact name inside WorkDir.
	InputsFileName string

	// Command is the shell command that canonicalizes the email. It is run
	// as "sh -c <command>" inside WorkDir, the same convention the
	// canonicalizer scripts are written against.
	Command string
}

// Generator drives the external canonicalizer. It exclusively owns the
// artifacts under its work directory while Generate runs; there is no
// concurrent access to them by any other component.
type Generator struct {
	workDir    string
	emailFile  string
	inputsFile string
	command    string
}

// New creates a generator, filling unset config fields with defaults.
func New(cfg Config) *Generator {
	if cfg.WorkDir == "" {
		cfg.WorkDir = DefaultWorkDir
	}
	if cfg.EmailFileName == "" {
		cfg.EmailFileName = DefaultEmailFileName
	}
	if cfg.InputsFileName == "" {
		cfg.InputsFileName = DefaultInputsFileName
	}
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	return &Generator{
		workDir:    cfg.WorkDir,
		emailFile:  cfg.EmailFileName,
		inputsFile: cfg.InputsFileName,
		command:    cfg.Command,
	}
}

// EmailPath returns the path the raw email is persisted to.
func (g *Generator) EmailPath() string {
	return filepath.Join(g.workDir, g.emailFile)
}

// InputsPath returns the path the canonicalizer writes its output to.
func (g *Generator) InputsPath() string {
	return filepath.Join(g.workDir, g.inputsFile)
}

// Generate converts raw email text into a structured inputs record.
//
// The four steps run strictly in sequence, each awaiting the previous
// step's side effect: persist the email, clear any stale output artifact,
// invoke the canonicalizer and wait for it to exit, then read and parse
// the fresh artifact. Every failure is fatal to the run and carries the
// failing step.
func (g *Generator) Generate(ctx context.Context, emailText string) (*Inputs, error) {
	if err := g.writeEmail(ctx, emailText); err != nil {
		return nil, err
	}
	if err := g.clearStaleInputs(ctx); err != nil {
		return nil, err
	}
	if err := g.runCanonicalizer(ctx); err != nil {
		return nil, err
	}
	return g.readInputs()
}

func (g *Generator) writeEmail(ctx context.Context, emailText string) error {
	if err := ctx.Err(); err != nil {
		return &Error{Step: StepWriteEmail, Path: g.EmailPath(), Err: err}
	}
	if err := os.MkdirAll(g.workDir, 0o755); err != nil {
		return &Error{Step: StepWriteEmail, Path: g.EmailPath(), Err: err}
	}
	if err := os.WriteFile(g.EmailPath(), []byte(emailText), 0o644); err != nil {
		return &Error{Step: StepWriteEmail, Path: g.EmailPath(), Err: err}
	}
	return nil
}

// clearStaleInputs removes a leftover output artifact from a prior run.
// Without this, a canonicalizer that crashes before writing would leave
// the previous run's record to be silently read as fresh.
func (g *Generator) clearStaleInputs(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &Error{Step: StepClearStale, Path: g.InputsPath(), Err: err}
	}
	_, err := os.Stat(g.InputsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &Error{Step: StepClearStale, Path: g.InputsPath(), Err: err}
	}
	if err := os.Remove(g.InputsPath()); err != nil {
		return &Error{Step: StepClearStale, Path: g.InputsPath(), Err: err}
	}
	return nil
}

func (g *Generator) runCanonicalizer(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", g.command)
	cmd.Dir = g.workDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Report the canonicalizer's own diagnostics verbatim when it
		// produced any.
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return &Error{Step: StepRunCanonicalizer, Path: g.command, Err: err}
	}
	return nil
}

func (g *Generator) readInputs() (*Inputs, error) {
	data, err := os.ReadFile(g.InputsPath())
	if err != nil {
		return nil, &Error{Step: StepReadInputs, Path: g.InputsPath(), Err: err}
	}

	var inputs Inputs
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, &Error{Step: StepParseInputs, Path: g.InputsPath(), Err: err}
	}
	return &inputs, nil
}
