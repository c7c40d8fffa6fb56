package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Backend errors.
var (
	// ErrUnknownBackend is returned for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown prover backend")

	// ErrKeyMismatch is returned when a key was produced by a different backend.
	ErrKeyMismatch = errors.New("key does not belong to this backend")

	// ErrProofMismatch is returned when a proof was produced by a different backend.
	ErrProofMismatch = errors.New("proof does not belong to this backend")

	// ErrBadImage is returned when a program image cannot be loaded by the backend.
	ErrBadImage = errors.New("invalid program image")

	// ErrBadStdin is returned when the serialized inputs are not a valid record.
	ErrBadStdin = errors.New("invalid program input")

	// ErrProofInvalid is returned when a proof fails verification.
	ErrProofInvalid = errors.New("proof is invalid")
)

// ProvingKey is an opaque proving key bound to the backend that produced it.
type ProvingKey interface {
	// Backend returns the name of the producing backend.
	Backend() string
}

// VerifyingKey is an opaque verifying key bound to the backend that produced it.
type VerifyingKey interface {
	// Backend returns the name of the producing backend.
	Backend() string
}

// Proof is an opaque proof object. Together with the matching verifying
// key it is everything needed for verification.
type Proof interface {
	// Backend returns the name of the producing backend.
	Backend() string

	// Bytes returns a serialized form of the proof, for reporting.
	Bytes() []byte
}

// Backend is the prover capability consumed by the pipeline. The pipeline
// treats implementations as opaque and makes no assumption about their
// proof system.
//
// The typical prove-mode lifecycle is:
//  1. Setup(image) derives the (proving key, verifying key) pair
//  2. Prove(pk, stdin) generates a proof over the serialized inputs
//  3. Verify(proof, vk) checks the proof
//
// Execute is the cheap, side-effect-free counterpart: it runs the program
// against the inputs and reports a cycle-count metric without producing a
// trust artifact. All methods are safe for concurrent use; the image is
// read-only shared data.
type Backend interface {
	// Name returns the backend name for selection and error reporting.
	Name() string

	// Execute runs the program image against the serialized inputs and
	// returns the program output and the cycle count. Execution is
	// deterministic: identical (image, stdin) yields identical results.
	Execute(ctx context.Context, image, stdin []byte) (output []byte, cycles uint64, err error)

	// Setup derives the proving and verifying keys from the program image.
	Setup(ctx context.Context, image []byte) (ProvingKey, VerifyingKey, error)

	// Prove generates a proof from the proving key and serialized inputs.
	// This is the most resource-intensive step.
	Prove(ctx context.Context, pk ProvingKey, stdin []byte) (Proof, error)

	// Verify checks a proof against the verifying key. A failure is always
	// surfaced: a silently accepted invalid proof would defeat the
	// system's purpose.
	Verify(proof Proof, vk VerifyingKey) error
}

// Select picks the backend matching the program image format: Groth16 for
// compiled-circuit images, attestation for everything else.
func Select(image []byte) Backend {
	if IsGroth16Image(image) {
		return NewGroth16()
	}
	return NewAttestation()
}

// ForName returns the backend with the given name.
func ForName(name string) (Backend, error) {
	switch name {
	case groth16Name:
		return NewGroth16(), nil
	case attestationName:
		return NewAttestation(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

// emailInputs mirrors the serialized record the pipeline writes to the
// program's input stream.
type emailInputs struct {
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
	Headers   string `json:"headers"`
	Body      string `json:"body"`
	BodyHash  string `json:"bodyHash"`
}

// decodeInputs parses the serialized inputs. A malformed or incomplete
// record is the program-trap analog for both backends.
func decodeInputs(stdin []byte) (*emailInputs, error) {
	var in emailInputs
	if err := json.Unmarshal(stdin, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadStdin, err)
	}
	if in.PublicKey == "" || in.Signature == "" || in.Headers == "" || in.Body == "" || in.BodyHash == "" {
		return nil, fmt.Errorf("%w: record has empty fields", ErrBadStdin)
	}
	return &in, nil
}
