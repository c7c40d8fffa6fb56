package backend

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestAttestationExecute(t *testing.T) {
	t.Parallel()

	b := NewAttestation()
	image := AttestationImage()

	output, cycles, err := b.Execute(context.Background(), image, []byte(validStdin))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output) == 0 {
		t.Error("expected program output")
	}
	if cycles == 0 {
		t.Error("expected non-zero cycle count")
	}

	// Execution is deterministic: identical inputs yield identical results.
	output2, cycles2, err := b.Execute(context.Background(), image, []byte(validStdin))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cycles != cycles2 || !bytes.Equal(output, output2) {
		t.Error("execution results differ across identical runs")
	}
}

func TestAttestationExecuteBadStdin(t *testing.T) {
	t.Parallel()

	b := NewAttestation()
	if _, _, err := b.Execute(context.Background(), AttestationImage(), []byte("garbage")); !errors.Is(err, ErrBadStdin) {
		t.Errorf("expected ErrBadStdin, got %v", err)
	}
}

func TestAttestationSetupDeterministic(t *testing.T) {
	t.Parallel()

	b := NewAttestation()
	image := AttestationImage()

	pk1, vk1, err := b.Setup(context.Background(), image)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, vk2, err := b.Setup(context.Background(), image)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Keys are a pure function of the image: a proof from the first setup
	// must verify against the second setup's verifying key.
	proof, err := b.Prove(context.Background(), pk1, []byte(validStdin))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Verify(proof, vk1); err != nil {
		t.Errorf("verification against same-setup key failed: %v", err)
	}
	if err := b.Verify(proof, vk2); err != nil {
		t.Errorf("verification against re-derived key failed: %v", err)
	}
}

func TestAttestationSetupEmptyImage(t *testing.T) {
	t.Parallel()

	b := NewAttestation()
	if _, _, err := b.Setup(context.Background(), nil); !errors.Is(err, ErrBadImage) {
		t.Errorf("expected ErrBadImage, got %v", err)
	}
}

func TestAttestationProveVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	b := NewAttestation()
	pk, vk, err := b.Setup(context.Background(), AttestationImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	proof, err := b.Prove(context.Background(), pk, []byte(validStdin))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proof.Bytes()) == 0 {
		t.Error("expected serialized proof bytes")
	}

	if err := b.Verify(proof, vk); err != nil {
		t.Errorf("round-trip verification failed: %v", err)
	}
}

func TestAttestationVerifyMismatchedImage(t *testing.T) {
	t.Parallel()

	b := NewAttestation()
	pk, _, err := b.Setup(context.Background(), AttestationImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, otherVK, err := b.Setup(context.Background(), []byte("a different program"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	proof, err := b.Prove(context.Background(), pk, []byte(validStdin))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := b.Verify(proof, otherVK); !errors.Is(err, ErrProofInvalid) {
		t.Errorf("expected ErrProofInvalid for mismatched key, got %v", err)
	}
}

func TestAttestationVerifyCorruptedProof(t *testing.T) {
	t.Parallel()

	b := NewAttestation()
	pk, vk, err := b.Setup(context.Background(), AttestationImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	proof, err := b.Prove(context.Background(), pk, []byte(validStdin))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := proof.(*attestProof)
	p.sig[0] ^= 0xff

	if err := b.Verify(p, vk); !errors.Is(err, ErrProofInvalid) {
		t.Errorf("expected ErrProofInvalid for corrupted proof, got %v", err)
	}
}

func TestAttestationVerifyTamperedInputs(t *testing.T) {
	t.Parallel()

	b := NewAttestation()
	pk, vk, err := b.Setup(context.Background(), AttestationImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	proof, err := b.Prove(context.Background(), pk, []byte(validStdin))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := proof.(*attestProof)
	p.inputsDigest[0] ^= 0xff

	if err := b.Verify(p, vk); !errors.Is(err, ErrProofInvalid) {
		t.Errorf("expected ErrProofInvalid for tampered inputs digest, got %v", err)
	}
}

func TestAttestationKeyTypeMismatch(t *testing.T) {
	t.Parallel()

	attest := NewAttestation()
	g16 := NewGroth16()

	pk, vk, err := g16.Setup(context.Background(), compileTestImage(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := attest.Prove(context.Background(), pk, []byte(validStdin)); !errors.Is(err, ErrKeyMismatch) {
		t.Errorf("expected ErrKeyMismatch, got %v", err)
	}

	attestPK, _, err := attest.Setup(context.Background(), AttestationImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proof, err := attest.Prove(context.Background(), attestPK, []byte(validStdin))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := attest.Verify(proof, vk); !errors.Is(err, ErrKeyMismatch) {
		t.Errorf("expected ErrKeyMismatch, got %v", err)
	}
}
