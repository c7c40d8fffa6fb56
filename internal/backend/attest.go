package backend

import (
	"bytes"
	"context"
	"crypto/sha512"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
	"golang.org/x/crypto/hkdf"
)

const attestationName = "attestation"

// Attestation transcript framing.
const (
	attestVersion = 1
	attestSuite   = "ML-DSA-65:SHA-512:HKDF-SHA-512"
	attestContext = "zkemail/attestation/v1"
	attestKeyInfo = "zkemail/attestation/keys/v1"
)

// AttestationBackend is a prover capability that signs an execution
// transcript with ML-DSA-65. Its keys are derived deterministically from
// the program image, so Setup is a pure function of the image.
type AttestationBackend struct{}

// NewAttestation creates the attestation backend.
func NewAttestation() *AttestationBackend {
	return &AttestationBackend{}
}

// Name returns the backend name.
func (b *AttestationBackend) Name() string {
	return attestationName
}

// AttestationImage returns a default program image for the attestation
// backend. Any non-Groth16 image is acceptable; this one exists so the CLI
// can materialize an artifact when none is present on disk.
func AttestationImage() []byte {
	return []byte("zka1:zkemail-attestation-program")
}

type attestProvingKey struct {
	imageDigest [sha512.Size]byte
	priv        *mldsa65.PrivateKey
}

func (k *attestProvingKey) Backend() string { return attestationName }

type attestVerifyingKey struct {
	imageDigest [sha512.Size]byte
	pub         *mldsa65.PublicKey
}

func (k *attestVerifyingKey) Backend() string { return attestationName }

type attestProof struct {
	imageDigest  [sha512.Size]byte
	inputsDigest [sha512.Size]byte
	sig          []byte
}

func (p *attestProof) Backend() string { return attestationName }

func (p *attestProof) Bytes() []byte {
	out := make([]byte, 0, len(p.imageDigest)+len(p.inputsDigest)+len(p.sig))
	out = append(out, p.imageDigest[:]...)
	out = append(out, p.inputsDigest[:]...)
	out = append(out, p.sig...)
	return out
}

// Execute checks the inputs record and reports the digest of the run as
// the program output, with the number of hash blocks processed as the
// cycle count. Identical (image, stdin) always yields identical results.
func (b *AttestationBackend) Execute(ctx context.Context, image, stdin []byte) ([]byte, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if _, err := decodeInputs(stdin); err != nil {
		return nil, 0, err
	}

	imageDigest := sha512.Sum512(image)
	inputsDigest := sha512.Sum512(stdin)
	output := sha512.Sum512(buildAttestTranscript(imageDigest, inputsDigest))

	cycles := uint64(len(image)+len(stdin))/sha512.BlockSize + 1
	return output[:], cycles, nil
}

// Setup derives the ML-DSA-65 keypair from the program image via
// HKDF-SHA-512. The same image always yields the same keys.
func (b *AttestationBackend) Setup(ctx context.Context, image []byte) (ProvingKey, VerifyingKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(image) == 0 {
		return nil, nil, fmt.Errorf("%w: image is empty", ErrBadImage)
	}

	var seed [mldsa65.SeedSize]byte
	reader := hkdf.New(sha512.New, image, nil, []byte(attestKeyInfo))
	if _, err := io.ReadFull(reader, seed[:]); err != nil {
		return nil, nil, fmt.Errorf("failed to derive key seed: %w", err)
	}

	pub, priv := mldsa65.NewKeyFromSeed(&seed)
	imageDigest := sha512.Sum512(image)

	return &attestProvingKey{imageDigest: imageDigest, priv: priv},
		&attestVerifyingKey{imageDigest: imageDigest, pub: pub},
		nil
}

// Prove signs the transcript binding the image and inputs digests.
func (b *AttestationBackend) Prove(ctx context.Context, pk ProvingKey, stdin []byte) (Proof, error) {
	key, ok := pk.(*attestProvingKey)
	if !ok {
		return nil, fmt.Errorf("%w: got %s proving key", ErrKeyMismatch, pk.Backend())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := decodeInputs(stdin); err != nil {
		return nil, err
	}

	inputsDigest := sha512.Sum512(stdin)
	transcript := buildAttestTranscript(key.imageDigest, inputsDigest)

	sig := make([]byte, mldsa65.SignatureSize)
	if err := mldsa65.SignTo(key.priv, transcript, nil, false, sig); err != nil {
		return nil, fmt.Errorf("failed to sign transcript: %w", err)
	}

	return &attestProof{
		imageDigest:  key.imageDigest,
		inputsDigest: inputsDigest,
		sig:          sig,
	}, nil
}

// Verify rebuilds the transcript from the proof and checks its signature
// against the verifying key.
func (b *AttestationBackend) Verify(proof Proof, vk VerifyingKey) error {
	p, ok := proof.(*attestProof)
	if !ok {
		return fmt.Errorf("%w: got %s proof", ErrProofMismatch, proof.Backend())
	}
	key, ok := vk.(*attestVerifyingKey)
	if !ok {
		return fmt.Errorf("%w: got %s verifying key", ErrKeyMismatch, vk.Backend())
	}

	if !bytes.Equal(p.imageDigest[:], key.imageDigest[:]) {
		return fmt.Errorf("%w: proof was generated for a different program image", ErrProofInvalid)
	}

	transcript := buildAttestTranscript(p.imageDigest, p.inputsDigest)
	if !mldsa65.Verify(key.pub, transcript, nil, p.sig) {
		return fmt.Errorf("%w: transcript signature check failed", ErrProofInvalid)
	}
	return nil
}

// buildAttestTranscript constructs the signed transcript. The framing is
// version, ciphersuite, context string, then the raw digests.
func buildAttestTranscript(imageDigest, inputsDigest [sha512.Size]byte) []byte {
	transcript := []byte{byte(attestVersion)}
	transcript = append(transcript, []byte(attestSuite)...)
	transcript = append(transcript, []byte(attestContext)...)
	transcript = append(transcript, imageDigest[:]...)
	transcript = append(transcript, inputsDigest[:]...)
	return transcript
}
