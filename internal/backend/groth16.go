package backend

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	frmimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/hash/mimc"
)

const groth16Name = "groth16"

// groth16ImageMagic prefixes serialized compiled-circuit images.
const groth16ImageMagic = "zkg1"

// inputCommitmentCircuit binds the five email input fields to a public
// MiMC commitment. The constraint logic of the real signature-checking
// program lives outside this system's boundary; this circuit is the
// commitment program the pipeline drives.
type inputCommitmentCircuit struct {
	PublicKey frontend.Variable `gnark:",secret"`
	Signature frontend.Variable `gnark:",secret"`
	Headers   frontend.Variable `gnark:",secret"`
	Body      frontend.Variable `gnark:",secret"`
	BodyHash  frontend.Variable `gnark:",secret"`

	Commitment frontend.Variable `gnark:",public"`
}

func (c *inputCommitmentCircuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.PublicKey, c.Signature, c.Headers, c.Body, c.BodyHash)
	api.AssertIsEqual(c.Commitment, h.Sum())
	return nil
}

// Groth16Backend is the gnark Groth16 prover capability over BN254.
type Groth16Backend struct{}

// NewGroth16 creates the Groth16 backend.
func NewGroth16() *Groth16Backend {
	return &Groth16Backend{}
}

// Name returns the backend name.
func (b *Groth16Backend) Name() string {
	return groth16Name
}

// CompileImage compiles the commitment circuit and serializes it as a
// program image loadable by the Groth16 backend.
func CompileImage() ([]byte, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &inputCommitmentCircuit{})
	if err != nil {
		return nil, fmt.Errorf("failed to compile circuit: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(groth16ImageMagic)
	if _, err := ccs.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize circuit: %w", err)
	}
	return buf.Bytes(), nil
}

// IsGroth16Image reports whether the image holds a serialized compiled circuit.
func IsGroth16Image(image []byte) bool {
	return len(image) > len(groth16ImageMagic) && string(image[:len(groth16ImageMagic)]) == groth16ImageMagic
}

func loadConstraintSystem(image []byte) (constraint.ConstraintSystem, error) {
	if !IsGroth16Image(image) {
		return nil, fmt.Errorf("%w: missing %q header", ErrBadImage, groth16ImageMagic)
	}
	ccs := groth16.NewCS(ecc.BN254)
	if _, err := ccs.ReadFrom(bytes.NewReader(image[len(groth16ImageMagic):])); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	return ccs, nil
}

type groth16ProvingKey struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
}

func (k *groth16ProvingKey) Backend() string { return groth16Name }

type groth16VerifyingKey struct {
	vk groth16.VerifyingKey
}

func (k *groth16VerifyingKey) Backend() string { return groth16Name }

type groth16Proof struct {
	proof  groth16.Proof
	public witness.Witness
}

func (p *groth16Proof) Backend() string { return groth16Name }

func (p *groth16Proof) Bytes() []byte {
	var buf bytes.Buffer
	if _, err := p.proof.WriteTo(&buf); err != nil {
		return nil
	}
	return buf.Bytes()
}

// Execute solves the circuit witness for the given inputs and reports the
// public commitment as the program output, with the constraint count as
// the cycle metric.
func (b *Groth16Backend) Execute(ctx context.Context, image, stdin []byte) ([]byte, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	ccs, err := loadConstraintSystem(image)
	if err != nil {
		return nil, 0, err
	}

	assignment, commitment, err := buildAssignment(stdin)
	if err != nil {
		return nil, 0, err
	}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build witness: %w", err)
	}
	if _, err := ccs.Solve(w); err != nil {
		return nil, 0, fmt.Errorf("witness solving failed: %w", err)
	}

	return commitment, uint64(ccs.GetNbConstraints()), nil
}

// Setup runs the Groth16 trusted setup over the compiled circuit.
func (b *Groth16Backend) Setup(ctx context.Context, image []byte) (ProvingKey, VerifyingKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ccs, err := loadConstraintSystem(image)
	if err != nil {
		return nil, nil, err
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, fmt.Errorf("groth16 setup failed: %w", err)
	}
	return &groth16ProvingKey{ccs: ccs, pk: pk}, &groth16VerifyingKey{vk: vk}, nil
}

// Prove generates a Groth16 proof over the inputs. The returned proof
// carries its public witness; the verifying key and proof together are
// all that verification needs.
func (b *Groth16Backend) Prove(ctx context.Context, pk ProvingKey, stdin []byte) (Proof, error) {
	key, ok := pk.(*groth16ProvingKey)
	if !ok {
		return nil, fmt.Errorf("%w: got %s proving key", ErrKeyMismatch, pk.Backend())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assignment, _, err := buildAssignment(stdin)
	if err != nil {
		return nil, err
	}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("failed to build witness: %w", err)
	}

	proof, err := groth16.Prove(key.ccs, key.pk, w)
	if err != nil {
		return nil, fmt.Errorf("groth16 prove failed: %w", err)
	}

	public, err := w.Public()
	if err != nil {
		return nil, fmt.Errorf("failed to extract public witness: %w", err)
	}
	return &groth16Proof{proof: proof, public: public}, nil
}

// Verify checks the proof against the verifying key and the proof's
// public witness.
func (b *Groth16Backend) Verify(proof Proof, vk VerifyingKey) error {
	p, ok := proof.(*groth16Proof)
	if !ok {
		return fmt.Errorf("%w: got %s proof", ErrProofMismatch, proof.Backend())
	}
	key, ok := vk.(*groth16VerifyingKey)
	if !ok {
		return fmt.Errorf("%w: got %s verifying key", ErrKeyMismatch, vk.Backend())
	}

	if err := groth16.Verify(p.proof, key.vk, p.public); err != nil {
		return fmt.Errorf("%w: %v", ErrProofInvalid, err)
	}
	return nil
}

// buildAssignment maps the serialized inputs onto circuit variables and
// computes the matching public commitment. Each string field is hashed
// into a BN254 scalar; the commitment is the MiMC hash of the five
// scalars, computed the same way the circuit does.
func buildAssignment(stdin []byte) (*inputCommitmentCircuit, []byte, error) {
	in, err := decodeInputs(stdin)
	if err != nil {
		return nil, nil, err
	}

	elems := []fr.Element{
		fieldElement(in.PublicKey),
		fieldElement(in.Signature),
		fieldElement(in.Headers),
		fieldElement(in.Body),
		fieldElement(in.BodyHash),
	}

	hasher := frmimc.NewMiMC()
	for i := range elems {
		b := elems[i].Bytes()
		hasher.Write(b[:])
	}
	commitment := hasher.Sum(nil)

	var c fr.Element
	c.SetBytes(commitment)

	return &inputCommitmentCircuit{
		PublicKey:  elems[0],
		Signature:  elems[1],
		Headers:    elems[2],
		Body:       elems[3],
		BodyHash:   elems[4],
		Commitment: c,
	}, commitment, nil
}

func fieldElement(s string) fr.Element {
	digest := sha256.Sum256([]byte(s))
	var e fr.Element
	e.SetBytes(digest[:])
	return e
}
