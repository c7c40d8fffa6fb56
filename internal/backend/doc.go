// Package backend provides prover capability implementations for the
// zkemail pipeline. A backend exposes the four operations the orchestrator
// consumes — execute, setup, prove, verify — and is otherwise opaque: the
// pipeline makes no assumption about the proof system behind it.
//
// # Backends
//
// The package implements two backends:
//
//   - [Groth16Backend]: a gnark Groth16 prover over BN254 driving a MiMC
//     input-commitment circuit. Its program images are compiled constraint
//     systems produced by [CompileImage].
//
//   - [AttestationBackend]: an ML-DSA-65 transcript signer with keys
//     derived deterministically from the program image via HKDF-SHA-512.
//     Setup is a pure function of the image, so the same image always
//     yields the same verifying key.
//
// # Selection
//
// [Select] picks a backend by sniffing the image header, and [ForName]
// resolves an explicit backend name:
//
//	b := backend.Select(image)
//	pk, vk, err := b.Setup(ctx, image)
//	proof, err := b.Prove(ctx, pk, stdin)
//	err = b.Verify(proof, vk)
//
// # Determinism
//
// Execute is deterministic for both backends: identical (image, stdin)
// pairs yield identical outputs and cycle counts. Groth16 setup draws
// trusted-setup randomness, so its keys differ between runs; proofs only
// verify against the verifying key from the same setup.
package backend
