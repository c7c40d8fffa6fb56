// Package zkemail drives generation of a verifiable proof that an email
// message carries a valid authentication signature, without exposing the
// raw email to the verifier.
//
// The pipeline converts a raw email into a canonical five-field input
// record via an external canonicalizer process, then runs a zkVM-style
// program image against the record in one of two modes: execute (measure
// instruction cost without producing a trust artifact) or prove (generate
// a cryptographic proof and immediately verify it).
//
// Basic usage:
//
//	image, err := zkemail.LoadProgramImage("zkemail-program.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p, err := zkemail.New(image)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inputs, err := p.GenerateInputs(ctx, rawEmail)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	outcome, err := p.Run(ctx, zkemail.ModeProve, inputs)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Print(outcome.Report())
//
// Every pipeline step is fatal on failure: each stage's precondition is
// that the previous stage definitely succeeded, and none of the steps are
// safe to retry blindly. Errors carry the failing step and are never
// swallowed.
package zkemail
