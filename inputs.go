package zkemail

import "encoding/json"

// EmailInputs is the canonical structured record the proving program
// consumes. It is produced by the external canonicalizer from a raw email
// and is immutable once built: the pipeline consumes it exactly once per
// run and never persists it beyond the run.
//
// All five fields must be non-empty for the record to be valid input to
// the program; use Validate before handing it to Run.
type EmailInputs struct {
	// PublicKey is the DKIM signing public key material.
	PublicKey string `json:"publicKey"`
	// Signature is the email's cryptographic signature.
	Signature string `json:"signature"`
	// Headers is the canonicalized header block.
	Headers string `json:"headers"`
	// Body is the canonicalized body.
	Body string `json:"body"`
	// BodyHash is the precomputed hash of the body.
	BodyHash string `json:"bodyHash"`
}

// Validate checks the five-field invariant and returns a ValidationError
// listing every empty field, or nil if the record is complete.
func (in *EmailInputs) Validate() error {
	if in == nil {
		return &ValidationError{Missing: []string{"publicKey", "signature", "headers", "body", "bodyHash"}}
	}

	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"publicKey", in.PublicKey},
		{"signature", in.Signature},
		{"headers", in.Headers},
		{"body", in.Body},
		{"bodyHash", in.BodyHash},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}

	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// serialize encodes the record in the field-keyed form the prover
// capability reads from its input stream.
func (in *EmailInputs) serialize() ([]byte, error) {
	return json.Marshal(in)
}
