package zkemail

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func validInputs() *EmailInputs {
	return &EmailInputs{
		PublicKey: "MIIBIjANBgkq",
		Signature: "dGVzdC1zaWc=",
		Headers:   "from:alice@example.com\r\nsubject:hello",
		Body:      "hello world\r\n",
		BodyHash:  "2jmj7l5rSw0yVb/vlWAYkK/YBwk=",
	}
}

func TestEmailInputs_Validate(t *testing.T) {
	t.Parallel()

	if err := validInputs().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmailInputs_ValidateMissingFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*EmailInputs)
		missing []string
	}{
		{
			name:    "missing public key",
			mutate:  func(in *EmailInputs) { in.PublicKey = "" },
			missing: []string{"publicKey"},
		},
		{
			name:    "missing signature",
			mutate:  func(in *EmailInputs) { in.Signature = "" },
			missing: []string{"signature"},
		},
		{
			name:    "missing headers",
			mutate:  func(in *EmailInputs) { in.Headers = "" },
			missing: []string{"headers"},
		},
		{
			name:    "missing body",
			mutate:  func(in *EmailInputs) { in.Body = "" },
			missing: []string{"body"},
		},
		{
			name:    "missing body hash",
			mutate:  func(in *EmailInputs) { in.BodyHash = "" },
			missing: []string{"bodyHash"},
		},
		{
			name: "multiple missing",
			mutate: func(in *EmailInputs) {
				in.Signature = ""
				in.BodyHash = ""
			},
			missing: []string{"signature", "bodyHash"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInputs()
			tt.mutate(in)

			err := in.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidInputs) {
				t.Errorf("expected ErrInvalidInputs, got %v", err)
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if len(vErr.Missing) != len(tt.missing) {
				t.Fatalf("Missing = %v, want %v", vErr.Missing, tt.missing)
			}
			for i, field := range tt.missing {
				if vErr.Missing[i] != field {
					t.Errorf("Missing[%d] = %q, want %q", i, vErr.Missing[i], field)
				}
			}
		})
	}
}

func TestEmailInputs_ValidateNil(t *testing.T) {
	t.Parallel()

	var in *EmailInputs
	err := in.Validate()
	if !errors.Is(err, ErrInvalidInputs) {
		t.Fatalf("expected ErrInvalidInputs, got %v", err)
	}
}

func TestEmailInputs_SerializeKeys(t *testing.T) {
	t.Parallel()

	data, err := validInputs().serialize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("serialized record is not valid JSON: %v", err)
	}

	// The artifact contract uses lower-camel-case keys.
	for _, key := range []string{"publicKey", "signature", "headers", "body", "bodyHash"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("serialized record missing key %q (got %s)", key, strings.Join(keysOf(raw), ", "))
		}
	}
}

func keysOf(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
