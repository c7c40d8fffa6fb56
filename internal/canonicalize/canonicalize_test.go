package canonicalize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const freshRecord = `{"publicKey":"pk","signature":"sig","headers":"h","body":"b","bodyHash":"bh"}`

// writeRecordCommand emits a canonicalizer stand-in that writes the given
// content to the output artifact, after asserting the email artifact exists.
func writeRecordCommand(content string) string {
	return `test -f email.eml && printf '%s' '` + content + `' > email-inputs.json`
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	g := New(Config{
		WorkDir: t.TempDir(),
		Command: writeRecordCommand(freshRecord),
	})

	inputs, err := g.Generate(context.Background(), "raw email")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Inputs{PublicKey: "pk", Signature: "sig", Headers: "h", Body: "b", BodyHash: "bh"}
	if *inputs != want {
		t.Errorf("inputs = %+v, want %+v", *inputs, want)
	}
}

func TestGeneratePersistsEmailFirst(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// The stand-in copies the persisted email into the record, proving the
	// write completed before the canonicalizer ran.
	g := New(Config{
		WorkDir: dir,
		Command: `printf '{"publicKey":"pk","signature":"sig","headers":"h","body":"%s","bodyHash":"bh"}' "$(cat email.eml)" > email-inputs.json`,
	})

	inputs, err := g.Generate(context.Background(), "the raw email")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inputs.Body != "the raw email" {
		t.Errorf("Body = %q, want the persisted email text", inputs.Body)
	}
}

func TestGenerateClearsStaleArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stale := `{"publicKey":"stale","signature":"stale","headers":"stale","body":"stale","bodyHash":"stale"}`
	if err := os.WriteFile(filepath.Join(dir, DefaultInputsFileName), []byte(stale), 0o644); err != nil {
		t.Fatal(err)
	}

	// The canonicalizer exits successfully without writing, so a leftover
	// artifact would be silently read as fresh if not cleared first.
	g := New(Config{WorkDir: dir, Command: "true"})

	_, err := g.Generate(context.Background(), "raw")
	var genErr *Error
	if !errors.As(err, &genErr) || genErr.Step != StepReadInputs {
		t.Fatalf("expected read-inputs failure after stale clear, got %v", err)
	}
}

func TestGenerateStaleReplacedByFresh(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stale := `{"publicKey":"stale","signature":"stale","headers":"stale","body":"stale","bodyHash":"stale"}`
	if err := os.WriteFile(filepath.Join(dir, DefaultInputsFileName), []byte(stale), 0o644); err != nil {
		t.Fatal(err)
	}

	g := New(Config{WorkDir: dir, Command: writeRecordCommand(freshRecord)})

	inputs, err := g.Generate(context.Background(), "raw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inputs.PublicKey == "stale" {
		t.Error("generator returned the stale record")
	}
}

func TestGenerateWriteFailure(t *testing.T) {
	t.Parallel()

	// A regular file where the work directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	g := New(Config{WorkDir: filepath.Join(blocker, "work"), Command: "true"})

	_, err := g.Generate(context.Background(), "raw")
	var genErr *Error
	if !errors.As(err, &genErr) || genErr.Step != StepWriteEmail {
		t.Fatalf("expected write-email failure, got %v", err)
	}
}

func TestGenerateSpawnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		command string
	}{
		{"missing binary", "definitely-not-a-real-canonicalizer-binary"},
		{"non-zero exit", "exit 3"},
		{"non-zero exit with stderr", `echo "parse failure on header" >&2; exit 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(Config{WorkDir: t.TempDir(), Command: tt.command})

			_, err := g.Generate(context.Background(), "raw")
			var genErr *Error
			if !errors.As(err, &genErr) || genErr.Step != StepRunCanonicalizer {
				t.Fatalf("expected run-canonicalizer failure, got %v", err)
			}
		})
	}
}

func TestGenerateMissingArtifact(t *testing.T) {
	t.Parallel()

	g := New(Config{WorkDir: t.TempDir(), Command: "true"})

	_, err := g.Generate(context.Background(), "raw")
	var genErr *Error
	if !errors.As(err, &genErr) || genErr.Step != StepReadInputs {
		t.Fatalf("expected read-inputs failure, got %v", err)
	}
}

func TestGenerateMalformedArtifact(t *testing.T) {
	t.Parallel()

	g := New(Config{
		WorkDir: t.TempDir(),
		Command: `printf 'not json at all' > email-inputs.json`,
	})

	_, err := g.Generate(context.Background(), "raw")
	var genErr *Error
	if !errors.As(err, &genErr) || genErr.Step != StepParseInputs {
		t.Fatalf("expected parse-inputs failure, got %v", err)
	}
}

func TestGenerateCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New(Config{WorkDir: t.TempDir(), Command: "true"})
	if _, err := g.Generate(ctx, "raw"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	g := New(Config{})
	if g.EmailPath() != filepath.Join(DefaultWorkDir, DefaultEmailFileName) {
		t.Errorf("EmailPath() = %q", g.EmailPath())
	}
	if g.InputsPath() != filepath.Join(DefaultWorkDir, DefaultInputsFileName) {
		t.Errorf("InputsPath() = %q", g.InputsPath())
	}
}
