// Command zkemail drives the email proof pipeline: it canonicalizes a raw
// email through the external canonicalizer, then either executes the
// zero-knowledge program and reports its cycle count (--execute) or
// generates and verifies a proof (--prove).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	zkemail "github.com/zkemail/prover-go"
	"github.com/zkemail/prover-go/internal/backend"
)

const defaultEmailPath = "test-emails/test-email.eml"
const defaultImagePath = "zkemail-program.bin"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// A missing .env is fine; explicit env vars always apply either way.
	_ = godotenv.Load()

	flags := flag.NewFlagSet("zkemail", flag.ContinueOnError)
	flags.SetOutput(stderr)

	execute := flags.Bool("execute", false, "execute the program and report the cycle count")
	prove := flags.Bool("prove", false, "generate a proof and verify it")
	emailPath := flags.String("email", envOr("ZKEMAIL_EMAIL", defaultEmailPath), "path to the raw email file")
	workDir := flags.String("workdir", envOr("ZKEMAIL_WORKDIR", ""), "canonicalizer working directory")
	backendName := flags.String("backend", envOr("ZKEMAIL_BACKEND", ""), "prover backend: groth16 or attestation (default: detect from image)")
	imagePath := flags.String("image", envOr("ZKEMAIL_IMAGE", defaultImagePath), "path to the program image artifact")
	canonicalizer := flags.String("canonicalizer", envOr("ZKEMAIL_CANONICALIZER", ""), "shell command that canonicalizes the email")

	if err := flags.Parse(args); err != nil {
		return 1
	}

	mode, err := zkemail.SelectMode(*execute, *prove)
	if err != nil {
		fmt.Fprintln(stderr, "Error: You must specify either --execute or --prove")
		return 1
	}

	image, err := loadOrBuildImage(*imagePath, *backendName)
	if err != nil {
		fmt.Fprintf(stderr, "zkemail: %v\n", err)
		return 1
	}

	opts := []zkemail.Option{}
	if *workDir != "" {
		opts = append(opts, zkemail.WithWorkDir(*workDir))
	}
	if *backendName != "" {
		opts = append(opts, zkemail.WithBackend(zkemail.BackendKind(*backendName)))
	}
	if *canonicalizer != "" {
		opts = append(opts, zkemail.WithCanonicalizer(*canonicalizer))
	}

	p, err := zkemail.New(image, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "zkemail: %v\n", err)
		return 1
	}

	ctx := context.Background()

	inputs, err := p.GenerateInputsFromFile(ctx, *emailPath)
	if err != nil {
		fmt.Fprintf(stderr, "zkemail: %v\n", err)
		return 1
	}

	outcome, err := p.Run(ctx, mode, inputs)
	if err != nil {
		fmt.Fprintf(stderr, "zkemail: %v\n", err)
		return 1
	}

	fmt.Fprint(stdout, outcome.Report())
	return 0
}

// loadOrBuildImage loads the pre-built program artifact, materializing one
// on first run when none exists yet.
func loadOrBuildImage(path, backendName string) (*zkemail.ProgramImage, error) {
	if _, err := os.Stat(path); err == nil {
		return zkemail.LoadProgramImage(path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat program image %s: %w", path, err)
	}

	var data []byte
	if backendName == string(zkemail.BackendAttestation) {
		data = backend.AttestationImage()
	} else {
		var err error
		data, err = backend.CompileImage()
		if err != nil {
			return nil, err
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write program image %s: %w", path, err)
	}
	return zkemail.NewProgramImage(data)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
