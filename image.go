package zkemail

import (
	"fmt"
	"os"
)

// ProgramImage is the pre-built binary artifact of the zero-knowledge
// program. It is loaded once at process start and shared read-only across
// whichever mode runs; this system never builds or modifies it.
type ProgramImage struct {
	data []byte
}

// NewProgramImage wraps a pre-built program artifact.
func NewProgramImage(data []byte) (*ProgramImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image is empty", ErrNilImage)
	}
	return &ProgramImage{data: data}, nil
}

// LoadProgramImage reads a program artifact from disk.
func LoadProgramImage(path string) (*ProgramImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load program image %s: %w", path, err)
	}
	return NewProgramImage(data)
}

// Bytes returns the raw artifact. The image is read-only shared data;
// callers must not modify the returned slice.
func (img *ProgramImage) Bytes() []byte {
	return img.data
}
