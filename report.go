package zkemail

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Report renders the outcome as human-readable text. It has no side
// effects and no error paths: any upstream failure was already reported
// by the component that detected it.
func (o *RunOutcome) Report() string {
	var b strings.Builder

	switch o.Mode {
	case ModeExecute:
		b.WriteString("Program executed successfully.\n")
		fmt.Fprintf(&b, "Output: 0x%s\n", hex.EncodeToString(o.Output))
		fmt.Fprintf(&b, "Number of cycles: %d\n", o.Cycles)
	case ModeProve:
		b.WriteString("Successfully generated proof!\n")
		if o.ProofVerified {
			b.WriteString("Successfully verified proof!\n")
		}
	}

	return b.String()
}
