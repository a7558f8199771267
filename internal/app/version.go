package app

import (
	"fmt"
	"io"
)

// Version is the application version. Overridden at build time via
// -ldflags "-X github.com/agbru/fibserve/internal/app.Version=...".
var Version = "dev"

// HasVersionFlag reports whether the arguments request the version.
//
// Parameters:
//   - args: The command-line arguments, excluding the program name.
//
// Returns:
//   - bool: true when --version or -version is present.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--version" || arg == "-version" {
			return true
		}
	}
	return false
}

// PrintVersion writes the version banner.
//
// Parameters:
//   - w: The destination writer.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "fibserve %s\n", Version)
}
