package service

import (
	"os"

	"golang.org/x/term"
)

// IsInteractiveEnvironment reports whether stderr is a terminal a progress
// bar can usefully animate on, the way pyscn's reporter gates its own
// progress output.
func IsInteractiveEnvironment() bool {
	if os.Getenv("CI") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
