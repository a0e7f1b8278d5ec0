// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"sync"
)

const (
	// ConfinementNone means paxy runs directly on the host.
	ConfinementNone Confinement = ""
	// ConfinementFlatpak means paxy runs inside a Flatpak sandbox.
	ConfinementFlatpak Confinement = "flatpak"
	// ConfinementSnap means paxy runs inside a Snap.
	ConfinementSnap Confinement = "snap"

	flatpakInfoPath = "/.flatpak-info"
)

// detectOnce caches the confinement for the lifetime of the process.
//
// INVARIANT: confinementFrom MUST NOT panic. sync.OnceValue re-panics on
// every call after a panicking first call.
var detectOnce = sync.OnceValue(func() Confinement {
	return confinementFrom(os.Getenv, statFile)
})

// Confinement identifies the application sandbox paxy runs in, if any.
type Confinement string

// DetectConfinement returns the sandbox the current process runs in.
// Flatpak is recognised by /.flatpak-info, Snap by SNAP_NAME.
func DetectConfinement() Confinement {
	return detectOnce()
}

// Confined reports whether c is an actual sandbox.
func (c Confinement) Confined() bool {
	return c == ConfinementFlatpak || c == ConfinementSnap
}

// HostPrefix returns the argv prefix that escapes c to run a command on the
// host. It is nil for ConfinementNone and unknown values.
func (c Confinement) HostPrefix() []string {
	switch c {
	case ConfinementFlatpak:
		return []string{"flatpak-spawn", "--host"}
	case ConfinementSnap:
		return []string{"snap", "run", "--shell"}
	case ConfinementNone:
		return nil
	default:
		return nil
	}
}

// HostArgv wraps argv so that it runs on the host when c is confined.
// The returned slice never aliases argv.
func (c Confinement) HostArgv(argv []string) []string {
	prefix := c.HostPrefix()
	out := make([]string, 0, len(prefix)+len(argv))
	out = append(out, prefix...)
	return append(out, argv...)
}

// confinementFrom detects confinement through injected lookups so tests
// can avoid process-wide state. Flatpak takes precedence over Snap.
func confinementFrom(getenv func(string) string, stat func(string) error) Confinement {
	if err := stat(flatpakInfoPath); err == nil {
		return ConfinementFlatpak
	}
	if getenv("SNAP_NAME") != "" {
		return ConfinementSnap
	}
	return ConfinementNone
}

func statFile(path string) error {
	_, err := os.Stat(path)
	return err
}
