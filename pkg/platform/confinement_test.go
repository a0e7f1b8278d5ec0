// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConfinementFrom(t *testing.T) {
	t.Parallel()

	present := func(string) error { return nil }
	absent := func(string) error { return fs.ErrNotExist }

	tests := []struct {
		name string
		env  map[string]string
		stat func(string) error
		want Confinement
	}{
		{name: "host", stat: absent, want: ConfinementNone},
		{name: "flatpak", stat: present, want: ConfinementFlatpak},
		{name: "snap", env: map[string]string{"SNAP_NAME": "paxy"}, stat: absent, want: ConfinementSnap},
		{name: "flatpak wins over snap", env: map[string]string{"SNAP_NAME": "paxy"}, stat: present, want: ConfinementFlatpak},
		{name: "empty snap name", env: map[string]string{"SNAP_NAME": ""}, stat: absent, want: ConfinementNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			getenv := func(k string) string { return tt.env[k] }
			if got := confinementFrom(getenv, tt.stat); got != tt.want {
				t.Errorf("confinementFrom() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfinementFrom_StatPath(t *testing.T) {
	t.Parallel()

	var seen string
	confinementFrom(func(string) string { return "" }, func(p string) error {
		seen = p
		return errors.New("missing")
	})
	if seen != flatpakInfoPath {
		t.Errorf("stat called with %q, want %q", seen, flatpakInfoPath)
	}
}

func TestConfinement_HostArgv(t *testing.T) {
	t.Parallel()

	argv := []string{"make", "install"}
	tests := []struct {
		c    Confinement
		want []string
	}{
		{ConfinementNone, []string{"make", "install"}},
		{ConfinementFlatpak, []string{"flatpak-spawn", "--host", "make", "install"}},
		{ConfinementSnap, []string{"snap", "run", "--shell", "make", "install"}},
		{Confinement("bogus"), []string{"make", "install"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.c), func(t *testing.T) {
			t.Parallel()
			got := tt.c.HostArgv(argv)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("HostArgv() mismatch (-want +got):\n%s", diff)
			}
			if tt.c.Confined() != (len(tt.c.HostPrefix()) > 0) {
				t.Errorf("Confined() disagrees with HostPrefix() for %q", tt.c)
			}
		})
	}

	got := ConfinementNone.HostArgv(argv)
	got[0] = "changed"
	if argv[0] != "make" {
		t.Error("HostArgv() aliased its input")
	}
}
