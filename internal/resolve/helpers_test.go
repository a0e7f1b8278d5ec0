// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/pax-hub/paxy/pkg/manifest"
)

// leaf builds a versioned package with one version per entry. Each entry
// is a version followed by "name@requirement" or "name/flavor@requirement"
// dependencies.
func leaf(versions ...[]string) *manifest.VersionedPackage {
	vp := &manifest.VersionedPackage{}
	for _, spec := range versions {
		v := manifest.Version{Number: semver.MustParse(spec[0]), Install: "true"}
		for _, d := range spec[1:] {
			v.Dependencies = append(v.Dependencies, dependency(d))
		}
		vp.Versions = append(vp.Versions, v)
	}
	return vp
}

func dependency(s string) manifest.Dependency {
	var dep manifest.Dependency
	target, req, _ := strings.Cut(s, "@")
	dep.Name, dep.Flavor, _ = strings.Cut(target, "/")
	dep.Requirement = manifest.MustParseRequirement(req)
	return dep
}

func flavored(flavors ...manifest.Flavor) *manifest.FlavoredPackage {
	fp := &manifest.FlavoredPackage{}
	for _, f := range flavors {
		fp.Declared = append(fp.Declared, f.Name)
		fp.Flavors = append(fp.Flavors, f)
	}
	return fp
}

func pkg(name string, root manifest.Node) *Package {
	return &Package{Name: name, Root: root}
}
