// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

type (
	// document is the schema-validated wire shape shared by all formats.
	document struct {
		Name        string       `json:"name,omitempty"`
		Description string       `json:"description,omitempty"`
		License     string       `json:"license,omitempty"`
		Website     string       `json:"website,omitempty"`
		Repository  string       `json:"repository,omitempty"`
		Authors     []authorDoc  `json:"authors,omitempty"`
		Flavors     []string     `json:"flavors,omitempty"`
		Versions    []versionDoc `json:"versions,omitempty"`
	}

	authorDoc struct {
		Name  string `json:"name"`
		Email string `json:"email,omitempty"`
	}

	versionDoc struct {
		Version      string                      `json:"version"`
		Steps        []map[string]map[string]any `json:"steps,omitempty"`
		Dependencies []dependencyDoc             `json:"dependencies,omitempty"`
		Prebuilt     string                      `json:"prebuilt,omitempty"`
		Source       string                      `json:"source,omitempty"`
		Install      string                      `json:"install"`
	}

	dependencyDoc struct {
		Name    string `json:"name"`
		Flavor  string `json:"flavor,omitempty"`
		Version string `json:"version,omitempty"`
	}

	// stepCodec converts one build step kind between its document fields and
	// its model type.
	stepCodec struct {
		decode func(fields map[string]any) (BuildStep, error)
		encode func(step BuildStep) map[string]any
	}
)

// stepCodecs has one entry per build step kind. A new kind needs a model
// type, an entry here and a definition in manifest_schema.cue.
var stepCodecs = map[BuildStepKind]stepCodec{
	BuildStepClone: {decode: decodeCloneStep, encode: encodeCloneStep},
}

func (d *document) toNode() (Node, error) {
	meta, err := d.metadata()
	if err != nil {
		return nil, err
	}
	if len(d.Flavors) > 0 {
		for i, name := range d.Flavors {
			if slices.Contains(d.Flavors[:i], name) {
				return nil, fmt.Errorf("flavors[%d]: duplicate flavor %q", i, name)
			}
		}
		return &FlavoredPackage{Metadata: meta, Declared: slices.Clone(d.Flavors)}, nil
	}
	versions := make([]Version, 0, len(d.Versions))
	for i := range d.Versions {
		v, err := d.Versions[i].toVersion()
		if err != nil {
			return nil, fmt.Errorf("versions[%d]: %w", i, err)
		}
		versions = append(versions, v)
	}
	return &VersionedPackage{Metadata: meta, Versions: versions}, nil
}

func (d *document) metadata() (*Metadata, error) {
	if d.Name == "" && d.Description == "" && d.License == "" && d.Website == "" && d.Repository == "" && len(d.Authors) == 0 {
		return nil, nil
	}
	if d.Name == "" {
		return nil, errors.New("name: required when package metadata is present")
	}
	meta := &Metadata{Name: d.Name, Description: d.Description, License: d.License}
	var err error
	if d.Website != "" {
		if meta.Website, err = parseAbsoluteURL("website", d.Website); err != nil {
			return nil, err
		}
	}
	if d.Repository != "" {
		if meta.Repository, err = parseAbsoluteURL("repository", d.Repository); err != nil {
			return nil, err
		}
	}
	for _, a := range d.Authors {
		meta.Authors = append(meta.Authors, Author(a))
	}
	return meta, nil
}

func (vd *versionDoc) toVersion() (Version, error) {
	num, err := semver.StrictNewVersion(vd.Version)
	if err != nil {
		return Version{}, fmt.Errorf("version: %q is not a semantic version: %w", vd.Version, err)
	}
	v := Version{Number: num, Install: vd.Install}
	for i, raw := range vd.Steps {
		step, err := decodeStep(raw)
		if err != nil {
			return Version{}, fmt.Errorf("steps[%d]: %w", i, err)
		}
		v.Steps = append(v.Steps, step)
	}
	for i, dd := range vd.Dependencies {
		req, err := ParseRequirement(dd.Version)
		if err != nil {
			return Version{}, fmt.Errorf("dependencies[%d].version: %w", i, err)
		}
		v.Dependencies = append(v.Dependencies, Dependency{Name: dd.Name, Flavor: dd.Flavor, Requirement: req})
	}
	if vd.Prebuilt != "" {
		v.Prebuilt = ParseLocation(vd.Prebuilt)
	}
	if vd.Source != "" {
		v.Source = ParseLocation(vd.Source)
	}
	return v, nil
}

func decodeStep(raw map[string]map[string]any) (BuildStep, error) {
	if len(raw) != 1 {
		return nil, fmt.Errorf("build step must name exactly one kind, got %d", len(raw))
	}
	for kind, fields := range raw {
		c, ok := stepCodecs[BuildStepKind(kind)]
		if !ok {
			return nil, fmt.Errorf("unknown build step kind %q", kind)
		}
		return c.decode(fields)
	}
	return nil, nil
}

// StepFields returns the document fields of step, the same map a manifest
// holds under the step's kind. Unknown kinds yield nil.
func StepFields(step BuildStep) map[string]any {
	if step == nil {
		return nil
	}
	c, ok := stepCodecs[step.Kind()]
	if !ok {
		return nil
	}
	return c.encode(step)
}

func decodeCloneStep(fields map[string]any) (BuildStep, error) {
	repo, _ := fields["repository"].(string)
	u, err := parseAbsoluteURL("clone.repository", repo)
	if err != nil {
		return nil, err
	}
	return CloneStep{Repository: u}, nil
}

func encodeCloneStep(step BuildStep) map[string]any {
	cs, _ := step.(CloneStep)
	if cs.Repository == nil {
		return map[string]any{}
	}
	return map[string]any{"repository": cs.Repository.String()}
}

// ParseLocation interprets s as a URL when it carries a scheme and an
// authority (or the file scheme), and as a local path otherwise.
func ParseLocation(s string) *Location {
	if u, err := url.Parse(s); err == nil && len(u.Scheme) > 1 && (u.Host != "" || u.Scheme == "file") {
		return &Location{URL: u}
	}
	return &Location{Path: s}
}

func parseAbsoluteURL(field, s string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%s: %q is not an absolute URL", field, s)
	}
	return u, nil
}

// toDocument renders a node in the generic document shape accepted by every
// format encoder. Only plain maps, []any and scalars are produced.
func toDocument(node Node) (map[string]any, error) {
	doc := make(map[string]any)
	if meta := node.Meta(); meta != nil {
		doc["name"] = meta.Name
		putString(doc, "description", meta.Description)
		putString(doc, "license", meta.License)
		if meta.Website != nil {
			doc["website"] = meta.Website.String()
		}
		if meta.Repository != nil {
			doc["repository"] = meta.Repository.String()
		}
		if len(meta.Authors) > 0 {
			authors := make([]any, 0, len(meta.Authors))
			for _, a := range meta.Authors {
				m := map[string]any{"name": a.Name}
				putString(m, "email", a.Email)
				authors = append(authors, m)
			}
			doc["authors"] = authors
		}
	}
	switch n := node.(type) {
	case *FlavoredPackage:
		names := n.Declared
		if len(names) == 0 {
			for _, f := range n.Flavors {
				names = append(names, f.Name)
			}
		}
		flavors := make([]any, 0, len(names))
		for _, name := range names {
			flavors = append(flavors, name)
		}
		doc["flavors"] = flavors
	case *VersionedPackage:
		versions := make([]any, 0, len(n.Versions))
		for i := range n.Versions {
			vm, err := versionDocument(&n.Versions[i])
			if err != nil {
				return nil, fmt.Errorf("versions[%d]: %w", i, err)
			}
			versions = append(versions, vm)
		}
		doc["versions"] = versions
	default:
		return nil, fmt.Errorf("unknown node type %T", node)
	}
	return doc, nil
}

func versionDocument(v *Version) (map[string]any, error) {
	if v.Number == nil {
		return nil, errors.New("version number is missing")
	}
	m := map[string]any{
		"version": v.Number.Original(),
		"install": v.Install,
	}
	if len(v.Steps) > 0 {
		steps := make([]any, 0, len(v.Steps))
		for _, s := range v.Steps {
			c, ok := stepCodecs[s.Kind()]
			if !ok {
				return nil, fmt.Errorf("unknown build step kind %q", s.Kind())
			}
			steps = append(steps, map[string]any{string(s.Kind()): c.encode(s)})
		}
		m["steps"] = steps
	}
	if len(v.Dependencies) > 0 {
		deps := make([]any, 0, len(v.Dependencies))
		for _, d := range v.Dependencies {
			dm := map[string]any{"name": d.Name}
			putString(dm, "flavor", d.Flavor)
			if !d.Requirement.IsAny() {
				dm["version"] = d.Requirement.String()
			}
			deps = append(deps, dm)
		}
		m["dependencies"] = deps
	}
	if v.Prebuilt != nil {
		m["prebuilt"] = v.Prebuilt.String()
	}
	if v.Source != nil {
		m["source"] = v.Source.String()
	}
	return m, nil
}

func putString(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
