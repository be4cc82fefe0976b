package paragraph

import (
	"regexp"

	"github.com/microsoft/vcpkg-tool-sub003/platform"
	"github.com/microsoft/vcpkg-tool-sub003/version"
)

// reservedNames may never be used as a port, feature, or dependency name
// (§ Glossary: SourceControlFile invariant).
var reservedNames = map[string]bool{
	"prn": true, "aux": true, "con": true, "nul": true,
	"core": true, "default": true,
}

func init() {
	for _, n := range []string{"lpt", "com"} {
		for d := '0'; d <= '9'; d++ {
			reservedNames[n+string(d)] = true
		}
	}
}

var identifierRE = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidIdentifier reports whether name is syntactically valid as a port,
// feature, or dependency name: lowercase letters, digits, and single
// hyphens, never a reserved word.
func ValidIdentifier(name string) bool {
	if name == "" || reservedNames[name] {
		return false
	}
	return identifierRE.MatchString(name)
}

// Dependency is one port's dependency declaration (§ Glossary).
type Dependency struct {
	Name     string
	Features []string
	Platform platform.Expr
	Host     bool
	Minimum  *version.SchemedVersion
}

// FeatureParagraph describes one optional feature a port can expose.
type FeatureParagraph struct {
	Name         string
	Description  string
	Dependencies []Dependency
	Supports     platform.Expr
}

// SourceControlFile is a port's fully parsed metadata: a core paragraph
// plus any number of feature paragraphs (§ Glossary).
type SourceControlFile struct {
	Name             string
	RawVersion       version.SchemedVersion
	PortVersion      int
	Maintainers      []string
	Description      string
	Homepage         string
	License          string
	Dependencies     []Dependency
	DefaultFeatures  []string
	Supports         platform.Expr
	Overrides        map[string]version.SchemedVersion
	Features         []FeatureParagraph
}

// Version returns the SCF's pinned version, folding in PortVersion.
func (scf *SourceControlFile) Version() version.SchemedVersion {
	sv := scf.RawVersion
	sv.Version.PortVersion = scf.PortVersion
	return sv
}

// FindFeature looks up a feature paragraph by name.
func (scf *SourceControlFile) FindFeature(name string) (*FeatureParagraph, bool) {
	for i := range scf.Features {
		if scf.Features[i].Name == name {
			return &scf.Features[i], true
		}
	}
	return nil, false
}

// Validate checks the invariants named in the Glossary: unique feature
// names, no reserved feature/dependency names, syntactically valid
// dependency names.
func (scf *SourceControlFile) Validate() error {
	if !ValidIdentifier(scf.Name) {
		return &Error{Kind: ErrBadFieldSyntax, Field: "name", Message: "not a valid port name: " + scf.Name}
	}
	seen := make(map[string]bool, len(scf.Features))
	for _, f := range scf.Features {
		if reservedNames[f.Name] {
			return &Error{Kind: ErrBadFieldSyntax, Field: "feature", Message: "reserved feature name: " + f.Name}
		}
		if seen[f.Name] {
			return &Error{Kind: ErrDuplicateField, Field: f.Name, Message: "duplicate feature name"}
		}
		seen[f.Name] = true
		for _, d := range f.Dependencies {
			if !ValidIdentifier(d.Name) {
				return &Error{Kind: ErrBadFieldSyntax, Field: d.Name, Message: "not a valid dependency name"}
			}
		}
	}
	for _, d := range scf.Dependencies {
		if !ValidIdentifier(d.Name) {
			return &Error{Kind: ErrBadFieldSyntax, Field: d.Name, Message: "not a valid dependency name"}
		}
	}
	return nil
}
