// Package version implements vcpkg's version model: a (text, port-revision)
// tuple compared under one of four schemes, plus the baseline/override/
// minimum-version resolution rule from spec §4.3.
package version

import "fmt"

// Version is a port version: display text plus a port revision, which is
// elided from String() when zero (§3).
type Version struct {
	Text        string
	PortVersion int
}

func New(text string) Version { return Version{Text: text} }

func NewWithRevision(text string, portVersion int) Version {
	return Version{Text: text, PortVersion: portVersion}
}

func (v Version) String() string {
	if v.PortVersion == 0 {
		return v.Text
	}
	return fmt.Sprintf("%s#%d", v.Text, v.PortVersion)
}

func (v Version) Equal(o Version) bool {
	return v.Text == o.Text && v.PortVersion == o.PortVersion
}

// Scheme is one of the four version comparison schemes (§3).
type Scheme string

const (
	SchemeString  Scheme = "string"
	SchemeRelaxed Scheme = "relaxed"
	SchemeSemver  Scheme = "semver"
	SchemeDate    Scheme = "date"
)

// SchemedVersion pairs a Version with the comparison scheme it must be
// read under.
type SchemedVersion struct {
	Scheme  Scheme
	Version Version
}

func (sv SchemedVersion) String() string { return sv.Version.String() }
