package paragraph

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/microsoft/vcpkg-tool-sub003/platform"
	"github.com/microsoft/vcpkg-tool-sub003/version"
)

// rawDependency mirrors the two JSON shapes a dependency list entry can
// take: a bare string, or an object with optional features/platform/host/
// minimum-version. json.Unmarshal into possibleDependency handles both via
// a custom UnmarshalJSON, the same raw-then-typed approach the teacher uses
// for its own possibleProps (manifest.go).
type rawDependency struct {
	Name        string   `json:"name"`
	Features    []string `json:"features,omitempty"`
	Platform    string   `json:"platform,omitempty"`
	Host        bool     `json:"host,omitempty"`
	VersionGEQ  string   `json:"version>=,omitempty"`
}

type possibleDependency struct {
	rawDependency
}

func (pd *possibleDependency) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		pd.Name = asString
		return nil
	}
	var raw rawDependency
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	pd.rawDependency = raw
	return nil
}

func (pd possibleDependency) toDependency() (Dependency, error) {
	dep := Dependency{
		Name:     pd.Name,
		Features: pd.Features,
		Host:     pd.Host,
	}
	expr, err := platform.Parse(pd.Platform)
	if err != nil {
		return Dependency{}, &Error{Kind: ErrBadFieldSyntax, Field: "platform", Message: err.Error()}
	}
	dep.Platform = expr
	if pd.VersionGEQ != "" {
		// Scheme is left unset here: a manifest only names the minimum
		// version's text, never its scheme, and the scheme the constraint
		// must be compared under is the *target* port's own registry
		// scheme (§3) -- something only the resolver knows, via
		// BaselineProvider.SchemeFor(dep.Name), at closure-build time.
		sv := version.SchemedVersion{Version: version.New(pd.VersionGEQ)}
		dep.Minimum = &sv
	}
	return dep, nil
}

type rawOverride struct {
	Name          string `json:"name"`
	Version       string `json:"version,omitempty"`
	VersionString string `json:"version-string,omitempty"`
	VersionSemver string `json:"version-semver,omitempty"`
	VersionDate   string `json:"version-date,omitempty"`
	PortVersion   int    `json:"port-version,omitempty"`
}

type rawFeature struct {
	Description  string                `json:"description,omitempty"`
	Dependencies []possibleDependency  `json:"dependencies,omitempty"`
	Supports     string                `json:"supports,omitempty"`
}

type rawManifest struct {
	Name            string                 `json:"name"`
	Version         string                 `json:"version,omitempty"`
	VersionString   string                 `json:"version-string,omitempty"`
	VersionSemver   string                 `json:"version-semver,omitempty"`
	VersionDate     string                 `json:"version-date,omitempty"`
	PortVersion     int                    `json:"port-version,omitempty"`
	Maintainers     []string               `json:"maintainers,omitempty"`
	Description     string                 `json:"description,omitempty"`
	Homepage        string                 `json:"homepage,omitempty"`
	License         string                 `json:"license,omitempty"`
	Dependencies    []possibleDependency   `json:"dependencies,omitempty"`
	DefaultFeatures []string               `json:"default-features,omitempty"`
	Features        map[string]rawFeature  `json:"features,omitempty"`
	Overrides       []rawOverride          `json:"overrides,omitempty"`
	Supports        string                 `json:"supports,omitempty"`
}

// versionFieldChoice resolves exactly one of the four mutually-exclusive
// version fields (§4.2: "exactly one").
func versionFieldChoice(plain, str, semver, date string) (version.SchemedVersion, error) {
	count := 0
	var scheme version.Scheme
	var text string
	for _, pair := range []struct {
		val    string
		scheme version.Scheme
	}{
		{plain, version.SchemeRelaxed},
		{str, version.SchemeString},
		{semver, version.SchemeSemver},
		{date, version.SchemeDate},
	} {
		if pair.val != "" {
			count++
			scheme = pair.scheme
			text = pair.val
		}
	}
	switch count {
	case 0:
		return version.SchemedVersion{}, &Error{Kind: ErrMissingField, Field: "version", Message: "manifest must declare exactly one version field"}
	case 1:
		return version.SchemedVersion{Scheme: scheme, Version: version.New(text)}, nil
	default:
		return version.SchemedVersion{}, &Error{Kind: ErrConflictingVersion, Message: "more than one version field present"}
	}
}

// ParseManifest reads a vcpkg.json document and produces an SCF (§4.2).
func ParseManifest(r io.Reader) (*SourceControlFile, error) {
	var raw rawManifest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, &Error{Kind: ErrBadFieldSyntax, Message: "invalid JSON: " + err.Error()}
	}
	if raw.Name == "" {
		return nil, &Error{Kind: ErrMissingField, Field: "name", Message: "manifest requires a name"}
	}

	sv, err := versionFieldChoice(raw.Version, raw.VersionString, raw.VersionSemver, raw.VersionDate)
	if err != nil {
		return nil, err
	}

	scf := &SourceControlFile{
		Name:            raw.Name,
		RawVersion:      sv,
		PortVersion:     raw.PortVersion,
		Maintainers:     raw.Maintainers,
		Description:     raw.Description,
		Homepage:        raw.Homepage,
		License:         raw.License,
		DefaultFeatures: raw.DefaultFeatures,
		Overrides:       make(map[string]version.SchemedVersion, len(raw.Overrides)),
	}

	if raw.License != "" {
		if err := ValidateLicense(raw.License); err != nil {
			return nil, err
		}
	}

	supports, err := platform.Parse(raw.Supports)
	if err != nil {
		return nil, &Error{Kind: ErrBadFieldSyntax, Field: "supports", Message: err.Error()}
	}
	scf.Supports = supports

	for _, pd := range raw.Dependencies {
		dep, err := pd.toDependency()
		if err != nil {
			return nil, err
		}
		scf.Dependencies = append(scf.Dependencies, dep)
	}

	for name, rf := range raw.Features {
		fp := FeatureParagraph{Name: name, Description: rf.Description}
		fexpr, err := platform.Parse(rf.Supports)
		if err != nil {
			return nil, &Error{Kind: ErrBadFieldSyntax, Field: fmt.Sprintf("features.%s.supports", name), Message: err.Error()}
		}
		fp.Supports = fexpr
		for _, pd := range rf.Dependencies {
			dep, err := pd.toDependency()
			if err != nil {
				return nil, err
			}
			fp.Dependencies = append(fp.Dependencies, dep)
		}
		scf.Features = append(scf.Features, fp)
	}

	for _, ov := range raw.Overrides {
		osv, err := versionFieldChoice(ov.Version, ov.VersionString, ov.VersionSemver, ov.VersionDate)
		if err != nil {
			return nil, err
		}
		osv.Version.PortVersion = ov.PortVersion
		scf.Overrides[ov.Name] = osv
	}

	if err := scf.Validate(); err != nil {
		return nil, err
	}
	return scf, nil
}
