package paragraph

import (
	"strings"

	"github.com/microsoft/vcpkg-tool-sub003/platform"
	"github.com/microsoft/vcpkg-tool-sub003/version"
)

// ParseControlSCF builds an SCF from a CONTROL file's legacy text: the
// first paragraph is the core paragraph (Source:/Version:/Build-Depends:/
// Default-Features:/Supports:/Description:/Maintainer:/Homepage:), and any
// paragraph that declares a Feature: field is a feature paragraph (§4.2).
func ParseControlSCF(text string) (*SourceControlFile, error) {
	paragraphs, err := ParseControlParagraphsString(text)
	if err != nil {
		return nil, err
	}
	if len(paragraphs) == 0 {
		return nil, &Error{Kind: ErrMissingField, Message: "CONTROL file has no paragraphs"}
	}

	core := paragraphs[0]
	name, err := core.Require("Source")
	if err != nil {
		return nil, err
	}
	versionText, err := core.Require("Version")
	if err != nil {
		return nil, err
	}

	scf := &SourceControlFile{
		Name:       name,
		RawVersion: version.SchemedVersion{Scheme: version.SchemeRelaxed, Version: version.New(versionText)},
		Overrides:  make(map[string]version.SchemedVersion),
	}
	if maintainer, ok := core.Get("Maintainer"); ok {
		scf.Maintainers = []string{maintainer}
	}
	scf.Description, _ = core.Get("Description")
	scf.Homepage, _ = core.Get("Homepage")
	scf.License, _ = core.Get("License")
	if scf.License != "" {
		if err := ValidateLicense(scf.License); err != nil {
			return nil, err
		}
	}

	if deps, ok := core.Get("Build-Depends"); ok {
		parsed, err := parseDependencyList(deps)
		if err != nil {
			return nil, err
		}
		scf.Dependencies = parsed
	}
	if dflt, ok := core.Get("Default-Features"); ok {
		scf.DefaultFeatures = splitFeatureNames(dflt)
	}
	supports, err := platform.Parse(firstOr(core, "Supports", ""))
	if err != nil {
		return nil, &Error{Kind: ErrBadFieldSyntax, Field: "Supports", Message: err.Error()}
	}
	scf.Supports = supports

	for _, p := range paragraphs[1:] {
		featName, err := p.Require("Feature")
		if err != nil {
			return nil, &Error{Kind: ErrBadFieldSyntax, Message: "secondary paragraph missing Feature field"}
		}
		fp := FeatureParagraph{Name: featName}
		fp.Description, _ = p.Get("Description")
		if deps, ok := p.Get("Build-Depends"); ok {
			parsed, err := parseDependencyList(deps)
			if err != nil {
				return nil, err
			}
			fp.Dependencies = parsed
		}
		fsupports, err := platform.Parse(firstOr(p, "Supports", ""))
		if err != nil {
			return nil, &Error{Kind: ErrBadFieldSyntax, Field: "Supports", Message: err.Error()}
		}
		fp.Supports = fsupports
		scf.Features = append(scf.Features, fp)
	}

	if err := scf.Validate(); err != nil {
		return nil, err
	}
	return scf, nil
}

func firstOr(p *Paragraph, name, def string) string {
	if v, ok := p.Get(name); ok {
		return v
	}
	return def
}

// splitFeatureNames splits a comma- or whitespace-separated list of feature
// names, the same rule used for Default-Features and the manifest's
// default-features array (§4.2: "parsed by the same feature-name rule").
func splitFeatureNames(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseDependencyList parses a Build-Depends value: a comma-separated list
// of port names, each optionally followed by a parenthesized platform
// expression, e.g. "openssl (!windows), zlib".
func parseDependencyList(s string) ([]Dependency, error) {
	var deps []Dependency
	for _, entry := range splitTopLevelCommas(s) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name := entry
		exprText := ""
		if idx := strings.IndexByte(entry, '('); idx >= 0 {
			if !strings.HasSuffix(entry, ")") {
				return nil, &Error{Kind: ErrBadFieldSyntax, Message: "unterminated platform qualifier: " + entry}
			}
			name = strings.TrimSpace(entry[:idx])
			exprText = entry[idx+1 : len(entry)-1]
		}
		expr, err := platform.Parse(exprText)
		if err != nil {
			return nil, &Error{Kind: ErrBadFieldSyntax, Message: err.Error()}
		}
		deps = append(deps, Dependency{Name: name, Platform: expr})
	}
	return deps, nil
}

// splitTopLevelCommas splits on commas that are not inside parentheses.
func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
