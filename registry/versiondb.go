package registry

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"github.com/microsoft/vcpkg-tool-sub003/version"
)

type rawVersionDBEntry struct {
	GitTree       string `json:"git-tree,omitempty"`
	Path          string `json:"path,omitempty"`
	Version       string `json:"version,omitempty"`
	VersionString string `json:"version-string,omitempty"`
	VersionSemver string `json:"version-semver,omitempty"`
	VersionDate   string `json:"version-date,omitempty"`
	PortVersion   int    `json:"port-version,omitempty"`
}

var gitTreeRE = regexp.MustCompile(`^[0-9a-f]{40}$`)

// ParseVersionDB parses a version-database JSON array entry list for one
// port (§4.4). Filesystem-registry entries carry Path; git-backed entries
// carry GitTree.
func ParseVersionDB(port string, r io.Reader) ([]RegistryEntry, error) {
	var raw []rawVersionDBEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &LocalizedError{Kind: ErrBadVersionDB, Port: port, Message: "invalid JSON: " + err.Error()}
	}

	entries := make([]RegistryEntry, 0, len(raw))
	for _, e := range raw {
		sv, scheme, err := schemedFrom(e)
		if err != nil {
			return nil, &LocalizedError{Kind: ErrBadVersionDB, Port: port, Message: err.Error()}
		}
		_ = scheme

		entry := RegistryEntry{Port: port, Version: sv}
		switch {
		case e.GitTree != "":
			if !gitTreeRE.MatchString(e.GitTree) {
				return nil, &LocalizedError{Kind: ErrBadVersionDB, Port: port, Message: "git-tree is not a 40-hex SHA: " + e.GitTree}
			}
			entry.GitTree = e.GitTree
		case e.Path != "":
			if err := validateRegistryPath(e.Path); err != nil {
				return nil, &LocalizedError{Kind: ErrBadVersionDB, Port: port, Message: err.Error()}
			}
			entry.Path = e.Path
		default:
			return nil, &LocalizedError{Kind: ErrBadVersionDB, Port: port, Message: "entry has neither git-tree nor path"}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func schemedFrom(e rawVersionDBEntry) (version.SchemedVersion, version.Scheme, error) {
	count := 0
	var scheme version.Scheme
	var text string
	for _, pair := range []struct {
		val    string
		scheme version.Scheme
	}{
		{e.Version, version.SchemeRelaxed},
		{e.VersionString, version.SchemeString},
		{e.VersionSemver, version.SchemeSemver},
		{e.VersionDate, version.SchemeDate},
	} {
		if pair.val != "" {
			count++
			scheme = pair.scheme
			text = pair.val
		}
	}
	if count != 1 {
		return version.SchemedVersion{}, "", errBadVersionField
	}
	return version.SchemedVersion{Scheme: scheme, Version: version.NewWithRevision(text, e.PortVersion)}, scheme, nil
}

var errBadVersionField = &LocalizedError{Kind: ErrBadVersionDB, Message: "version-database entry must declare exactly one version field"}

// validateRegistryPath enforces the filesystem-registry path rules (§4.4):
// paths must start with "$/" (registry root), and must not contain "..",
// a lone ".", backslashes, or doubled slashes.
func validateRegistryPath(p string) error {
	if !strings.HasPrefix(p, "$/") {
		return &LocalizedError{Kind: ErrBadVersionDB, Message: "path must start with $/: " + p}
	}
	if strings.Contains(p, "\\") {
		return &LocalizedError{Kind: ErrBadVersionDB, Message: "path must not contain backslashes: " + p}
	}
	if strings.Contains(p, "//") {
		return &LocalizedError{Kind: ErrBadVersionDB, Message: "path must not contain doubled slashes: " + p}
	}
	for _, segment := range strings.Split(p[2:], "/") {
		if segment == ".." || segment == "." {
			return &LocalizedError{Kind: ErrBadVersionDB, Message: "path must not contain . or .. segments: " + p}
		}
	}
	return nil
}
