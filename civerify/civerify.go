// Package civerify implements the CI version-database verifier (§4.10):
// it cross-validates a local port tree against its version database and
// baseline, and optionally walks historical git trees, grounded on
// original_source's ci-verify-versions command and the teacher's
// aggregate-all-problems-then-report style (cmd/dep's check/status
// commands collect every finding before printing, rather than stopping at
// the first one).
package civerify

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/microsoft/vcpkg-tool-sub003/paragraph"
	"github.com/microsoft/vcpkg-tool-sub003/registry"
	"github.com/microsoft/vcpkg-tool-sub003/version"
)

// ProblemKind names one of §4.10's failure modes.
type ProblemKind string

const (
	VersionMissing         ProblemKind = "version-missing"
	SHAMismatch            ProblemKind = "sha-mismatch"
	SchemeMismatch         ProblemKind = "scheme-mismatch"
	VersionDBMissing       ProblemKind = "version-db-missing"
	BaselineMissing        ProblemKind = "baseline-missing"
	BaselineMismatch       ProblemKind = "baseline-mismatch"
	DependencyNotVersioned ProblemKind = "dependency-not-versioned"
	OverrideNotVersioned   ProblemKind = "override-not-versioned"
	ConstraintNotVersioned ProblemKind = "constraint-not-versioned"
	GitTreeParseFailure    ProblemKind = "git-tree-parse-failure"
	GitTreeVersionMismatch ProblemKind = "git-tree-version-mismatch"
)

// Problem is one verification failure. The CI verifier reports every
// problem it finds rather than aborting at the first (§4.10: "Report all
// problems together; exit nonzero if any").
type Problem struct {
	Port    string
	Kind    ProblemKind
	Message string

	// Remediation, when non-empty, is a suggested fix a CLI layer can
	// print verbatim (§8 scenario 5's "suggests x-add-version
	// --overwrite-version"). civerify never executes remediation itself.
	Remediation string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Port, p.Kind, p.Message)
}

// shaMismatchSuggestion mirrors §8 scenario 5's "suggests
// x-add-version --overwrite-version".
const shaMismatchSuggestion = "run vcpkg x-add-version --overwrite-version to refresh the recorded git tree"

// LocalPort is one port's on-tree state as the verifier needs to see it.
type LocalPort struct {
	Name    string
	SCF     *paragraph.SourceControlFile
	GitTree string // 40-hex SHA of the port's tree in the current HEAD commit
}

// VersionDBSource loads version-database entries and historical manifest
// blobs. A Verifier never touches the filesystem or git directly;
// everything is routed through this interface so the same verification
// logic drives both the real builtin-files-backed CI command and a test
// double.
type VersionDBSource interface {
	// VersionDB returns the parsed version-database entries for port.
	// A missing file is reported through err; an existing-but-empty file
	// is reported by returning a non-nil empty slice -- both are step-2
	// failures the caller renders as VersionDBMissing.
	VersionDB(port string) ([]registry.RegistryEntry, error)

	// ShowManifestAtTree returns the vcpkg.json (or, failing that,
	// CONTROL) bytes at a historical git tree SHA, for
	// Options.VerifyGitTrees.
	ShowManifestAtTree(gitTree string) (data []byte, isControl bool, err error)
}

// Options controls optional, more expensive verification passes.
type Options struct {
	VerifyGitTrees bool
}

// Verifier cross-validates a local port tree against its version
// database and baseline (§4.10).
type Verifier struct {
	Ports    []LocalPort
	Baseline registry.Baseline
	DB       VersionDBSource
	Options  Options
}

// Run executes every check over every local port and returns every
// problem found, sorted by port then kind for stable output. A nil
// result means the tree is consistent.
func (v *Verifier) Run() []Problem {
	var problems []Problem
	for _, lp := range v.Ports {
		problems = append(problems, v.checkPort(lp)...)
	}
	sort.SliceStable(problems, func(i, j int) bool {
		if problems[i].Port != problems[j].Port {
			return problems[i].Port < problems[j].Port
		}
		return problems[i].Kind < problems[j].Kind
	})
	return problems
}

func (v *Verifier) checkPort(lp LocalPort) []Problem {
	var problems []Problem
	localSV := lp.SCF.Version()

	entries, err := v.DB.VersionDB(lp.Name)
	if err != nil {
		return append(problems, Problem{Port: lp.Name, Kind: VersionDBMissing, Message: err.Error()})
	}
	if len(entries) == 0 {
		return append(problems, Problem{Port: lp.Name, Kind: VersionDBMissing, Message: "version database file is empty"})
	}

	problems = append(problems, v.checkLocalVersionRecorded(lp, localSV, entries)...)
	problems = append(problems, v.checkBaseline(lp, localSV)...)
	problems = append(problems, v.checkDependenciesAndOverrides(lp)...)

	if v.Options.VerifyGitTrees {
		problems = append(problems, v.checkHistoricalGitTrees(lp, entries)...)
	}

	return problems
}

// checkLocalVersionRecorded implements §4.10 step 3.
func (v *Verifier) checkLocalVersionRecorded(lp LocalPort, localSV version.SchemedVersion, entries []registry.RegistryEntry) []Problem {
	for _, e := range entries {
		if !e.Version.Version.Equal(localSV.Version) {
			continue
		}
		if e.Version.Scheme != localSV.Scheme {
			return []Problem{{Port: lp.Name, Kind: SchemeMismatch, Message: fmt.Sprintf(
				"local scheme %q for version %s does not match recorded scheme %q", localSV.Scheme, localSV.Version, e.Version.Scheme)}}
		}
		if e.GitTree != "" && lp.GitTree != "" && e.GitTree != lp.GitTree {
			return []Problem{{Port: lp.Name, Kind: SHAMismatch, Message: fmt.Sprintf(
				"local git tree %s does not match recorded git tree %s for version %s",
				lp.GitTree, e.GitTree, localSV.Version), Remediation: shaMismatchSuggestion}}
		}
		return nil
	}
	return []Problem{{Port: lp.Name, Kind: VersionMissing, Message: fmt.Sprintf(
		"version %s is not present in the version database", localSV.Version)}}
}

// checkBaseline implements §4.10 step 4.
func (v *Verifier) checkBaseline(lp LocalPort, localSV version.SchemedVersion) []Problem {
	baselined, ok := v.Baseline[lp.Name]
	if !ok {
		return []Problem{{Port: lp.Name, Kind: BaselineMissing, Message: "port is not listed in versions/baseline.json"}}
	}
	if !baselined.Equal(localSV.Version) {
		return []Problem{{Port: lp.Name, Kind: BaselineMismatch, Message: fmt.Sprintf(
			"baseline pins %s but the local port is at %s", baselined, localSV.Version)}}
	}
	return nil
}

// checkDependenciesAndOverrides implements §4.10 step 5.
func (v *Verifier) checkDependenciesAndOverrides(lp LocalPort) []Problem {
	var problems []Problem

	checkKnown := func(name string) ([]registry.RegistryEntry, bool) {
		entries, err := v.DB.VersionDB(name)
		return entries, err == nil && len(entries) > 0
	}

	for _, dep := range lp.SCF.Dependencies {
		entries, known := checkKnown(dep.Name)
		if !known {
			problems = append(problems, Problem{Port: lp.Name, Kind: DependencyNotVersioned, Message: fmt.Sprintf(
				"dependency %s has no version database entry", dep.Name)})
			continue
		}
		if dep.Minimum != nil && !containsVersion(entries, dep.Minimum.Version) {
			problems = append(problems, Problem{Port: lp.Name, Kind: ConstraintNotVersioned, Message: fmt.Sprintf(
				"minimum-version constraint %s on %s is not present in its version database", dep.Minimum.Version, dep.Name)})
		}
	}

	for name, ov := range lp.SCF.Overrides {
		entries, known := checkKnown(name)
		if !known {
			problems = append(problems, Problem{Port: lp.Name, Kind: OverrideNotVersioned, Message: fmt.Sprintf(
				"override %s has no version database entry", name)})
			continue
		}
		if !containsVersion(entries, ov.Version) {
			problems = append(problems, Problem{Port: lp.Name, Kind: OverrideNotVersioned, Message: fmt.Sprintf(
				"override pins %s to %s, which is not present in its version database", name, ov.Version)})
		}
	}

	return problems
}

// checkHistoricalGitTrees implements §4.10 step 6 (--verify-git-trees):
// for every historical entry, load the manifest at that git tree and
// confirm its embedded version/scheme agree with the database record.
func (v *Verifier) checkHistoricalGitTrees(lp LocalPort, entries []registry.RegistryEntry) []Problem {
	var problems []Problem
	for _, e := range entries {
		if e.GitTree == "" {
			continue
		}
		data, isControl, err := v.DB.ShowManifestAtTree(e.GitTree)
		if err != nil {
			problems = append(problems, Problem{Port: lp.Name, Kind: GitTreeParseFailure, Message: fmt.Sprintf(
				"reading vcpkg.json at git tree %s: %v", e.GitTree, err)})
			continue
		}

		var scf *paragraph.SourceControlFile
		if isControl {
			scf, err = paragraph.ParseControlSCF(string(data))
		} else {
			scf, err = paragraph.ParseManifest(bytes.NewReader(data))
		}
		if err != nil {
			problems = append(problems, Problem{Port: lp.Name, Kind: GitTreeParseFailure, Message: fmt.Sprintf(
				"parsing manifest at git tree %s: %v", e.GitTree, err)})
			continue
		}

		historical := scf.Version()
		if !historical.Version.Equal(e.Version.Version) || historical.Scheme != e.Version.Scheme {
			problems = append(problems, Problem{Port: lp.Name, Kind: GitTreeVersionMismatch, Message: fmt.Sprintf(
				"git tree %s holds version %s (scheme %s) but the database records %s (scheme %s)",
				e.GitTree, historical.Version, historical.Scheme, e.Version.Version, e.Version.Scheme)})
		}
	}
	return problems
}

func containsVersion(entries []registry.RegistryEntry, v version.Version) bool {
	for _, e := range entries {
		if e.Version.Version.Equal(v) {
			return true
		}
	}
	return false
}
