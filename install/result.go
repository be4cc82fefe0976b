// Package install drives a resolver.Plan to completion: for each install
// action, restore-from-cache-or-build, classify the result, and update
// the status database, grounded on the teacher's ensure.go drive-a-plan
// loop (cmd/dep) generalized to vcpkg's richer per-action result
// taxonomy (§4.9).
package install

import "github.com/microsoft/vcpkg-tool-sub003/resolver"

// ResultKind classifies one action's outcome (§4.9 step 3).
type ResultKind int

const (
	Succeeded ResultKind = iota
	BuildFailed
	PostBuildChecksFailed
	FileConflicts
	CascadedDueToMissingDependencies
	Excluded
	Downloaded
	Removed
)

func (k ResultKind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case BuildFailed:
		return "build-failed"
	case PostBuildChecksFailed:
		return "post-build-checks-failed"
	case FileConflicts:
		return "file-conflicts"
	case CascadedDueToMissingDependencies:
		return "cascaded"
	case Excluded:
		return "excluded"
	case Downloaded:
		return "downloaded"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// ok reports whether a result kind should count as a successful outcome
// for determining whether the overall Summary failed.
func (k ResultKind) ok() bool {
	switch k {
	case Succeeded, Downloaded, Removed, Excluded:
		return true
	default:
		return false
	}
}

// ActionResult is one action's recorded outcome.
type ActionResult struct {
	Spec resolver.PackageSpec
	Kind ResultKind
	Err  error
}

// Summary is install_execute_plan's return value: partial failure is the
// norm, so the caller inspects every result rather than relying on a
// single error (§4.9: "the CLI decides exit code").
type Summary struct {
	Results []ActionResult
	Aborted bool // true if KeepGoingNo stopped the plan early
}

// Failed reports whether any action did not succeed.
func (s Summary) Failed() bool {
	for _, r := range s.Results {
		if !r.Kind.ok() {
			return true
		}
	}
	return false
}

// BuildOutcome is what an external build driver reports for one action
// (§1: the build driver itself -- invoking compilers/CMake -- is out of
// scope; only this contract is specified).
type BuildOutcome struct {
	Kind        ResultKind // one of Succeeded, BuildFailed, PostBuildChecksFailed, FileConflicts
	InstalledFiles []string  // files placed under the installed tree, for listfile ownership
	ArtifactForCache []byte  // non-nil when Kind == Succeeded and a cache push should be offered
}
