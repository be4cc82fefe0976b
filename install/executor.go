package install

import (
	"github.com/pkg/errors"

	"github.com/microsoft/vcpkg-tool-sub003/binarycache"
	"github.com/microsoft/vcpkg-tool-sub003/internal/obslog"
	"github.com/microsoft/vcpkg-tool-sub003/resolver"
	"github.com/microsoft/vcpkg-tool-sub003/statusdb"
)

// LogSink is where one action's build output is piped, matching §4.9's
// BuildLogsRecorder.
type LogSink interface {
	Write(p []byte) (int, error)
}

// BuildDriver is the "run a build for this action" contract; invoking the
// actual compiler/CMake toolchain is out of scope (§1) -- only this
// interface is specified.
type BuildDriver interface {
	Build(action resolver.InstallAction, logs LogSink) (BuildOutcome, error)
}

// Preclearer removes a stale packages/<spec> directory before a build or
// restore populates it (§4.9 step 1). File/download/extraction utilities
// are out of scope (§1); only this contract is named.
type Preclearer interface {
	Preclear(spec resolver.PackageSpec) error
}

// StatusStore persists an updated status database atomically (§4.9 step
// 5, §4.11). The install package never touches the filesystem directly;
// statusdb.WriteAtomic plus statusdb.Encode is the expected backing
// implementation.
type StatusStore interface {
	Persist(db *statusdb.Database) error
}

// KeepGoing controls whether a failed action aborts the whole plan or is
// recorded and the plan continues, cascading to dependents (§4.9 step 4,
// §7 "Build errors are non-fatal under KeepGoing::Yes").
type KeepGoing bool

const (
	KeepGoingNo  KeepGoing = false
	KeepGoingYes KeepGoing = true
)

// Executor drives a resolver.Plan to completion (§4.9). Per-spec builds
// are sequential by default -- ExecutePlan never parallelizes action
// execution because each build mutates the shared installed tree (§5).
type Executor struct {
	Cache     *binarycache.Cache
	Builder   BuildDriver
	Preclear  Preclearer
	Status    StatusStore
	Logs      func(spec resolver.PackageSpec) LogSink
	Logger    obslog.Logger
	KeepGoing KeepGoing
}

// ExecutePlan drives every install action in plan order, returning a
// Summary of per-action results plus the status database reflecting
// whatever was actually installed. Partial failure is the norm: a
// non-nil error here means an unrecoverable IO failure (§7), not merely
// that some action failed to build.
func (e *Executor) ExecutePlan(plan *resolver.Plan, db *statusdb.Database) (Summary, *statusdb.Database, error) {
	var summary Summary

	if e.Preclear != nil {
		for _, a := range plan.InstallActions {
			if err := e.Preclear.Preclear(a.Spec); err != nil {
				return summary, db, errors.Wrapf(err, "install: preclearing %s", a.Spec)
			}
		}
	}

	restored := e.fetchFromCache(plan.InstallActions)
	dependentsOf := computeDependents(plan.InstallActions)
	cascaded := make(map[resolver.PackageSpec]bool)

	for _, action := range plan.InstallActions {
		if cascaded[action.Spec] {
			summary.Results = append(summary.Results, ActionResult{Spec: action.Spec, Kind: CascadedDueToMissingDependencies})
			continue
		}

		if restored[action.Spec] {
			summary.Results = append(summary.Results, ActionResult{Spec: action.Spec, Kind: Downloaded})
			next, err := e.recordInstalled(db, action, nil)
			if err != nil {
				return summary, db, err
			}
			db = next
			continue
		}

		outcome, err := e.build(action)
		if err != nil {
			if e.Logger != nil {
				e.Logger.Errorf("install: building %s: %v", action.Spec, err)
			}
			summary.Results = append(summary.Results, ActionResult{Spec: action.Spec, Kind: BuildFailed, Err: err})
			if !bool(e.KeepGoing) {
				summary.Aborted = true
				return summary, db, nil
			}
			cascadeFrom(dependentsOf, action.Spec, cascaded)
			continue
		}

		summary.Results = append(summary.Results, ActionResult{Spec: action.Spec, Kind: outcome.Kind})

		if outcome.Kind != Succeeded {
			if !bool(e.KeepGoing) {
				summary.Aborted = true
				return summary, db, nil
			}
			cascadeFrom(dependentsOf, action.Spec, cascaded)
			continue
		}

		next, err := e.recordInstalled(db, action, outcome.InstalledFiles)
		if err != nil {
			return summary, db, err
		}
		db = next

		if e.Cache != nil && action.ABI != "" && outcome.ArtifactForCache != nil {
			e.Cache.Push(binarycache.ActionKey(action.ABI), outcome.ArtifactForCache)
		}
	}

	return summary, db, nil
}

func (e *Executor) fetchFromCache(actions []resolver.InstallAction) map[resolver.PackageSpec]bool {
	restored := make(map[resolver.PackageSpec]bool)
	if e.Cache == nil {
		return restored
	}

	var keys []binarycache.ActionKey
	keyToSpec := make(map[binarycache.ActionKey]resolver.PackageSpec, len(actions))
	for _, a := range actions {
		if a.ABI == "" {
			continue
		}
		k := binarycache.ActionKey(a.ABI)
		keys = append(keys, k)
		keyToSpec[k] = a.Spec
	}
	if len(keys) == 0 {
		return restored
	}

	results, err := e.Cache.Fetch(keys)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Warnf("install: binary cache fetch failed, falling back to build: %v", err)
		}
		return restored
	}
	for k, ok := range results {
		if ok {
			restored[keyToSpec[k]] = true
		}
	}
	return restored
}

func (e *Executor) build(action resolver.InstallAction) (BuildOutcome, error) {
	var logs LogSink
	if e.Logs != nil {
		logs = e.Logs(action.Spec)
	}
	return e.Builder.Build(action, logs)
}

// recordInstalled claims any listed files and appends the new status
// paragraph, persisting atomically via StatusStore before returning
// (§4.9 step 5, §4.11: "conflicting installs fail before file-copy").
func (e *Executor) recordInstalled(db *statusdb.Database, action resolver.InstallAction, files []string) (*statusdb.Database, error) {
	rec := statusdb.Record{
		Package:      action.Spec.Name,
		Version:      action.Version.Version.Text,
		PortVersion:  action.Version.Version.PortVersion,
		Architecture: string(action.Spec.Triplet),
		ABI:          action.ABI,
		Status:       statusdb.Status{Want: statusdb.WantInstall, State: statusdb.StateInstalled},
	}
	for _, d := range action.Dependencies {
		rec.Depends = append(rec.Depends, d.Name)
	}

	next, err := db.Append(rec)
	if err != nil {
		return db, errors.Wrapf(err, "install: recording %s in status database", action.Spec)
	}
	if len(files) > 0 {
		if err := next.ClaimFiles(action.Spec.String(), files); err != nil {
			return db, err
		}
	}
	if e.Status != nil {
		if err := e.Status.Persist(next); err != nil {
			return db, errors.Wrapf(err, "install: persisting status database after %s", action.Spec)
		}
	}
	return next, nil
}

func computeDependents(actions []resolver.InstallAction) map[resolver.PackageSpec][]resolver.PackageSpec {
	out := make(map[resolver.PackageSpec][]resolver.PackageSpec)
	for _, a := range actions {
		for _, dep := range a.Dependencies {
			out[dep] = append(out[dep], a.Spec)
		}
	}
	return out
}

// cascadeFrom marks every transitive dependent of spec as cascaded, so a
// later iteration over plan.InstallActions records them as
// CascadedDueToMissingDependencies instead of attempting to build on top
// of a missing dependency (§4.9 step 4).
func cascadeFrom(dependentsOf map[resolver.PackageSpec][]resolver.PackageSpec, spec resolver.PackageSpec, cascaded map[resolver.PackageSpec]bool) {
	for _, dep := range dependentsOf[spec] {
		if !cascaded[dep] {
			cascaded[dep] = true
			cascadeFrom(dependentsOf, dep, cascaded)
		}
	}
}
