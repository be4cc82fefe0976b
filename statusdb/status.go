// Package statusdb models the installed-package status database
// (installed/vcpkg/status), an append-only log of control paragraphs
// describing what is and is not installed, grounded on the teacher's
// Lock/rawLock raw-then-typed pattern in lock.go.
package statusdb

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Want is the desired-state half of a Status triple.
type Want int

const (
	WantInstall Want = iota
	WantPurge
)

func (w Want) String() string {
	if w == WantPurge {
		return "purge"
	}
	return "install"
}

// State is the actual-state half of a Status triple.
type State int

const (
	StateNotInstalled State = iota
	StateHalfInstalled
	StateInstalled
)

func (s State) String() string {
	switch s {
	case StateInstalled:
		return "installed"
	case StateHalfInstalled:
		return "half-installed"
	default:
		return "not-installed"
	}
}

// Status is the <want> <flag> <state> triple, e.g. "install ok installed".
// The flag is always "ok" in the records we produce; the field exists
// because the on-disk format carries it for dpkg-style compatibility.
type Status struct {
	Want  Want
	State State
}

func (s Status) String() string { return fmt.Sprintf("%s ok %s", s.Want, s.State) }

func (s Status) isInstalled() bool { return s.Want == WantInstall && s.State == StateInstalled }

// Record is one installed (or formerly installed) spec/feature paragraph.
type Record struct {
	Package         string
	Version         string
	PortVersion     int
	Architecture    string
	Feature         string // empty for the "core" paragraph
	Depends         []string
	DefaultFeatures []string
	ABI             string
	Status          Status
}

// IsCore reports whether this record is the package's primary paragraph
// rather than a feature paragraph (§4.11 invariant: a feature paragraph
// requires its core paragraph to exist).
func (r Record) IsCore() bool { return r.Feature == "" }

func (r Record) key() string {
	if r.IsCore() {
		return r.Package
	}
	return r.Package + "[" + r.Feature + "]"
}

// Database is the in-memory, load-time-reconstructed view of the status
// file: an append-only log of Records plus derived indexes. Back-edges are
// recomputed on load per §4.11; listfile ownership is recorded only through
// ClaimFiles and is not reconstructed by Load.
type Database struct {
	records  []Record // append order, oldest first -- mirrors on-disk log
	byKey    map[string]int // key -> index of latest record for that key
	backEdges map[string][]string // dependency name -> dependents that Depend on it
	owners   map[string]string // installed file path -> owning spec key
}

// New builds an empty Database, as when installed/vcpkg/status does not
// yet exist.
func New() *Database {
	return &Database{
		byKey:     make(map[string]int),
		backEdges: make(map[string][]string),
		owners:    make(map[string]string),
	}
}

// Load reconstructs a Database from an append-only sequence of Records,
// as read from the on-disk paragraph log, keeping only the latest record
// per key (later entries supersede earlier ones with the same Package
// and Feature) and recomputing back-edges from Depends.
func Load(records []Record) (*Database, error) {
	db := New()
	for _, r := range records {
		if err := db.appendLocked(r); err != nil {
			return nil, err
		}
	}
	db.recomputeBackEdges()
	return db, nil
}

func (db *Database) appendLocked(r Record) error {
	db.records = append(db.records, r)
	db.byKey[r.key()] = len(db.records) - 1
	return nil
}

func (db *Database) recomputeBackEdges() {
	db.backEdges = make(map[string][]string)
	for _, r := range db.Installed() {
		if !r.IsCore() {
			continue
		}
		for _, dep := range r.Depends {
			db.backEdges[dep] = append(db.backEdges[dep], r.Package)
		}
	}
	for dep := range db.backEdges {
		sort.Strings(db.backEdges[dep])
	}
}

// Installed returns the latest record for every key whose Status reports
// installed, in append order.
func (db *Database) Installed() []Record {
	var out []Record
	for i, r := range db.records {
		if latest, ok := db.byKey[r.key()]; !ok || latest != i {
			continue
		}
		if r.Status.isInstalled() {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the latest record for a package's core paragraph, if any.
func (db *Database) Find(pkg string) (Record, bool) {
	idx, ok := db.byKey[pkg]
	if !ok {
		return Record{}, false
	}
	return db.records[idx], true
}

// FindFeature returns the latest record for a feature paragraph.
func (db *Database) FindFeature(pkg, feature string) (Record, bool) {
	idx, ok := db.byKey[pkg+"[" + feature + "]"]
	if !ok {
		return Record{}, false
	}
	return db.records[idx], true
}

// Dependents returns the set of installed package names that directly
// depend on pkg, derived from the load-time back-edge recomputation.
func (db *Database) Dependents(pkg string) []string {
	return append([]string(nil), db.backEdges[pkg]...)
}

// Append adds new paragraphs to the log (an install or a purge), applying
// the "feature requires core" invariant, and returns the new Database
// state. Append never mutates db; callers persist the returned Database.
func (db *Database) Append(records ...Record) (*Database, error) {
	next := &Database{
		records:   append(append([]Record(nil), db.records...), records...),
		byKey:     make(map[string]int, len(db.byKey)+len(records)),
		owners:    make(map[string]string, len(db.owners)),
	}
	for k, v := range db.owners {
		next.owners[k] = v
	}
	for i, r := range next.records {
		next.byKey[r.key()] = i
	}
	for _, r := range records {
		if !r.IsCore() && r.Status.isInstalled() {
			if _, ok := next.Find(r.Package); !ok {
				return nil, errors.Errorf("statusdb: feature %s of %s has no installed core paragraph", r.Feature, r.Package)
			}
		}
	}
	next.recomputeBackEdges()
	return next, nil
}

// ClaimFiles records listfile ownership for spec, failing if any path is
// already owned by a different spec (§4.11: "conflicting installs fail
// before file-copy").
func (db *Database) ClaimFiles(specKey string, paths []string) error {
	for _, p := range paths {
		if owner, ok := db.owners[p]; ok && owner != specKey {
			return errors.Errorf("statusdb: file %s is already owned by %s, conflicts with %s", p, owner, specKey)
		}
	}
	for _, p := range paths {
		db.owners[p] = specKey
	}
	return nil
}

// Owner returns the spec key owning an installed file path, if any.
func (db *Database) Owner(path string) (string, bool) {
	owner, ok := db.owners[path]
	return owner, ok
}

// sortedRecords implements sort.Interface over Records by (Package,
// Feature), mirroring the teacher's SortedLockedProjects idiom in
// lock.go for deterministic on-disk ordering.
type sortedRecords []Record

func (s sortedRecords) Len() int      { return len(s) }
func (s sortedRecords) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s sortedRecords) Less(i, j int) bool {
	if s[i].Package != s[j].Package {
		return s[i].Package < s[j].Package
	}
	return s[i].Feature < s[j].Feature
}
