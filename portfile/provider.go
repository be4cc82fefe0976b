// Package portfile implements the unified overlay-then-registry port
// lookup (§4.5): get_control_file and load_all_control_files, with
// overlay-shadows-registry semantics and a cache so repeated lookups for
// the same (name, version) return the identical *SCFL reference.
package portfile

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/microsoft/vcpkg-tool-sub003/paragraph"
	"github.com/microsoft/vcpkg-tool-sub003/registry"
	"github.com/microsoft/vcpkg-tool-sub003/version"
)

// FailureKind names a port-file-provider failure mode (§4.5).
type FailureKind string

const (
	ErrVersionMismatch FailureKind = "version-mismatch"
	ErrPortNotFound     FailureKind = "port-not-found"
)

// Error reports a port-file-provider failure.
type Error struct {
	Kind    FailureKind
	Port    string
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": port " + e.Port + ": " + e.Message
}

// SCFL pairs a parsed SourceControlFile with the location it was loaded
// from, mirroring vcpkg's SourceControlFileAndLocation.
type SCFL struct {
	SCF         *paragraph.SourceControlFile
	SourceDir   string
}

// OverlayDir is one registered overlay directory (§4.5). It is either a
// single port (has vcpkg.json or CONTROL at its root, in which case it
// shadows only the one port it names) or a directory containing many port
// subdirectories.
type OverlayDir struct {
	Path string
}

func (o OverlayDir) isPort() bool {
	for _, marker := range []string{"vcpkg.json", "CONTROL"} {
		if _, err := os.Stat(filepath.Join(o.Path, marker)); err == nil {
			return true
		}
	}
	return false
}

// Provider resolves ports by trying overlays first (in registration
// order), then falling back to the registry set, caching results so
// repeated lookups share one *SCFL (§4.5 point 3).
type Provider struct {
	Overlays []OverlayDir
	Set      *registry.RegistrySet

	mu    sync.Mutex
	cache map[uint64]*SCFL
}

// NewProvider constructs a Provider over the given overlays and registry
// set. Overlays are consulted in the order supplied.
func NewProvider(overlays []OverlayDir, set *registry.RegistrySet) *Provider {
	return &Provider{Overlays: overlays, Set: set, cache: make(map[uint64]*SCFL)}
}

// cacheKey hashes a (name, version) lookup with xxhash rather than
// keying the cache map directly by the concatenated string -- this
// lookup happens on every dependency edge the resolver walks, and a
// non-cryptographic fast hash keeps it off the path of the ABI engine's
// SHA-256 content digests (§4.7 stays cryptographic; this cache key
// never needs to be).
func cacheKey(name string, sv *version.SchemedVersion) uint64 {
	var s string
	if sv == nil {
		s = name + "@baseline"
	} else {
		s = name + "@" + string(sv.Scheme) + ":" + sv.Version.String()
	}
	return xxhash.Sum64String(s)
}

// GetControlFile implements §4.5's get_control_file: overlays first
// (first hit wins regardless of version), otherwise the selected registry
// is consulted for (name, baseline_version(name)) and the loaded SCF is
// checked to match.
func (p *Provider) GetControlFile(name string) (*SCFL, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := cacheKey(name, nil)
	if cached, ok := p.cache[key]; ok {
		return cached, nil
	}

	if scfl, ok, err := p.loadFromOverlay(name); err != nil {
		return nil, err
	} else if ok {
		p.cache[key] = scfl
		return scfl, nil
	}

	reg, ok := p.Set.RegistryForPort(name)
	if !ok {
		return nil, &Error{Kind: ErrPortNotFound, Port: name, Message: "no registry claims this port"}
	}
	baseline, hasBaseline, err := reg.GetBaselineVersion(name)
	if err != nil {
		return nil, err
	}

	// A registry without a separate baseline file (e.g. builtin-files)
	// treats the port's own manifest as authoritative: look the entry up
	// unconditionally rather than by a baseline version that doesn't
	// exist, and skip the version cross-check below.
	var sv *version.SchemedVersion
	if hasBaseline {
		sv = &baseline
	}

	entry, ok, err := reg.GetPortEntry(name, sv)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &Error{Kind: ErrPortNotFound, Port: name, Message: "registry has no entry for this port"}
	}

	dir, err := reg.ResolvePath(entry.Path)
	if err != nil {
		return nil, err
	}
	scfl, err := loadSCFLFromPath(dir)
	if err != nil {
		return nil, err
	}
	if hasBaseline && !scfl.SCF.Version().Equal(baseline.Version) {
		return nil, &Error{Kind: ErrVersionMismatch, Port: name, Message: "loaded SCF version does not match registry baseline"}
	}

	p.cache[key] = scfl
	return scfl, nil
}

func (p *Provider) loadFromOverlay(name string) (*SCFL, bool, error) {
	for _, o := range p.Overlays {
		if o.isPort() {
			scfl, err := loadSCFLFromPath(o.Path)
			if err != nil {
				return nil, false, err
			}
			if scfl.SCF.Name != name {
				continue
			}
			return scfl, true, nil
		}
		candidate := filepath.Join(o.Path, name)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			scfl, err := loadSCFLFromPath(candidate)
			if err != nil {
				return nil, false, err
			}
			return scfl, true, nil
		}
	}
	return nil, false, nil
}

// LoadAllControlFiles implements §4.5's load_all_control_files: overlays
// add first, so later registry additions never shadow an overlay port.
func (p *Provider) LoadAllControlFiles() (map[string]*SCFL, []error) {
	out := make(map[string]*SCFL)
	var errs []error

	for _, o := range p.Overlays {
		if o.isPort() {
			scfl, err := loadSCFLFromPath(o.Path)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if _, exists := out[scfl.SCF.Name]; !exists {
				out[scfl.SCF.Name] = scfl
			}
			continue
		}
		entries, err := os.ReadDir(o.Path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || e.Name() == ".DS_Store" {
				continue
			}
			if _, exists := out[e.Name()]; exists {
				continue
			}
			scfl, err := loadSCFLFromPath(filepath.Join(o.Path, e.Name()))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out[e.Name()] = scfl
		}
	}

	var names []string
	p.Set.AllPortNames(&names)
	sort.Strings(names)
	for _, name := range names {
		if _, exists := out[name]; exists {
			continue
		}
		scfl, err := p.GetControlFile(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[name] = scfl
	}

	return out, errs
}

// loadSCFLFromPath loads a port's SCF from a directory, preferring
// vcpkg.json over CONTROL when both somehow exist (caller is expected to
// have already rejected manifest-and-CONTROL coexistence at a higher
// layer for registry-owned ports; overlays are trusted as-is).
func loadSCFLFromPath(dir string) (*SCFL, error) {
	manifestPath := filepath.Join(dir, "vcpkg.json")
	controlPath := filepath.Join(dir, "CONTROL")

	hasManifest := fileExists(manifestPath)
	hasControl := fileExists(controlPath)
	if hasManifest && hasControl {
		return nil, &Error{Kind: ErrPortNotFound, Port: filepath.Base(dir), Message: "manifest-and-CONTROL coexist in " + dir}
	}

	if hasManifest {
		f, err := os.Open(manifestPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		scf, err := paragraph.ParseManifest(f)
		if err != nil {
			return nil, err
		}
		return &SCFL{SCF: scf, SourceDir: dir}, nil
	}
	if hasControl {
		data, err := os.ReadFile(controlPath)
		if err != nil {
			return nil, err
		}
		scf, err := paragraph.ParseControlSCF(string(data))
		if err != nil {
			return nil, err
		}
		return &SCFL{SCF: scf, SourceDir: dir}, nil
	}
	return nil, &Error{Kind: ErrPortNotFound, Port: filepath.Base(dir), Message: "no vcpkg.json or CONTROL in " + dir}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
