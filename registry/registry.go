package registry

import "github.com/microsoft/vcpkg-tool-sub003/version"

// RegistryEntry is what get_port_entry returns: enough information to
// locate and validate a port's SCF at a specific version (§4.4).
type RegistryEntry struct {
	Port    string
	Version version.SchemedVersion
	GitTree string // 40-hex git tree SHA, when loaded from a git-backed registry
	Path    string // "$/..."-rooted path, when loaded from a filesystem registry
}

// Registry is the common operation set every registry kind implements
// (§4.4). All operations are fallible with *LocalizedError.
type Registry interface {
	// GetBaselineVersion returns the pinned baseline version for name, or
	// ok=false if the registry's baseline doesn't mention it.
	GetBaselineVersion(name string) (sv version.SchemedVersion, ok bool, err error)

	// GetPortEntry returns the registry entry that matches sv (or the
	// baseline version if sv is nil), or ok=false if absent.
	GetPortEntry(name string, sv *version.SchemedVersion) (entry RegistryEntry, ok bool, err error)

	// AppendAllPortNames appends every port name the registry knows about
	// to names; may require network access.
	AppendAllPortNames(names *[]string) error

	// TryAppendAllPortNamesNoNetwork attempts the same without I/O,
	// returning whether it succeeded.
	TryAppendAllPortNamesNoNetwork(names *[]string) bool

	// ResolvePath turns a RegistryEntry.Path ("$/..."-rooted, or already
	// absolute for an overlay-style registry) into a real filesystem
	// directory the port file provider can read. Git-backed registries
	// return an error here: materializing a historical git tree to a
	// working directory is download/extraction machinery, out of scope
	// per §1 -- only civerify's ShowManifestAtTree reads their content
	// directly, by git-tree SHA rather than path.
	ResolvePath(path string) (string, error)
}

// SchemeReporter reports the comparison scheme a registry records a port's
// versions under, consulted by the resolver's §4.3 step 4 scheme check.
type SchemeReporter interface {
	SchemeFor(port string) (version.Scheme, bool)
}
