package resolver

import "github.com/microsoft/vcpkg-tool-sub003/version"

// InstallAction is one planned build-or-restore of a package with a
// specific feature set and resolved version (§4.6 step 4/7).
type InstallAction struct {
	Spec       PackageSpec
	Features   []string
	Version    version.SchemedVersion
	ABI        string // filled in later by the ABI engine; empty until then
	BuildType  BuildReason
	// Dependencies lists the direct package-dependencies of this action
	// (§3 InstallPlanAction's package-dependencies), used by the install
	// executor to cascade failures to dependents (§4.9 step 4).
	Dependencies []PackageSpec
}

// BuildReason records why an install action was planned, used only for
// diagnostics and status output.
type BuildReason int

const (
	BuildReasonUserRequested BuildReason = iota
	BuildReasonDependency
	BuildReasonMismatchedABI
)

// RemoveAction is one planned uninstall, ordered so dependents are removed
// before their dependencies (§4.6 step 8).
type RemoveAction struct {
	Spec PackageSpec
}

// InstalledPackageView is the minimal installed-package shape the
// resolver needs from a status database to perform already-installed
// elision (§4.6 step 7). The caller adapts its own status-database
// records to this shape; resolver never imports the status package.
type InstalledPackageView struct {
	Spec     PackageSpec
	ABI      string
	Features []string
}

// InstalledIndex answers "what, if anything, is installed for this spec"
// without the resolver depending on a concrete status-database type.
type InstalledIndex interface {
	Lookup(spec PackageSpec) (InstalledPackageView, bool)
	All() []InstalledPackageView
}

// Plan is the resolver's final output: actions in dependency order plus
// elided (already-satisfied) installs and packages to remove (§4.6).
type Plan struct {
	InstallActions    []InstallAction
	AlreadyInstalled  []InstalledPackageView
	RemoveActions     []RemoveAction
	Warnings          []string
}
