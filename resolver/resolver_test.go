package resolver

import (
	"strings"
	"testing"

	"github.com/microsoft/vcpkg-tool-sub003/paragraph"
	"github.com/microsoft/vcpkg-tool-sub003/platform"
	"github.com/microsoft/vcpkg-tool-sub003/portfile"
	"github.com/microsoft/vcpkg-tool-sub003/version"
	"github.com/stretchr/testify/require"
)

const targetTriplet = Triplet("x64-linux")
const hostTriplet = Triplet("x64-linux")

type fakePorts struct {
	scfs map[string]*paragraph.SourceControlFile
}

func (f *fakePorts) GetControlFile(name string) (*portfile.SCFL, error) {
	scf, ok := f.scfs[name]
	if !ok {
		return nil, &Error{Kind: ErrVersionNotFound, Message: "no such port: " + name}
	}
	return &portfile.SCFL{SCF: scf}, nil
}

type fakeVars struct {
	requested []string
}

func (f *fakeVars) Vars(t Triplet) platform.Context {
	return platform.Context{platform.VarCMakeSystemName: "Linux"}
}

func (f *fakeVars) RequestQualifiedDepInfo(names []string) {
	f.requested = append(f.requested, names...)
}

type fakeBaselines struct {
	scheme         version.Scheme
	baselineScheme version.Scheme // if set, overrides scheme for Baseline() only
	baselineText   string
	schemes        map[string]version.Scheme // per-port override for SchemeFor
}

func (f *fakeBaselines) Baseline(name string) (version.SchemedVersion, bool) {
	scheme, _ := f.SchemeFor(name)
	if f.baselineScheme != "" {
		scheme = f.baselineScheme
	}
	text := f.baselineText
	if text == "" {
		text = "1.0.0"
	}
	return version.SchemedVersion{Scheme: scheme, Version: version.New(text)}, true
}

func (f *fakeBaselines) SchemeFor(name string) (version.Scheme, bool) {
	if s, ok := f.schemes[name]; ok {
		return s, true
	}
	return f.scheme, true
}

func mustParse(t *testing.T, expr string) platform.Expr {
	t.Helper()
	e, err := platform.Parse(expr)
	require.NoError(t, err)
	return e
}

func scfWithDeps(t *testing.T, name string, deps ...paragraph.Dependency) *paragraph.SourceControlFile {
	t.Helper()
	return &paragraph.SourceControlFile{
		Name:         name,
		RawVersion:   version.SchemedVersion{Scheme: version.SchemeRelaxed, Version: version.New("1.0.0")},
		Dependencies: deps,
		Supports:     mustParse(t, ""),
	}
}

func TestResolveSimpleChain(t *testing.T) {
	zlib := scfWithDeps(t, "zlib")
	curl := scfWithDeps(t, "curl", paragraph.Dependency{Name: "zlib", Platform: mustParse(t, "")})

	cfg := Config{
		Roots:          []FullPackageSpec{{Spec: PackageSpec{Name: "curl", Triplet: targetTriplet}}},
		HostTriplet:    hostTriplet,
		DefaultTriplet: targetTriplet,
		Ports:          &fakePorts{scfs: map[string]*paragraph.SourceControlFile{"curl": curl, "zlib": zlib}},
		Baselines:      &fakeBaselines{scheme: version.SchemeRelaxed},
		Vars:           &fakeVars{},
	}

	plan, err := Resolve(cfg)
	require.NoError(t, err)
	require.Len(t, plan.InstallActions, 2)
	require.Equal(t, "zlib", plan.InstallActions[0].Spec.Name)
	require.Equal(t, "curl", plan.InstallActions[1].Spec.Name)
}

func TestResolveDetectsCycle(t *testing.T) {
	a := scfWithDeps(t, "a", paragraph.Dependency{Name: "b", Platform: mustParse(t, "")})
	b := scfWithDeps(t, "b", paragraph.Dependency{Name: "a", Platform: mustParse(t, "")})

	cfg := Config{
		Roots:       []FullPackageSpec{{Spec: PackageSpec{Name: "a", Triplet: targetTriplet}}},
		HostTriplet: hostTriplet,
		Ports:       &fakePorts{scfs: map[string]*paragraph.SourceControlFile{"a": a, "b": b}},
		Baselines:   &fakeBaselines{scheme: version.SchemeRelaxed},
		Vars:        &fakeVars{},
	}

	_, err := Resolve(cfg)
	require.Error(t, err)
	re, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, ErrCycle, re.Kind)
}

func TestResolveSkipsPlatformGatedDependency(t *testing.T) {
	winonly := scfWithDeps(t, "app", paragraph.Dependency{Name: "windows-only-lib", Platform: mustParse(t, "windows")})
	cfg := Config{
		Roots:       []FullPackageSpec{{Spec: PackageSpec{Name: "app", Triplet: targetTriplet}}},
		HostTriplet: hostTriplet,
		Ports:       &fakePorts{scfs: map[string]*paragraph.SourceControlFile{"app": winonly}},
		Baselines:   &fakeBaselines{scheme: version.SchemeRelaxed},
		Vars:        &fakeVars{},
	}

	plan, err := Resolve(cfg)
	require.NoError(t, err)
	require.Len(t, plan.InstallActions, 1)
	require.Equal(t, "app", plan.InstallActions[0].Spec.Name)
}

func TestResolveUnsupportedPortWarnsByDefault(t *testing.T) {
	scf := scfWithDeps(t, "app")
	scf.Supports = mustParse(t, "windows")
	cfg := Config{
		Roots:       []FullPackageSpec{{Spec: PackageSpec{Name: "app", Triplet: targetTriplet}}},
		HostTriplet: hostTriplet,
		Ports:       &fakePorts{scfs: map[string]*paragraph.SourceControlFile{"app": scf}},
		Baselines:   &fakeBaselines{scheme: version.SchemeRelaxed},
		Vars:        &fakeVars{},
	}

	plan, err := Resolve(cfg)
	require.NoError(t, err)
	require.Empty(t, plan.InstallActions)
	require.Len(t, plan.Warnings, 1)
	require.True(t, strings.Contains(plan.Warnings[0], "app"))
}

func TestResolveUnsupportedPortErrorsWhenConfigured(t *testing.T) {
	scf := scfWithDeps(t, "app")
	scf.Supports = mustParse(t, "windows")
	cfg := Config{
		Roots:             []FullPackageSpec{{Spec: PackageSpec{Name: "app", Triplet: targetTriplet}}},
		HostTriplet:       hostTriplet,
		Ports:             &fakePorts{scfs: map[string]*paragraph.SourceControlFile{"app": scf}},
		Baselines:         &fakeBaselines{scheme: version.SchemeRelaxed},
		Vars:              &fakeVars{},
		UnsupportedAction: UnsupportedPortError,
	}

	_, err := Resolve(cfg)
	require.Error(t, err)
}

func TestNormalizeFeaturesInsertsCoreAndDefaults(t *testing.T) {
	scf := &paragraph.SourceControlFile{DefaultFeatures: []string{"foo", "bar"}}
	got := normalizeFeatures(scf, nil)
	require.Equal(t, []string{"bar", "core", "foo"}, got)
}

func TestNormalizeFeaturesHonorsSuppression(t *testing.T) {
	scf := &paragraph.SourceControlFile{DefaultFeatures: []string{"foo", "bar"}}
	got := normalizeFeatures(scf, []string{"default", "-bar"})
	require.Equal(t, []string{"core", "foo"}, got)
}

// A manifest's `version>=` constraint never carries its own scheme (it's
// just text); the resolver must assign the *target* port's registry scheme
// at closure-build time, not trust whatever scheme the constraint arrived
// with. openssl's registry scheme here is semver, not the zero-value the
// manifest parser leaves on Dependency.Minimum.
func TestResolveAssignsConstraintSchemeFromTargetPort(t *testing.T) {
	openssl := &paragraph.SourceControlFile{
		Name:       "openssl",
		RawVersion: version.SchemedVersion{Scheme: version.SchemeSemver, Version: version.New("3.0.0")},
		Supports:   mustParse(t, ""),
	}
	minimum := version.SchemedVersion{Version: version.New("3.0.0")}
	app := scfWithDeps(t, "app", paragraph.Dependency{Name: "openssl", Platform: mustParse(t, ""), Minimum: &minimum})

	cfg := Config{
		Roots:       []FullPackageSpec{{Spec: PackageSpec{Name: "app", Triplet: targetTriplet}}},
		HostTriplet: hostTriplet,
		Ports:       &fakePorts{scfs: map[string]*paragraph.SourceControlFile{"app": app, "openssl": openssl}},
		Baselines: &fakeBaselines{
			scheme:  version.SchemeRelaxed,
			schemes: map[string]version.Scheme{"openssl": version.SchemeSemver},
		},
		Vars: &fakeVars{},
	}

	plan, err := Resolve(cfg)
	require.NoError(t, err)
	require.Len(t, plan.InstallActions, 2)
}

func TestResolveWrapsSchemeMismatchError(t *testing.T) {
	zlib := scfWithDeps(t, "zlib")
	cfg := Config{
		Roots:       []FullPackageSpec{{Spec: PackageSpec{Name: "zlib", Triplet: targetTriplet}}},
		HostTriplet: hostTriplet,
		Ports:       &fakePorts{scfs: map[string]*paragraph.SourceControlFile{"zlib": zlib}},
		Baselines:   &fakeBaselines{scheme: version.SchemeSemver, baselineScheme: version.SchemeRelaxed},
		Vars:        &fakeVars{},
	}

	_, err := Resolve(cfg)
	require.Error(t, err)
	re, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, ErrSchemeMismatch, re.Kind)
}

func TestResolveWrapsOverrideConflictError(t *testing.T) {
	zlib := scfWithDeps(t, "zlib")
	curl := scfWithDeps(t, "curl", paragraph.Dependency{Name: "zlib", Platform: mustParse(t, "")})

	cfg := Config{
		Roots:       []FullPackageSpec{{Spec: PackageSpec{Name: "curl", Triplet: targetTriplet}}},
		HostTriplet: hostTriplet,
		Ports:       &fakePorts{scfs: map[string]*paragraph.SourceControlFile{"curl": curl, "zlib": zlib}},
		Baselines:   &fakeBaselines{scheme: version.SchemeString},
		Vars:        &fakeVars{},
	}

	// Two incomparable "string"-scheme constraints on zlib: the baseline
	// text and an unrelated constraint text with no ordering between them.
	minimum := version.SchemedVersion{Version: version.New("not-a-baseline-match")}
	curl.Dependencies[0].Minimum = &minimum

	_, err := Resolve(cfg)
	require.Error(t, err)
	re, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, ErrOverrideConflict, re.Kind)
}
