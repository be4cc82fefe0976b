package civerify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/microsoft/vcpkg-tool-sub003/paragraph"
	"github.com/microsoft/vcpkg-tool-sub003/registry"
	"github.com/microsoft/vcpkg-tool-sub003/version"
)

type fakeDB struct {
	entries map[string][]registry.RegistryEntry
	errs    map[string]error
	trees   map[string][]byte
}

func (f *fakeDB) VersionDB(port string) ([]registry.RegistryEntry, error) {
	if err, ok := f.errs[port]; ok {
		return nil, err
	}
	return f.entries[port], nil
}

func (f *fakeDB) ShowManifestAtTree(gitTree string) ([]byte, bool, error) {
	return f.trees[gitTree], false, nil
}

func scf(name, text string, portVersion int) *paragraph.SourceControlFile {
	return &paragraph.SourceControlFile{
		Name:        name,
		RawVersion:  version.SchemedVersion{Scheme: version.SchemeRelaxed, Version: version.New(text)},
		PortVersion: portVersion,
	}
}

func TestRunCleanTreeHasNoProblems(t *testing.T) {
	lp := LocalPort{Name: "zlib2", SCF: scf("zlib2", "1.5", 0), GitTree: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}
	db := &fakeDB{entries: map[string][]registry.RegistryEntry{
		"zlib2": {{Port: "zlib2", Version: version.SchemedVersion{Scheme: version.SchemeRelaxed, Version: version.New("1.5")}, GitTree: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}},
	}}
	v := &Verifier{
		Ports:    []LocalPort{lp},
		Baseline: registry.Baseline{"zlib2": version.New("1.5")},
		DB:       db,
	}

	require.Empty(t, v.Run())
}

func TestRunDetectsSHAMismatch(t *testing.T) {
	lp := LocalPort{Name: "zlib2", SCF: scf("zlib2", "1.5", 0), GitTree: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"}
	db := &fakeDB{entries: map[string][]registry.RegistryEntry{
		"zlib2": {{Port: "zlib2", Version: version.SchemedVersion{Scheme: version.SchemeRelaxed, Version: version.New("1.5")}, GitTree: "cccccccccccccccccccccccccccccccccccccccc"}},
	}}
	v := &Verifier{
		Ports:    []LocalPort{lp},
		Baseline: registry.Baseline{"zlib2": version.New("1.5")},
		DB:       db,
	}

	problems := v.Run()
	require.Len(t, problems, 1)
	require.Equal(t, SHAMismatch, problems[0].Kind)
	require.Contains(t, problems[0].Remediation, "x-add-version")
}

func TestRunDetectsVersionMissing(t *testing.T) {
	lp := LocalPort{Name: "zlib2", SCF: scf("zlib2", "1.6", 0)}
	db := &fakeDB{entries: map[string][]registry.RegistryEntry{
		"zlib2": {{Port: "zlib2", Version: version.SchemedVersion{Scheme: version.SchemeRelaxed, Version: version.New("1.5")}}},
	}}
	v := &Verifier{Ports: []LocalPort{lp}, Baseline: registry.Baseline{"zlib2": version.New("1.6")}, DB: db}

	problems := v.Run()
	require.Len(t, problems, 1)
	require.Equal(t, VersionMissing, problems[0].Kind)
}

func TestRunDetectsBaselineMismatch(t *testing.T) {
	lp := LocalPort{Name: "zlib2", SCF: scf("zlib2", "1.5", 0)}
	db := &fakeDB{entries: map[string][]registry.RegistryEntry{
		"zlib2": {{Port: "zlib2", Version: version.SchemedVersion{Scheme: version.SchemeRelaxed, Version: version.New("1.5")}}},
	}}
	v := &Verifier{Ports: []LocalPort{lp}, Baseline: registry.Baseline{"zlib2": version.New("1.4")}, DB: db}

	problems := v.Run()
	require.Len(t, problems, 1)
	require.Equal(t, BaselineMismatch, problems[0].Kind)
}

func TestRunRequiresDependencyToBeVersioned(t *testing.T) {
	s := scf("curl", "1.0", 0)
	s.Dependencies = []paragraph.Dependency{{Name: "zlib2"}}
	lp := LocalPort{Name: "curl", SCF: s}
	db := &fakeDB{entries: map[string][]registry.RegistryEntry{
		"curl": {{Port: "curl", Version: version.SchemedVersion{Scheme: version.SchemeRelaxed, Version: version.New("1.0")}}},
	}}
	v := &Verifier{Ports: []LocalPort{lp}, Baseline: registry.Baseline{"curl": version.New("1.0")}, DB: db}

	problems := v.Run()
	require.Len(t, problems, 1)
	require.Equal(t, DependencyNotVersioned, problems[0].Kind)
}

func TestRunMissingVersionDBReportsOneProblem(t *testing.T) {
	lp := LocalPort{Name: "ghost", SCF: scf("ghost", "1.0", 0)}
	db := &fakeDB{errs: map[string]error{"ghost": errors.New("no such file")}}
	v := &Verifier{Ports: []LocalPort{lp}, DB: db}

	problems := v.Run()
	require.Len(t, problems, 1)
	require.Equal(t, VersionDBMissing, problems[0].Kind)
}
