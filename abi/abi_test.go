package abi

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePort(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func baseInputs(portDir string) Inputs {
	return Inputs{
		Tools: ToolVersions{CMakeVersion: "3.27.0", PortsCMakeDigest: "deadbeef"},
		Triplet: TripletInfo{Digest: "triplet-digest"},
		PortDir: portDir,
		Features: []string{"core"},
		PortName: "zlib",
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	dir := writePort(t, map[string]string{
		"portfile.cmake": "vcpkg_download_distfile(...)",
		"vcpkg.json":     `{"name":"zlib","version":"1.0.0"}`,
	})

	r1, err := Compute(baseInputs(dir))
	require.NoError(t, err)
	r2, err := Compute(baseInputs(dir))
	require.NoError(t, err)
	require.Equal(t, r1.PackageABI, r2.PackageABI)
}

func TestComputeChangesWhenFileContentChanges(t *testing.T) {
	dir := writePort(t, map[string]string{"portfile.cmake": "v1"})
	r1, err := Compute(baseInputs(dir))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "portfile.cmake"), []byte("v2"), 0o644))
	r2, err := Compute(baseInputs(dir))
	require.NoError(t, err)

	require.NotEqual(t, r1.PackageABI, r2.PackageABI)
}

func TestComputeIgnoresDSStore(t *testing.T) {
	dir := writePort(t, map[string]string{"portfile.cmake": "v1"})
	r1, err := Compute(baseInputs(dir))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".DS_Store"), []byte("junk"), 0o644))
	r2, err := Compute(baseInputs(dir))
	require.NoError(t, err)

	require.Equal(t, r1.PackageABI, r2.PackageABI)
}

func TestComputeRejectsDefaultPseudoFeature(t *testing.T) {
	dir := writePort(t, map[string]string{"portfile.cmake": "v1"})
	in := baseInputs(dir)
	in.Features = []string{"core", "default"}
	_, err := Compute(in)
	require.Error(t, err)
}

func TestComputeRequiresCoreFeature(t *testing.T) {
	dir := writePort(t, map[string]string{"portfile.cmake": "v1"})
	in := baseInputs(dir)
	in.Features = []string{"ssl"}
	_, err := Compute(in)
	require.Error(t, err)
}

func TestComputeWarnsOverManyFiles(t *testing.T) {
	files := make(map[string]string, 120)
	for i := 0; i < 120; i++ {
		files[filepath.Join("patches", fmt.Sprintf("patch-%03d.diff", i))] = "x"
	}
	dir := writePort(t, files)
	r, err := Compute(baseInputs(dir))
	require.NoError(t, err)
	require.NotEmpty(t, r.Warnings)
}

func TestComputeFoldsInMatchingCMakeHelper(t *testing.T) {
	dir := writePort(t, map[string]string{
		"portfile.cmake": "vcpkg_fixup_pkgconfig()",
	})
	withHelper := baseInputs(dir)
	withHelper.CMakeHelpers = []CMakeHelper{{Stem: "vcpkg_fixup_pkgconfig", Digest: "helper-digest"}}
	r1, err := Compute(withHelper)
	require.NoError(t, err)

	withoutHelper := baseInputs(dir)
	r2, err := Compute(withoutHelper)
	require.NoError(t, err)

	require.NotEqual(t, r1.PackageABI, r2.PackageABI)
}

func TestComputeSkipsNonMatchingCMakeHelper(t *testing.T) {
	dir := writePort(t, map[string]string{"portfile.cmake": "nothing_relevant()"})
	in := baseInputs(dir)
	in.CMakeHelpers = []CMakeHelper{{Stem: "vcpkg_fixup_pkgconfig", Digest: "helper-digest"}}
	r, err := Compute(in)
	require.NoError(t, err)

	var sawHelper bool
	for _, e := range r.Entries {
		if e.Key == "vcpkg_fixup_pkgconfig" {
			sawHelper = true
		}
	}
	require.False(t, sawHelper)
}

func TestComputeOrdersDependencyEntriesByName(t *testing.T) {
	dir := writePort(t, map[string]string{"portfile.cmake": "x"})
	in := baseInputs(dir)
	in.DependencyABIs = map[string]string{"zlib-dep-b": "bbb", "zlib-dep-a": "aaa"}
	r, err := Compute(in)
	require.NoError(t, err)

	var order []string
	for _, e := range r.Entries {
		if e.Key == "zlib-dep-a" || e.Key == "zlib-dep-b" {
			order = append(order, e.Key)
		}
	}
	require.Equal(t, []string{"zlib-dep-a", "zlib-dep-b"}, order)
}

func TestComputeIncludesWindowsOnlyPowerShellEntry(t *testing.T) {
	dir := writePort(t, map[string]string{"portfile.cmake": "x"})
	in := baseInputs(dir)
	in.Tools.IsWindows = true
	in.Tools.PowerShellVersion = "7.4.0"
	r, err := Compute(in)
	require.NoError(t, err)

	var sawPowerShell bool
	for _, e := range r.Entries {
		if e.Key == "powershell" {
			sawPowerShell = true
		}
	}
	require.True(t, sawPowerShell)
}
