package portfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/microsoft/vcpkg-tool-sub003/registry"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, name, ver string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	doc := `{"name": "` + name + `", "version": "` + ver + `"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vcpkg.json"), []byte(doc), 0o644))
}

func TestOverlaySinglePortShadowsByName(t *testing.T) {
	tmp := t.TempDir()
	overlayPort := filepath.Join(tmp, "myzlib")
	writeManifest(t, overlayPort, "zlib", "9.9.9")

	set := registry.NewRegistrySet()
	p := NewProvider([]OverlayDir{{Path: overlayPort}}, set)

	scfl, err := p.GetControlFile("zlib")
	require.NoError(t, err)
	require.Equal(t, "9.9.9", scfl.SCF.RawVersion.Version.Text)
}

func TestOverlayDirectoryOfPorts(t *testing.T) {
	tmp := t.TempDir()
	overlayRoot := filepath.Join(tmp, "overlays")
	writeManifest(t, filepath.Join(overlayRoot, "zlib"), "zlib", "1.2.11")
	writeManifest(t, filepath.Join(overlayRoot, "curl"), "curl", "7.80.0")

	set := registry.NewRegistrySet()
	p := NewProvider([]OverlayDir{{Path: overlayRoot}}, set)

	scfl, err := p.GetControlFile("curl")
	require.NoError(t, err)
	require.Equal(t, "curl", scfl.SCF.Name)
}

func TestGetControlFileCachesReference(t *testing.T) {
	tmp := t.TempDir()
	overlayPort := filepath.Join(tmp, "zlib")
	writeManifest(t, overlayPort, "zlib", "1.2.11")

	set := registry.NewRegistrySet()
	p := NewProvider([]OverlayDir{{Path: overlayPort}}, set)

	first, err := p.GetControlFile("zlib")
	require.NoError(t, err)
	second, err := p.GetControlFile("zlib")
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestManifestAndControlCoexistenceErrors(t *testing.T) {
	tmp := t.TempDir()
	writeManifest(t, tmp, "zlib", "1.2.11")
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "CONTROL"), []byte("Source: zlib\nVersion: 1.2.11\n"), 0o644))

	_, err := loadSCFLFromPath(tmp)
	require.Error(t, err)
}

func TestGetControlFileResolvesBuiltinFilesRegistryPath(t *testing.T) {
	tmp := t.TempDir()
	registryRoot := filepath.Join(tmp, "ports")
	writeManifest(t, filepath.Join(registryRoot, "zlib"), "zlib", "1.2.11")

	set := registry.NewRegistrySet()
	set.AddDefault(&registry.BuiltinFilesRegistry{PortsDir: registryRoot})

	p := NewProvider(nil, set)
	scfl, err := p.GetControlFile("zlib")
	require.NoError(t, err)
	require.Equal(t, "1.2.11", scfl.SCF.RawVersion.Version.Text)
}

func TestLoadAllControlFilesOverlayWins(t *testing.T) {
	tmp := t.TempDir()
	overlayRoot := filepath.Join(tmp, "overlays")
	writeManifest(t, filepath.Join(overlayRoot, "zlib"), "zlib", "9.9.9")

	registryRoot := filepath.Join(tmp, "ports")
	writeManifest(t, filepath.Join(registryRoot, "zlib"), "zlib", "1.0.0")

	set := registry.NewRegistrySet()
	bf := &registry.BuiltinFilesRegistry{PortsDir: registryRoot}
	set.AddDefault(bf)

	p := NewProvider([]OverlayDir{{Path: overlayRoot}}, set)
	all, errs := p.LoadAllControlFiles()
	require.Empty(t, errs)
	require.Equal(t, "9.9.9", all["zlib"].SCF.RawVersion.Version.Text)
}
