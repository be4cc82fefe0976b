package paragraph

import (
	"strings"
	"testing"

	"github.com/microsoft/vcpkg-tool-sub003/version"
	"github.com/stretchr/testify/require"
)

func TestParseManifestBasic(t *testing.T) {
	doc := `{
		"name": "zlib",
		"version": "1.2.11",
		"port-version": 2,
		"dependencies": [
			"vcpkg-cmake",
			{"name": "openssl", "platform": "!windows", "features": ["ssl"]}
		],
		"default-features": ["foo"],
		"license": "MIT",
		"supports": "!uwp"
	}`
	scf, err := ParseManifest(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, "zlib", scf.Name)
	require.Equal(t, version.SchemeRelaxed, scf.RawVersion.Scheme)
	require.Equal(t, 2, scf.PortVersion)
	require.Len(t, scf.Dependencies, 2)
	require.Equal(t, "openssl", scf.Dependencies[1].Name)
	require.Equal(t, []string{"ssl"}, scf.Dependencies[1].Features)
	require.Equal(t, []string{"foo"}, scf.DefaultFeatures)
}

func TestParseManifestRequiresName(t *testing.T) {
	_, err := ParseManifest(strings.NewReader(`{"version": "1.0.0"}`))
	require.Error(t, err)
	pe, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, ErrMissingField, pe.Kind)
}

func TestParseManifestRejectsConflictingVersionFields(t *testing.T) {
	doc := `{"name": "zlib", "version": "1.0", "version-semver": "1.0.0"}`
	_, err := ParseManifest(strings.NewReader(doc))
	require.Error(t, err)
	pe, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, ErrConflictingVersion, pe.Kind)
}

func TestParseManifestFeatures(t *testing.T) {
	doc := `{
		"name": "curl",
		"version-semver": "7.80.0",
		"features": {
			"ssl": {
				"description": "SSL support",
				"dependencies": ["openssl"]
			}
		}
	}`
	scf, err := ParseManifest(strings.NewReader(doc))
	require.NoError(t, err)
	f, ok := scf.FindFeature("ssl")
	require.True(t, ok)
	require.Equal(t, "SSL support", f.Description)
	require.Len(t, f.Dependencies, 1)
}

func TestParseManifestRejectsBadLicense(t *testing.T) {
	doc := `{"name": "zlib", "version": "1.0", "license": "(MIT"}`
	_, err := ParseManifest(strings.NewReader(doc))
	require.Error(t, err)
}

func TestParseManifestMinimumVersionConstraintLeavesSchemeUnset(t *testing.T) {
	doc := `{
		"name": "app",
		"version": "1.0",
		"dependencies": [
			{"name": "openssl", "version>=": "3.0.0"}
		]
	}`
	scf, err := ParseManifest(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, scf.Dependencies, 1)
	dep := scf.Dependencies[0]
	require.NotNil(t, dep.Minimum)
	require.Equal(t, "3.0.0", dep.Minimum.Version.Text)
	// The scheme to compare this constraint under belongs to openssl's own
	// registry entry, not to this manifest -- it is assigned later, by the
	// resolver, never here.
	require.Equal(t, version.Scheme(""), dep.Minimum.Scheme)
}

func TestParseManifestOverrides(t *testing.T) {
	doc := `{
		"name": "app",
		"version": "1.0",
		"overrides": [{"name": "zlib", "version": "1.2.8"}]
	}`
	scf, err := ParseManifest(strings.NewReader(doc))
	require.NoError(t, err)
	ov, ok := scf.Overrides["zlib"]
	require.True(t, ok)
	require.Equal(t, "1.2.8", ov.Version.Text)
}
