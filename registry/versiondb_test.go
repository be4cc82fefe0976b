package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVersionDBGitTree(t *testing.T) {
	doc := `[
		{"git-tree": "1234567890123456789012345678901234567890", "version": "1.2.11", "port-version": 0},
		{"git-tree": "abcdefabcdefabcdefabcdefabcdefabcdefabcd", "version-string": "1.2.10"}
	]`
	entries, err := ParseVersionDB("zlib", strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "1234567890123456789012345678901234567890", entries[0].GitTree)
	require.Equal(t, "1.2.11", entries[0].Version.Version.Text)
}

func TestParseVersionDBRejectsBadGitTree(t *testing.T) {
	doc := `[{"git-tree": "not-a-sha", "version": "1.0"}]`
	_, err := ParseVersionDB("zlib", strings.NewReader(doc))
	require.Error(t, err)
}

func TestParseVersionDBFilesystemPath(t *testing.T) {
	doc := `[{"path": "$/ports/zlib", "version-semver": "1.2.11"}]`
	entries, err := ParseVersionDB("zlib", strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, "$/ports/zlib", entries[0].Path)
}

func TestValidateRegistryPathRejectsTraversal(t *testing.T) {
	require.Error(t, validateRegistryPath("$/../etc/passwd"))
	require.Error(t, validateRegistryPath("ports/zlib"))
	require.Error(t, validateRegistryPath("$/ports//zlib"))
	require.Error(t, validateRegistryPath("$/ports\\zlib"))
}

func TestParseVersionDBRejectsMultipleVersionFields(t *testing.T) {
	doc := `[{"path": "$/ports/zlib", "version": "1.0", "version-semver": "1.0.0"}]`
	_, err := ParseVersionDB("zlib", strings.NewReader(doc))
	require.Error(t, err)
}
