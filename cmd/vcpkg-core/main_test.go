package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/microsoft/vcpkg-tool-sub003/civerify"
	"github.com/microsoft/vcpkg-tool-sub003/internal/obslog"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunCIVerifyVersionsCleanTree(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "ports", "zlib2", "vcpkg.json"), `{
		"name": "zlib2",
		"version": "1.5"
	}`)
	writeFile(t, filepath.Join(root, "versions", "z-", "zlib2.json"), `[
		{"version": "1.5", "path": "$/ports/zlib2"}
	]`)
	writeFile(t, filepath.Join(root, "versions", "baseline.json"), `{
		"default": {
			"zlib2": {"baseline": "1.5", "port-version": 0}
		}
	}`)

	cfg := Config{PortsDir: filepath.Join(root, "ports"), RegistryRoot: root}
	problems, err := RunCIVerifyVersions(cfg, obslog.Discard())
	require.NoError(t, err)
	require.Empty(t, problems)
}

func TestRunCIVerifyVersionsDetectsBaselineMismatch(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "ports", "zlib2", "vcpkg.json"), `{
		"name": "zlib2",
		"version": "1.5"
	}`)
	writeFile(t, filepath.Join(root, "versions", "z-", "zlib2.json"), `[
		{"version": "1.5", "path": "$/ports/zlib2"}
	]`)
	writeFile(t, filepath.Join(root, "versions", "baseline.json"), `{
		"default": {
			"zlib2": {"baseline": "1.4", "port-version": 0}
		}
	}`)

	cfg := Config{PortsDir: filepath.Join(root, "ports"), RegistryRoot: root}
	problems, err := RunCIVerifyVersions(cfg, obslog.Discard())
	require.NoError(t, err)
	require.Len(t, problems, 1)
	require.Equal(t, civerify.BaselineMismatch, problems[0].Kind)
}

func TestRunCIVerifyVersionsMissingBaselineFileErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ports", "zlib2", "vcpkg.json"), `{"name": "zlib2", "version": "1.5"}`)

	cfg := Config{PortsDir: filepath.Join(root, "ports"), RegistryRoot: root}
	_, err := RunCIVerifyVersions(cfg, obslog.Discard())
	require.Error(t, err)
}
