package civerify

import (
	"github.com/pkg/errors"

	"github.com/microsoft/vcpkg-tool-sub003/registry"
)

// gitTreeShower is satisfied by *registry.GitRegistry; kept as a local
// interface so civerify depends only on the method it needs.
type gitTreeShower interface {
	ShowManifestAtTree(gitTree string) (data []byte, isControl bool, err error)
}

// RegistryVersionDBSource adapts a registry lookup function (and,
// optionally, a git-backed registry capable of showing historical
// manifests) to VersionDBSource, so the CI command can drive Verifier
// directly off the registry package without civerify needing to know
// which registry kind backs any given port.
type RegistryVersionDBSource struct {
	VersionDBFunc func(port string) ([]registry.RegistryEntry, error)
	Shower        gitTreeShower
}

func (s *RegistryVersionDBSource) VersionDB(port string) ([]registry.RegistryEntry, error) {
	return s.VersionDBFunc(port)
}

func (s *RegistryVersionDBSource) ShowManifestAtTree(gitTree string) ([]byte, bool, error) {
	if s.Shower == nil {
		return nil, false, errors.New("civerify: --verify-git-trees requires a git-backed registry")
	}
	return s.Shower.ShowManifestAtTree(gitTree)
}

var _ gitTreeShower = (*registry.GitRegistry)(nil)
