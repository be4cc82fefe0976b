package abi

import (
	"fmt"

	"github.com/microsoft/vcpkg-tool-sub003/resolver"
)

// PortLocator resolves a port name to the on-disk directory containing its
// portfile.cmake, vcpkg.json/CONTROL, and any patches (§4.7).
type PortLocator interface {
	PortDir(name string) (string, error)
}

// Computer adapts Compute to satisfy resolver.ABIComputer, supplying the
// environment-wide inputs (tool versions, triplet digest, tracked env
// vars, cmake helper scripts) that stay constant across one resolve.
type Computer struct {
	Tools              ToolVersions
	Triplet            TripletInfo
	Locator            PortLocator
	Helpers            []CMakeHelper
	Overrides          map[string]string // port name -> public_abi_override digest
	PassthroughEnvVars []string
	TargetIsXbox       bool
	GRDKHeaderDigest   string
}

// ComputeABI implements resolver.ABIComputer. depABIs must already hold an
// entry for every one of action's dependencies -- the resolver walks the
// plan bottom-up so this always holds for in-plan dependencies, and the
// caller is expected to have populated depABIs from the status database
// for dependencies that are already installed. A blank entry means the
// dependency's ABI could not be determined, which is fatal (§4.7).
func (c *Computer) ComputeABI(action resolver.InstallAction, depABIs map[string]string) (string, error) {
	for name, digest := range depABIs {
		if digest == "" {
			return "", &Error{
				Kind:    ErrMissingDependencyABI,
				Port:    action.Spec.Name,
				Message: fmt.Sprintf("abi: dependency %s of %s has no known package_abi", name, action.Spec.Name),
			}
		}
	}

	portDir, err := c.Locator.PortDir(action.Spec.Name)
	if err != nil {
		return "", err
	}

	features := make([]string, 0, len(action.Features)+1)
	hasCore := false
	for _, f := range action.Features {
		if f == "core" {
			hasCore = true
		}
		features = append(features, f)
	}
	if !hasCore {
		features = append(features, "core")
	}

	result, err := Compute(Inputs{
		Tools:   c.Tools,
		Triplet: c.Triplet,
		PreBuild: PreBuildInputs{
			PublicABIOverrideDigest: c.Overrides[action.Spec.Name],
			PassthroughEnvVars:      c.PassthroughEnvVars,
			TargetIsXbox:            c.TargetIsXbox,
			GRDKHeaderDigest:        c.GRDKHeaderDigest,
		},
		PortDir:        portDir,
		CMakeHelpers:   c.Helpers,
		Features:       features,
		DependencyABIs: depABIs,
		PortName:       action.Spec.Name,
	})
	if err != nil {
		return "", err
	}
	return result.PackageABI, nil
}

var _ resolver.ABIComputer = (*Computer)(nil)
