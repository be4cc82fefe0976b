// Package registry implements vcpkg's registry abstraction: builtin,
// filesystem, git, and overlay registries, pattern-priority selection
// across a RegistrySet, and the version-database JSON schema.
package registry

import "fmt"

// FailureKind names a registry-layer failure mode (§4.4).
type FailureKind string

const (
	ErrBadPattern        FailureKind = "bad-pattern"
	ErrDuplicatePattern  FailureKind = "duplicate-pattern"
	ErrBadVersionDB      FailureKind = "bad-version-db-entry"
	ErrNetworkRequired   FailureKind = "network-required"
)

// LocalizedError is the common error type for every registry operation
// (§4.4: "all fallible with LocalizedError").
type LocalizedError struct {
	Kind    FailureKind
	Port    string
	Message string
}

func (e *LocalizedError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: port %s: %s", e.Kind, e.Port, e.Message)
}
