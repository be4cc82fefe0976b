package resolver

import (
	"errors"
	"fmt"

	"github.com/microsoft/vcpkg-tool-sub003/version"
)

// FailureKind names a resolver failure mode (§4.6).
type FailureKind string

const (
	ErrCycle            FailureKind = "cycle"
	ErrUnsupportedPort  FailureKind = "unsupported-port"
	ErrVersionNotFound  FailureKind = "version-not-found"
	ErrSchemeMismatch   FailureKind = "scheme-mismatch"
	ErrOverrideConflict FailureKind = "override-conflict"
	ErrUnknownFeature   FailureKind = "unknown-feature"
)

// Error reports a resolver failure against a specific package.
type Error struct {
	Kind    FailureKind
	Spec    PackageSpec
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Spec, e.Message)
}

// wrapVersionError classifies a version.Resolver.Resolve failure into its
// resolver-level FailureKind (§4.6) so callers can switch on Kind instead
// of reaching into the version package's own error types.
func wrapVersionError(spec PackageSpec, err error) error {
	var notFound *version.NotFoundError
	var schemeMismatch *version.SchemeMismatchError
	var versioning *version.VersioningError
	switch {
	case errors.As(err, &notFound):
		return &Error{Kind: ErrVersionNotFound, Spec: spec, Message: err.Error()}
	case errors.As(err, &schemeMismatch):
		return &Error{Kind: ErrSchemeMismatch, Spec: spec, Message: err.Error()}
	case errors.As(err, &versioning):
		return &Error{Kind: ErrOverrideConflict, Spec: spec, Message: err.Error()}
	default:
		// version.Resolver.Resolve only ever returns one of the three
		// types above; this branch exists so wrapVersionError is total.
		return err
	}
}
