package paragraph

import "fmt"

// FailureKind names one of the paragraph/manifest failure modes from spec
// §4.2.
type FailureKind string

const (
	ErrMissingField          FailureKind = "missing-field"
	ErrDuplicateField        FailureKind = "duplicate-field"
	ErrBadFieldSyntax        FailureKind = "bad-field-syntax"
	ErrBadVersionScheme      FailureKind = "bad-version-scheme"
	ErrConflictingVersion    FailureKind = "conflicting-version-fields"
	ErrBadLicense            FailureKind = "bad-license"
	ErrManifestAndControl    FailureKind = "manifest-and-control-coexist"
)

// Error reports a failure parsing a control paragraph or manifest, with the
// field name involved when known.
type Error struct {
	Kind    FailureKind
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: field %q: %s", e.Kind, e.Field, e.Message)
}
