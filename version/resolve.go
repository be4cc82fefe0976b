package version

import "fmt"

// SchemeMismatchError reports that a resolved version's scheme doesn't
// match the scheme recorded in the registry for that port (§4.3 rule 4).
type SchemeMismatchError struct {
	Port     string
	Expected Scheme
	Got      Scheme
}

func (e *SchemeMismatchError) Error() string {
	return fmt.Sprintf("scheme-mismatch: port %s resolved under scheme %q but registry records scheme %q", e.Port, e.Got, e.Expected)
}

// VersioningError reports that a minimum-version constraint could not be
// compared with the current selection (for example two unequal "string"
// scheme texts), with no backtracking available to resolve it (§4.3: "No
// backtracking").
type VersioningError struct {
	Port   string
	Detail string
}

func (e *VersioningError) Error() string {
	return fmt.Sprintf("versioning-error: %s: %s", e.Port, e.Detail)
}

// NotFoundError reports that a port had no baseline, constraint, or
// override to resolve a version from (§4.6 "version-not-found").
type NotFoundError struct {
	Port string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("version-not-found: no baseline, constraint, or override available for port %s", e.Port)
}

// Constraint is a single minimum-version requirement contributed by some
// dependent in the transitive closure (§4.3 step 2).
type Constraint struct {
	Port    string
	Minimum SchemedVersion
	// From names the dependent that introduced this constraint, used only
	// for diagnostics.
	From string
}

// Resolver applies the fixed, non-backtracking minimum-version-selection
// rule (§4.3) for a single port:
//
//  1. start from baseline
//  2. raise to the highest minimum-version constraint seen
//  3. apply a root override unconditionally, if present
//  4. verify the result's scheme matches the registry's recorded scheme
type Resolver struct {
	// RegistryScheme is the scheme the selected registry records for this
	// port; required to detect scheme-mismatch (§4.3 rule 4).
	RegistryScheme Scheme
}

// Resolve computes the resolved version for one port. baseline may be nil
// (absent baseline; §4.3 "Baseline is also permitted to be absent for a
// port not reachable from the root"). override may be nil.
func (r Resolver) Resolve(port string, baseline *SchemedVersion, constraints []Constraint, override *SchemedVersion) (SchemedVersion, error) {
	var current SchemedVersion
	var have bool

	if baseline != nil {
		if baseline.Scheme != r.RegistryScheme {
			return SchemedVersion{}, &SchemeMismatchError{Port: port, Expected: r.RegistryScheme, Got: baseline.Scheme}
		}
		current = *baseline
		have = true
	}

	for _, c := range constraints {
		// A constraint's scheme must match the declaring port's (registry)
		// scheme (§3).
		if c.Minimum.Scheme != r.RegistryScheme {
			return SchemedVersion{}, &SchemeMismatchError{Port: port, Expected: r.RegistryScheme, Got: c.Minimum.Scheme}
		}
		if !have {
			current = c.Minimum
			have = true
			continue
		}
		cmp, err := Compare(r.RegistryScheme, current.Version, c.Minimum.Version)
		if err != nil {
			// No backtracking: an incomparable minimum raised against the
			// current selection is fatal (§4.3 "No backtracking").
			return SchemedVersion{}, &VersioningError{Port: port, Detail: fmt.Sprintf("constraint from %s (%s) is incomparable with current selection %s", c.From, c.Minimum, current)}
		}
		if cmp < 0 {
			current = c.Minimum
		}
	}

	if override != nil {
		if override.Scheme != r.RegistryScheme {
			return SchemedVersion{}, &SchemeMismatchError{Port: port, Expected: r.RegistryScheme, Got: override.Scheme}
		}
		current = *override
		have = true
	}

	if !have {
		return SchemedVersion{}, &NotFoundError{Port: port}
	}

	return current, nil
}
