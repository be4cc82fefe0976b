package version

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrIncomparable is returned by Compare when the "string" scheme is asked
// to order two versions with unequal text. Per spec §9 Open Question, this
// is treated as incomparable rather than guessing an ordering; Resolver
// reports it as a *VersioningError, which the resolver package classifies
// as override-conflict.
var ErrIncomparable = errors.New("version: versions are incomparable under this scheme")

// Compare orders a and b under scheme, returning -1, 0, or 1. Equal text
// (or equal numeric value) falls through to comparing PortVersion.
//
// For the "string" scheme, Compare returns ErrIncomparable whenever the
// texts differ; the port-revision tiebreak only applies when the texts are
// identical (§3: "equality only; ordering among equal-text differs only by
// port-revision").
func Compare(scheme Scheme, a, b Version) (int, error) {
	switch scheme {
	case SchemeString:
		return compareString(a, b)
	case SchemeRelaxed:
		return compareRelaxed(a, b)
	case SchemeSemver:
		return compareSemver(a, b)
	case SchemeDate:
		return compareDate(a, b)
	default:
		return 0, errors.New("version: unknown scheme " + string(scheme))
	}
}

func comparePortVersion(a, b Version) int {
	switch {
	case a.PortVersion < b.PortVersion:
		return -1
	case a.PortVersion > b.PortVersion:
		return 1
	default:
		return 0
	}
}

func compareString(a, b Version) (int, error) {
	if a.Text != b.Text {
		return 0, ErrIncomparable
	}
	return comparePortVersion(a, b), nil
}

// compareRelaxed compares dotted numeric segments lexicographically,
// treating missing segments as 0 (§3).
func compareRelaxed(a, b Version) (int, error) {
	c := compareDottedNumeric(a.Text, b.Text)
	if c != 0 {
		return c, nil
	}
	return comparePortVersion(a, b), nil
}

func compareDottedNumeric(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(as) {
			av = parseNumericSegment(as[i])
		}
		if i < len(bs) {
			bv = parseNumericSegment(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// parseNumericSegment parses the leading integer in a dotted segment,
// treating a non-numeric segment as 0 so relaxed comparisons never error.
func parseNumericSegment(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0
	}
	return n
}

func compareSemver(a, b Version) (int, error) {
	av, err := semver.StrictNewVersion(a.Text)
	if err != nil {
		return 0, err
	}
	bv, err := semver.StrictNewVersion(b.Text)
	if err != nil {
		return 0, err
	}
	if c := av.Compare(bv); c != 0 {
		return c, nil
	}
	return comparePortVersion(a, b), nil
}

// compareDate compares "YYYY-MM-DD" dates, with an optional relaxed-style
// ".N.N..." suffix broken out and compared the same way relaxed versions
// are (§3).
func compareDate(a, b Version) (int, error) {
	adate, asuf, err := splitDate(a.Text)
	if err != nil {
		return 0, err
	}
	bdate, bsuf, err := splitDate(b.Text)
	if err != nil {
		return 0, err
	}
	if adate != bdate {
		if adate < bdate {
			return -1, nil
		}
		return 1, nil
	}
	if c := compareDottedNumeric(asuf, bsuf); c != 0 {
		return c, nil
	}
	return comparePortVersion(a, b), nil
}

func splitDate(text string) (date string, suffix string, err error) {
	if len(text) < 10 {
		return "", "", errors.New("version: not a date: " + text)
	}
	date = text[:10]
	if date[4] != '-' || date[7] != '-' {
		return "", "", errors.New("version: not a date: " + text)
	}
	for _, i := range []int{0, 1, 2, 3, 5, 6, 8, 9} {
		if date[i] < '0' || date[i] > '9' {
			return "", "", errors.New("version: not a date: " + text)
		}
	}
	rest := text[10:]
	if rest != "" {
		if rest[0] != '.' {
			return "", "", errors.New("version: bad date suffix: " + text)
		}
		rest = rest[1:]
	}
	return date, rest, nil
}
