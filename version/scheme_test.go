package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareRelaxed(t *testing.T) {
	cmp, err := Compare(SchemeRelaxed, New("1.2.3"), New("1.10.0"))
	require.NoError(t, err)
	require.Equal(t, -1, cmp)

	cmp, err = Compare(SchemeRelaxed, New("1.2"), New("1.2.0"))
	require.NoError(t, err)
	require.Equal(t, 0, cmp)

	cmp, err = Compare(SchemeRelaxed, New("2"), New("1.9.9"))
	require.NoError(t, err)
	require.Equal(t, 1, cmp)
}

func TestCompareRelaxedPortVersionTiebreak(t *testing.T) {
	a := NewWithRevision("1.2.3", 1)
	b := NewWithRevision("1.2.3", 2)
	cmp, err := Compare(SchemeRelaxed, a, b)
	require.NoError(t, err)
	require.Equal(t, -1, cmp)
}

func TestCompareStringEqualText(t *testing.T) {
	a := NewWithRevision("feature-x", 0)
	b := NewWithRevision("feature-x", 1)
	cmp, err := Compare(SchemeString, a, b)
	require.NoError(t, err)
	require.Equal(t, -1, cmp)
}

func TestCompareStringUnequalTextIsIncomparable(t *testing.T) {
	_, err := Compare(SchemeString, New("alpha"), New("beta"))
	require.ErrorIs(t, err, ErrIncomparable)
}

func TestCompareSemver(t *testing.T) {
	cmp, err := Compare(SchemeSemver, New("1.2.3"), New("1.10.0"))
	require.NoError(t, err)
	require.Equal(t, -1, cmp)

	cmp, err = Compare(SchemeSemver, New("2.0.0-beta"), New("2.0.0"))
	require.NoError(t, err)
	require.Equal(t, -1, cmp)
}

func TestCompareSemverRejectsNonStrict(t *testing.T) {
	_, err := Compare(SchemeSemver, New("1.2"), New("1.2.0"))
	require.Error(t, err)
}

func TestCompareDate(t *testing.T) {
	cmp, err := Compare(SchemeDate, New("2021-01-01"), New("2021-06-15"))
	require.NoError(t, err)
	require.Equal(t, -1, cmp)

	cmp, err = Compare(SchemeDate, New("2021-01-01.1"), New("2021-01-01.2"))
	require.NoError(t, err)
	require.Equal(t, -1, cmp)

	cmp, err = Compare(SchemeDate, New("2021-01-01"), New("2021-01-01"))
	require.NoError(t, err)
	require.Equal(t, 0, cmp)
}

func TestCompareDateRejectsMalformed(t *testing.T) {
	_, err := Compare(SchemeDate, New("not-a-date"), New("2021-01-01"))
	require.Error(t, err)
}
