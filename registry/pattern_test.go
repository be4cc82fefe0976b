package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePatternAccepts(t *testing.T) {
	require.NoError(t, ValidatePattern("*"))
	require.NoError(t, ValidatePattern("boost-*"))
	require.NoError(t, ValidatePattern("zlib"))
}

func TestValidatePatternRejects(t *testing.T) {
	require.Error(t, ValidatePattern(""))
	require.Error(t, ValidatePattern("Bad_Name"))
	require.Error(t, ValidatePattern("-leading"))
}

func TestMatchRankExactBeatsWildcard(t *testing.T) {
	require.Greater(t, matchRank("zlib", "zlib"), matchRank("z*", "zlib"))
}

func TestMatchRankLongerPrefixWins(t *testing.T) {
	require.Greater(t, matchRank("boost-*", "boost-filesystem"), matchRank("boost*", "boost-filesystem"))
}

func TestMatchRankStarIsLowestNonzero(t *testing.T) {
	require.Equal(t, 1, matchRank("*", "anything"))
}

func TestMatchRankNoMatch(t *testing.T) {
	require.Equal(t, 0, matchRank("curl*", "zlib"))
}
