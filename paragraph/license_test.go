package paragraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLintLicenseNormalizesDeprecatedIdentifiers(t *testing.T) {
	require.Equal(t, "GPL-2.0-only", LintLicense("GPL-2.0"))
	require.Equal(t, "SMLNJ", LintLicense("StandardML-NJ"))
	require.Equal(t, "MIT OR (GPL-3.0-only AND LGPL-2.1-only)", LintLicense("MIT OR (GPL-3.0 AND LGPL-2.1)"))
}

func TestValidateLicenseAcceptsWellFormed(t *testing.T) {
	require.NoError(t, ValidateLicense("MIT"))
	require.NoError(t, ValidateLicense("(MIT OR Apache-2.0)"))
}

func TestValidateLicenseRejectsUnbalancedParens(t *testing.T) {
	require.Error(t, ValidateLicense("(MIT"))
	require.Error(t, ValidateLicense("MIT)"))
}

func TestValidateLicenseRejectsTrailingOperator(t *testing.T) {
	require.Error(t, ValidateLicense("MIT AND"))
}
