package civerify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCIBaselineFile(t *testing.T) {
	input := "" +
		"# comment\n" +
		"zlib2:x64-windows=fail\n" +
		"curl:x64-linux=skip\n" +
		"zlib2:x64-windows=pass\n"

	cb, err := ParseCIBaselineFile(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, TriagePass, cb.Status("zlib2", "x64-windows"))
	require.True(t, cb.Skips("curl", "x64-linux"))
	require.False(t, cb.SuppressesFailure("zlib2", "x64-windows"))
	require.Equal(t, TriageStatus(""), cb.Status("openssl", "x64-windows"))
}

func TestParseCIBaselineFileRejectsBarePass(t *testing.T) {
	_, err := ParseCIBaselineFile(strings.NewReader("zlib2:x64-windows=pass\n"))
	require.Error(t, err)
}

func TestParseCIBaselineFileRejectsMalformedLine(t *testing.T) {
	_, err := ParseCIBaselineFile(strings.NewReader("not-a-valid-line\n"))
	require.Error(t, err)
}

func TestParseCIBaselineFileRejectsUnknownStatus(t *testing.T) {
	_, err := ParseCIBaselineFile(strings.NewReader("zlib2:x64-windows=maybe\n"))
	require.Error(t, err)
}
