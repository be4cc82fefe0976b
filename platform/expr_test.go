package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyIsTrue(t *testing.T) {
	e, err := Parse("")
	require.NoError(t, err)
	require.True(t, Eval(e, nil, nil))
}

func TestEvalScenario3(t *testing.T) {
	e, err := Parse("!windows & !arm & !x86")
	require.NoError(t, err)

	require.False(t, Eval(e, Context{
		VarCMakeSystemName:    "Linux",
		VarTargetArchitecture: "arm",
	}, nil))

	require.True(t, Eval(e, Context{
		VarCMakeSystemName:    "Linux",
		VarTargetArchitecture: "x64",
	}, nil))
}

func TestArmMatchesArm64Historically(t *testing.T) {
	e, err := Parse("arm")
	require.NoError(t, err)
	require.True(t, Eval(e, Context{VarTargetArchitecture: "arm64"}, nil))

	e32, err := Parse("arm32")
	require.NoError(t, err)
	require.False(t, Eval(e32, Context{VarTargetArchitecture: "arm64"}, nil))
}

func TestMixedOperatorsRejected(t *testing.T) {
	_, err := Parse("windows & linux | osx")
	require.Error(t, err)
	pe, ok := err.(*ParseError)
	require.True(t, ok)
	require.Equal(t, ErrMixedOperators, pe.Kind)
}

func TestParenthesesAllowMixing(t *testing.T) {
	e, err := Parse("windows & (linux | osx)")
	require.NoError(t, err)
	require.False(t, Eval(e, Context{VarCMakeSystemName: "Linux", VarTargetArchitecture: "x64"}, nil))
}

func TestCommaIsLowPrecedenceOrAndMayMixWithAnd(t *testing.T) {
	e, err := Parse("windows & x64, linux")
	require.NoError(t, err)
	require.True(t, Eval(e, Context{VarCMakeSystemName: "Linux"}, nil))
	require.False(t, Eval(e, Context{VarCMakeSystemName: "Darwin"}, nil))
}

func TestNotwindowsIsAnIdentifierNotNegation(t *testing.T) {
	e, err := Parse("notwindows")
	require.NoError(t, err)
	var gotUnknown string
	Eval(e, Context{}, func(name string) { gotUnknown = name })
	require.Equal(t, "notwindows", gotUnknown)
}

func TestKeywordOperators(t *testing.T) {
	e, err := Parse("windows and not arm")
	require.NoError(t, err)
	require.True(t, Eval(e, Context{VarCMakeSystemName: "", VarTargetArchitecture: "x64"}, nil))
}

func TestMissingRParen(t *testing.T) {
	_, err := Parse("(windows")
	require.Error(t, err)
	require.Equal(t, ErrMissingRParen, err.(*ParseError).Kind)
}

func TestOverrideVars(t *testing.T) {
	e, err := Parse("windows")
	require.NoError(t, err)
	require.False(t, Eval(e, Context{
		VarCMakeSystemName: "",
		VarOverrideVars:    "!windows",
	}, nil))
}

func TestRoundTripPreservesSemantics(t *testing.T) {
	inputs := []string{
		"windows & !arm, linux",
		"!(x64 & static)",
		"a, b, c",
	}
	ctxs := []Context{
		{VarCMakeSystemName: "", VarTargetArchitecture: "arm"},
		{VarCMakeSystemName: "Linux"},
		{VarTargetArchitecture: "x64", VarLibraryLinkage: "static"},
	}
	for _, in := range inputs {
		e, err := Parse(in)
		require.NoError(t, err)
		e2, err := Parse(e.String())
		require.NoError(t, err)
		for _, ctx := range ctxs {
			require.Equal(t, Eval(e, ctx, nil), Eval(e2, ctx, nil), "round trip mismatch for %q", in)
		}
	}
}
