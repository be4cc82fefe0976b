package platform

import "strings"

// Well-known context variable names (§4.1).
const (
	VarTargetArchitecture = "VCPKG_TARGET_ARCHITECTURE"
	VarCMakeSystemName    = "VCPKG_CMAKE_SYSTEM_NAME"
	VarLibraryLinkage     = "VCPKG_LIBRARY_LINKAGE"
	VarCRTLinkage         = "VCPKG_CRT_LINKAGE"
	VarIsNative           = "Z_VCPKG_IS_NATIVE"
	VarOverrideVars       = "VCPKG_DEP_INFO_OVERRIDE_VARS"
)

// Context maps variable names to their string values for evaluation.
type Context map[string]string

// UnknownIdentifierFunc, if set, is called whenever Eval encounters an
// identifier it does not recognize; it is purely diagnostic (§4.1:
// "diagnosable"). An unknown identifier always evaluates to false.
type UnknownIdentifierFunc func(name string)

// Eval evaluates e against ctx, using the recognized identifier set and
// rules from spec §4.1 / original vcpkg platform-expression.cpp. A nil
// unknown callback is fine.
func Eval(e Expr, ctx Context, unknown UnknownIdentifierFunc) bool {
	if e.IsEmpty() {
		return true
	}

	overrides := parseOverrideVars(ctx[VarOverrideVars])
	return evalNode(e, ctx, overrides, unknown)
}

func parseOverrideVars(s string) map[string]bool {
	if s == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, tok := range strings.Split(s, ";") {
		if tok == "" {
			continue
		}
		if tok[0] == '!' {
			out[tok[1:]] = false
		} else {
			out[tok] = true
		}
	}
	return out
}

func evalNode(e Expr, ctx Context, overrides map[string]bool, unknown UnknownIdentifierFunc) bool {
	switch e.k {
	case kindIdentifier:
		if overrides != nil {
			if v, ok := overrides[e.ident]; ok {
				return v
			}
		}
		return evalIdentifier(e.ident, ctx, unknown)
	case kindNot:
		return !evalNode(e.children[0], ctx, overrides, unknown)
	case kindAnd:
		// Evaluate all children so every unknown identifier is reported,
		// matching vcpkg's own "we want to print errors in all
		// expressions" behavior.
		result := true
		for _, c := range e.children {
			if !evalNode(c, ctx, overrides, unknown) {
				result = false
			}
		}
		return result
	case kindOr:
		result := false
		for _, c := range e.children {
			if evalNode(c, ctx, overrides, unknown) {
				result = true
			}
		}
		return result
	default:
		return false
	}
}

func trueIfEqual(ctx Context, name, value string) bool {
	v, ok := ctx[name]
	return ok && v == value
}

func evalIdentifier(name string, ctx Context, unknown UnknownIdentifierFunc) bool {
	switch name {
	case "x64":
		return trueIfEqual(ctx, VarTargetArchitecture, "x64")
	case "x86":
		return trueIfEqual(ctx, VarTargetArchitecture, "x86")
	case "arm":
		// Historical: arm also matches arm64 (§4.1).
		return trueIfEqual(ctx, VarTargetArchitecture, "arm") || trueIfEqual(ctx, VarTargetArchitecture, "arm64")
	case "arm32":
		return trueIfEqual(ctx, VarTargetArchitecture, "arm")
	case "arm64":
		return trueIfEqual(ctx, VarTargetArchitecture, "arm64")
	case "wasm32":
		return trueIfEqual(ctx, VarTargetArchitecture, "wasm32")
	case "windows":
		return trueIfEqual(ctx, VarCMakeSystemName, "") ||
			trueIfEqual(ctx, VarCMakeSystemName, "WindowsStore") ||
			trueIfEqual(ctx, VarCMakeSystemName, "MinGW")
	case "mingw":
		return trueIfEqual(ctx, VarCMakeSystemName, "MinGW")
	case "linux":
		return trueIfEqual(ctx, VarCMakeSystemName, "Linux")
	case "osx":
		return trueIfEqual(ctx, VarCMakeSystemName, "Darwin")
	case "uwp":
		return trueIfEqual(ctx, VarCMakeSystemName, "WindowsStore")
	case "android":
		return trueIfEqual(ctx, VarCMakeSystemName, "Android")
	case "emscripten":
		return trueIfEqual(ctx, VarCMakeSystemName, "Emscripten")
	case "ios":
		return trueIfEqual(ctx, VarCMakeSystemName, "iOS")
	case "static":
		return trueIfEqual(ctx, VarLibraryLinkage, "static")
	case "staticcrt":
		return trueIfEqual(ctx, VarCRTLinkage, "static")
	case "native":
		return ctx[VarIsNative] == "1"
	default:
		if unknown != nil {
			unknown(name)
		}
		return false
	}
}
