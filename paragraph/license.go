package paragraph

import "strings"

// spdxDeprecated maps deprecated SPDX license identifiers to their current
// canonical spellings. Applied only on the lint path (§4.2), never when
// simply loading a port for installation, so an old-but-valid license
// string still installs unmodified.
var spdxDeprecated = map[string]string{
	"GPL-2.0":       "GPL-2.0-only",
	"GPL-3.0":       "GPL-3.0-only",
	"LGPL-2.1":      "LGPL-2.1-only",
	"StandardML-NJ": "SMLNJ",
	"bzip2-1.0.5":   "bzip2-1.0.6",
}

// spdxOperators are the expression-combinator tokens that are never license
// identifiers themselves.
var spdxOperators = map[string]bool{
	"AND": true, "OR": true, "WITH": true, "+": true,
}

// LintLicense rewrites deprecated SPDX identifiers found in a license
// expression to their canonical replacements, leaving operators,
// parentheses, whitespace, and exception names untouched.
func LintLicense(expr string) string {
	tokens := tokenizeLicense(expr)
	for i, tok := range tokens {
		if replacement, ok := spdxDeprecated[tok]; ok {
			tokens[i] = replacement
		}
	}
	return strings.Join(tokens, "")
}

// ValidateLicense performs a light structural check of an SPDX expression:
// balanced parentheses and no trailing operator. It does not validate
// against the full SPDX license list.
func ValidateLicense(expr string) error {
	tokens := tokenizeLicense(expr)
	depth := 0
	var last string
	for _, tok := range tokens {
		switch tok {
		case "(":
			depth++
		case ")":
			depth--
			if depth < 0 {
				return &Error{Kind: ErrBadLicense, Message: "unbalanced parenthesis in license: " + expr}
			}
		}
		if strings.TrimSpace(tok) != "" {
			last = tok
		}
	}
	if depth != 0 {
		return &Error{Kind: ErrBadLicense, Message: "unbalanced parenthesis in license: " + expr}
	}
	if last == "" {
		return &Error{Kind: ErrBadLicense, Message: "empty license expression"}
	}
	if spdxOperators[last] || last == "(" {
		return &Error{Kind: ErrBadLicense, Message: "license expression ends in an operator: " + expr}
	}
	return nil
}

// tokenizeLicense splits an SPDX expression into identifier, operator,
// parenthesis, and whitespace tokens such that joining the result
// reproduces expr exactly.
func tokenizeLicense(expr string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	inSpace := false
	for _, r := range expr {
		switch {
		case r == '(' || r == ')':
			flush()
			tokens = append(tokens, string(r))
			inSpace = false
		case r == ' ' || r == '\t' || r == '\n':
			if !inSpace {
				flush()
			}
			cur.WriteRune(r)
			inSpace = true
		default:
			if inSpace {
				flush()
			}
			cur.WriteRune(r)
			inSpace = false
		}
	}
	flush()
	return tokens
}
