// Package platform implements the platform expression sublanguage used to
// gate dependencies and supports-clauses: expressions like
// "windows & !arm | linux" evaluated against a variable context.
//
// The grammar and evaluation rules are pinned to vcpkg's own
// platform-expression.cpp, not invented: a bare identifier, "!"/"not" for
// negation, "&"/"and" and "|" (which may not mix at one grouping level),
// and "," as a low-precedence OR that may mix freely with "&"/"and".
package platform

import "strings"

// kind distinguishes expression node shapes.
type kind int

const (
	kindIdentifier kind = iota
	kindNot
	kindAnd
	kindOr
)

// Expr is an immutable parsed platform expression. The zero value is the
// empty expression, which always evaluates to true.
type Expr struct {
	k        kind
	ident    string
	children []Expr
}

// Identifier builds a leaf expression naming a single identifier.
func Identifier(name string) Expr { return Expr{k: kindIdentifier, ident: name} }

// Not negates e.
func Not(e Expr) Expr { return Expr{k: kindNot, children: []Expr{e}} }

// And conjoins the given expressions.
func And(es ...Expr) Expr { return Expr{k: kindAnd, children: es} }

// Or disjoins the given expressions.
func Or(es ...Expr) Expr { return Expr{k: kindOr, children: es} }

// IsEmpty reports whether e is the zero-value empty expression.
func (e Expr) IsEmpty() bool {
	return e.k == kindIdentifier && e.ident == "" && e.children == nil
}

// String renders e back into expression syntax. For a round-tripped
// expression, Parse(e.String()) evaluates identically to e (§8).
func (e Expr) String() string {
	if e.IsEmpty() {
		return ""
	}
	return e.render(0)
}

// render emits parens only where needed to disambiguate mixed & / |
// nesting; prec is the precedence of the enclosing operator (0 = none).
func (e Expr) render(prec int) string {
	switch e.k {
	case kindIdentifier:
		return e.ident
	case kindNot:
		return "!" + e.children[0].render(3)
	case kindAnd:
		return joinChildren(e.children, " & ", 2, prec)
	case kindOr:
		return joinChildren(e.children, " | ", 1, prec)
	default:
		return ""
	}
}

func joinChildren(children []Expr, sep string, myPrec, outerPrec int) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.render(myPrec)
	}
	s := strings.Join(parts, sep)
	if outerPrec != 0 && outerPrec != myPrec {
		return "(" + s + ")"
	}
	return s
}

// Complexity returns a rough node count, 0 for the empty expression; useful
// for diagnostics and for bounding pathological inputs.
func (e Expr) Complexity() int {
	if e.IsEmpty() {
		return 0
	}
	n := 1
	for _, c := range e.children {
		n += c.Complexity()
	}
	return n
}
