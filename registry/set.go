package registry

import (
	"sort"

	radix "github.com/armon/go-radix"
)

// declaration records one "pattern -> registry" mapping in the order it
// was declared in the configuration, needed to break ties by declaration
// order (§4.4) and to report duplicates.
type declaration struct {
	pattern string
	index   int // position among all registries of this RegistrySet
	order   int // declaration order, for tie-breaking and duplicate reporting
}

// RegistrySet resolves, for any port name, the ordered list of candidate
// registries ranked by pattern priority (§4.4), falling back to a single
// default registry.
type RegistrySet struct {
	registries []Registry
	exact      map[string][]declaration
	wildcards  *radix.Tree // keyed by prefix, value []declaration
	hasStar    []declaration
	defaultIdx int
	hasDefault bool
	orderSeq   int

	// Warnings accumulates duplicate-pattern diagnostics discovered while
	// registering patterns (§4.4: "a warning enumerates ignored
	// declarations").
	Warnings []string
}

// NewRegistrySet constructs an empty set. Call AddDefault once and
// AddPattern for every pattern -> registry binding, in configuration
// order, then use RegistriesForPort/RegistryForPort.
func NewRegistrySet() *RegistrySet {
	return &RegistrySet{
		exact:     make(map[string][]declaration),
		wildcards: radix.New(),
	}
}

// AddDefault registers the registry used when no pattern matches.
func (rs *RegistrySet) AddDefault(r Registry) {
	rs.registries = append(rs.registries, r)
	rs.defaultIdx = len(rs.registries) - 1
	rs.hasDefault = true
}

// AddPattern registers r to serve ports matching pattern. Returns an error
// if pattern is malformed; records (but does not error on) duplicate
// patterns, per §4.4's "first registry wins, warning enumerates".
func (rs *RegistrySet) AddPattern(pattern string, r Registry) error {
	if err := ValidatePattern(pattern); err != nil {
		return err
	}
	rs.registries = append(rs.registries, r)
	decl := declaration{pattern: pattern, index: len(rs.registries) - 1, order: rs.nextOrder()}

	switch {
	case pattern == "*":
		if len(rs.hasStar) > 0 {
			rs.warnDuplicate(pattern)
		}
		rs.hasStar = append(rs.hasStar, decl)
	case len(pattern) > 0 && pattern[len(pattern)-1] == '*':
		prefix := pattern[:len(pattern)-1]
		if existing, ok := rs.wildcards.Get(prefix); ok {
			decls := existing.([]declaration)
			rs.warnDuplicate(pattern)
			rs.wildcards.Insert(prefix, append(decls, decl))
		} else {
			rs.wildcards.Insert(prefix, []declaration{decl})
		}
	default:
		if len(rs.exact[pattern]) > 0 {
			rs.warnDuplicate(pattern)
		}
		rs.exact[pattern] = append(rs.exact[pattern], decl)
	}
	return nil
}

func (rs *RegistrySet) nextOrder() int {
	rs.orderSeq++
	return rs.orderSeq
}

func (rs *RegistrySet) warnDuplicate(pattern string) {
	rs.Warnings = append(rs.Warnings, "pattern \""+pattern+"\" declared more than once; first declaration wins, later ones ignored")
}

// candidate pairs a registry with the rank its matching pattern earned.
type candidate struct {
	registry Registry
	rank     int
	order    int
}

// RegistriesForPort ranks every registry whose pattern matches name,
// highest rank first, ties broken by declaration order (§4.4).
func (rs *RegistrySet) RegistriesForPort(name string) []Registry {
	var cands []candidate

	if decls, ok := rs.exact[name]; ok && len(decls) > 0 {
		d := decls[0]
		cands = append(cands, candidate{rs.registries[d.index], matchRank(name, name), d.order})
	}

	// Every matching wildcard prefix; go-radix's WalkPath visits every
	// stored prefix of name from the root down. Each earns its prefix
	// length as rank.
	rs.wildcards.WalkPath(name, func(prefix string, v interface{}) bool {
		if decls := v.([]declaration); len(decls) > 0 {
			d := decls[0]
			cands = append(cands, candidate{rs.registries[d.index], len(prefix), d.order})
		}
		return false
	})

	if len(rs.hasStar) > 0 {
		d := rs.hasStar[0]
		cands = append(cands, candidate{rs.registries[d.index], 1, d.order})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].rank != cands[j].rank {
			return cands[i].rank > cands[j].rank
		}
		return cands[i].order < cands[j].order
	})

	out := make([]Registry, len(cands))
	for i, c := range cands {
		out[i] = c.registry
	}
	return out
}

// AllPortNames collects the names known by every registered registry,
// deduplicated, for load_all_control_files (§4.5).
func (rs *RegistrySet) AllPortNames(names *[]string) {
	seen := make(map[string]bool)
	var collected []string
	for _, r := range rs.registries {
		_ = r.AppendAllPortNames(&collected)
	}
	for _, n := range collected {
		if !seen[n] {
			seen[n] = true
			*names = append(*names, n)
		}
	}
}

// RegistryForPort returns the single best registry for name, falling back
// to the default registry if no pattern matches (§4.4).
func (rs *RegistrySet) RegistryForPort(name string) (Registry, bool) {
	cands := rs.RegistriesForPort(name)
	if len(cands) > 0 {
		return cands[0], true
	}
	if rs.hasDefault {
		return rs.registries[rs.defaultIdx], true
	}
	return nil, false
}
