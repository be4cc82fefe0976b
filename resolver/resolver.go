package resolver

import (
	"sort"

	"github.com/microsoft/vcpkg-tool-sub003/paragraph"
	"github.com/microsoft/vcpkg-tool-sub003/platform"
	"github.com/microsoft/vcpkg-tool-sub003/portfile"
	"github.com/microsoft/vcpkg-tool-sub003/version"
)

// PortProvider is the subset of portfile.Provider the resolver needs.
type PortProvider interface {
	GetControlFile(name string) (*portfile.SCFL, error)
}

// VariableProvider supplies platform-expression context per triplet, and
// is told in advance (§4.6 step 3) which root ports need qualified
// (platform-gated) dependency information, so an external implementation
// can batch that lookup instead of doing it one port at a time. Ports first
// reached during the closure walk are not reported.
type VariableProvider interface {
	Vars(t Triplet) platform.Context
	RequestQualifiedDepInfo(portNames []string)
}

// BaselineProvider resolves a port's baseline version and registry scheme
// (§4.3).
type BaselineProvider interface {
	Baseline(name string) (version.SchemedVersion, bool)
	SchemeFor(name string) (version.Scheme, bool)
}

// ABIComputer computes an install action's content-addressed ABI from its
// already-computed dependency ABIs (§4.7). Resolver calls it bottom-up in
// topological order; a nil ABIComputer skips ABI stamping and
// already-installed elision entirely.
type ABIComputer interface {
	ComputeABI(action InstallAction, depABIs map[string]string) (string, error)
}

// Config is everything Resolve needs (§4.6 "Inputs").
type Config struct {
	Roots             []FullPackageSpec
	HostTriplet       Triplet
	DefaultTriplet    Triplet
	Ports             PortProvider
	Baselines         BaselineProvider
	Vars              VariableProvider
	Installed         InstalledIndex
	Overrides         map[string]version.SchemedVersion
	UnsupportedAction UnsupportedPortAction
	ABI               ABIComputer
}

type depEdge struct {
	from, to PackageSpec
	crossesHostBoundary bool
}

type closureNode struct {
	spec     PackageSpec
	features map[string]bool
	scf      *paragraph.SourceControlFile
	resolved version.SchemedVersion
}

// Resolve runs the full §4.6 pipeline and produces a Plan.
func Resolve(cfg Config) (*Plan, error) {
	plan := &Plan{}
	nodes := make(map[PackageSpec]*closureNode)
	constraints := make(map[string][]version.Constraint)
	var edges []depEdge
	scfCache := make(map[string]*paragraph.SourceControlFile)

	loadSCF := func(name string) (*paragraph.SourceControlFile, error) {
		if scf, ok := scfCache[name]; ok {
			return scf, nil
		}
		scfl, err := cfg.Ports.GetControlFile(name)
		if err != nil {
			return nil, err
		}
		scfCache[name] = scfl.SCF
		return scfl.SCF, nil
	}

	// Step 3: qualified-dependency pre-pass. Any root port whose
	// dependencies carry a non-empty platform expression, or whose own
	// supports clause is non-empty, is reported for dep-info vars up front;
	// only the roots are examined.
	var qualified []string
	collectQualified := func(scf *paragraph.SourceControlFile) {
		needsVars := !scf.Supports.IsEmpty()
		for _, d := range scf.Dependencies {
			if !d.Platform.IsEmpty() {
				needsVars = true
			}
		}
		if needsVars {
			qualified = append(qualified, scf.Name)
		}
	}

	type queueItem struct {
		spec    PackageSpec
		feature string
	}
	var queue []queueItem
	seen := make(map[FeatureSpec]bool)

	enqueue := func(spec PackageSpec, feature string) {
		fs := FeatureSpec{Spec: spec, Feature: feature}
		if seen[fs] {
			return
		}
		seen[fs] = true
		queue = append(queue, queueItem{spec, feature})
	}

	// Step 1: feature normalization for roots.
	for _, root := range cfg.Roots {
		scf, err := loadSCF(root.Spec.Name)
		if err != nil {
			return nil, err
		}
		collectQualified(scf)
		for _, f := range normalizeFeatures(scf, root.Features) {
			enqueue(root.Spec, f)
		}
	}
	cfg.Vars.RequestQualifiedDepInfo(qualified)

	// Step 4: transitive closure, BFS.
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		scf, err := loadSCF(item.spec.Name)
		if err != nil {
			return nil, err
		}

		vars := cfg.Vars.Vars(item.spec.Triplet)

		// Step 2: supports gating.
		if !scf.Supports.IsEmpty() && !platform.Eval(scf.Supports, vars, nil) {
			if cfg.UnsupportedAction == UnsupportedPortError {
				return nil, &Error{Kind: ErrUnsupportedPort, Spec: item.spec, Message: "port does not support this triplet"}
			}
			plan.Warnings = append(plan.Warnings, "port "+item.spec.Name+" is unsupported on "+string(item.spec.Triplet)+"; skipped")
			continue
		}

		node, ok := nodes[item.spec]
		if !ok {
			node = &closureNode{spec: item.spec, features: make(map[string]bool), scf: scf}
			nodes[item.spec] = node
		}
		if node.features[item.feature] {
			continue
		}
		node.features[item.feature] = true

		deps := scf.Dependencies
		if item.feature != FeatureCore {
			fp, ok := scf.FindFeature(item.feature)
			if !ok {
				return nil, &Error{Kind: ErrUnknownFeature, Spec: item.spec, Message: "unknown feature: " + item.feature}
			}
			deps = fp.Dependencies
		}

		for _, dep := range deps {
			if !dep.Platform.IsEmpty() && !platform.Eval(dep.Platform, vars, nil) {
				continue
			}
			depTriplet := item.spec.Triplet
			crosses := false
			if dep.Host {
				depTriplet = cfg.HostTriplet
				crosses = depTriplet != item.spec.Triplet
			}
			depSpec := PackageSpec{Name: dep.Name, Triplet: depTriplet}
			edges = append(edges, depEdge{from: item.spec, to: depSpec, crossesHostBoundary: crosses})

			if dep.Minimum != nil {
				depScheme, _ := cfg.Baselines.SchemeFor(dep.Name)
				constraints[dep.Name] = append(constraints[dep.Name], version.Constraint{
					Port: dep.Name,
					Minimum: version.SchemedVersion{Scheme: depScheme, Version: dep.Minimum.Version},
					From: item.spec.Name,
				})
			}

			enqueue(depSpec, FeatureCore)
			for _, f := range dep.Features {
				enqueue(depSpec, f)
			}
		}
	}

	// Resolve versions (§4.3) for every port touched by the closure.
	for spec, node := range nodes {
		scheme, _ := cfg.Baselines.SchemeFor(spec.Name)
		r := version.Resolver{RegistryScheme: scheme}
		var baseline *version.SchemedVersion
		if b, ok := cfg.Baselines.Baseline(spec.Name); ok {
			baseline = &b
		}
		var override *version.SchemedVersion
		if ov, ok := cfg.Overrides[spec.Name]; ok {
			override = &ov
		}
		resolved, err := r.Resolve(spec.Name, baseline, constraints[spec.Name], override)
		if err != nil {
			return nil, wrapVersionError(spec, err)
		}
		node.resolved = resolved
	}

	// Step 5: cycle detection, ignoring host-crossing edges.
	if cyc := detectCycle(nodes, edges); cyc != "" {
		return nil, &Error{Kind: ErrCycle, Message: "dependency cycle detected involving " + cyc}
	}

	// Step 6: topological order, stable by port name.
	order := topoOrder(nodes, edges)

	// Step 7: already-installed elision. ABIs are stamped bottom-up in
	// topological order so each node's ABIComputer call already has every
	// dependency's ABI available; a nil ABIComputer leaves ABI empty and
	// every node goes on the install list (elision never fires).
	abis := make(map[PackageSpec]string)
	childrenOf := make(map[PackageSpec][]PackageSpec)
	for _, e := range edges {
		childrenOf[e.from] = append(childrenOf[e.from], e.to)
	}

	for _, spec := range order {
		node := nodes[spec]
		action := InstallAction{Spec: spec, Version: node.resolved}
		for f := range node.features {
			if f != FeatureCore {
				action.Features = append(action.Features, f)
			}
		}
		sort.Strings(action.Features)
		action.Dependencies = append([]PackageSpec(nil), childrenOf[spec]...)
		sort.Slice(action.Dependencies, func(i, j int) bool { return action.Dependencies[i].Less(action.Dependencies[j]) })

		if cfg.ABI != nil {
			depABIs := make(map[string]string, len(childrenOf[spec]))
			for _, child := range childrenOf[spec] {
				depABIs[child.Name] = abis[child]
			}
			abi, err := cfg.ABI.ComputeABI(action, depABIs)
			if err != nil {
				return nil, err
			}
			action.ABI = abi
			abis[spec] = abi
		}

		if cfg.Installed != nil && action.ABI != "" {
			if installed, ok := cfg.Installed.Lookup(spec); ok && installed.ABI == action.ABI {
				plan.AlreadyInstalled = append(plan.AlreadyInstalled, installed)
				continue
			}
		}
		plan.InstallActions = append(plan.InstallActions, action)
	}

	// Step 8: remove-plan derivation.
	if cfg.Installed != nil {
		desired := make(map[PackageSpec]bool, len(order))
		for _, spec := range order {
			desired[spec] = true
		}
		var toRemove []PackageSpec
		for _, inst := range cfg.Installed.All() {
			if !desired[inst.Spec] {
				toRemove = append(toRemove, inst.Spec)
			}
		}
		sortByPlanRankThenName(toRemove, order)
		for i := len(toRemove) - 1; i >= 0; i-- {
			plan.RemoveActions = append(plan.RemoveActions, RemoveAction{Spec: toRemove[i]})
		}
	}

	return plan, nil
}

// normalizeFeatures expands "default" into the port's default-features
// minus any feature explicitly suppressed with a "-" prefix, and always
// inserts "core" (§4.6 step 1).
func normalizeFeatures(scf *paragraph.SourceControlFile, requested []string) []string {
	suppressed := make(map[string]bool)
	var explicit []string
	wantsDefault := len(requested) == 0
	for _, f := range requested {
		switch {
		case f == FeatureDefault:
			wantsDefault = true
		case len(f) > 0 && f[0] == '-':
			suppressed[f[1:]] = true
		default:
			explicit = append(explicit, f)
		}
	}

	out := map[string]bool{FeatureCore: true}
	for _, f := range explicit {
		out[f] = true
	}
	if wantsDefault {
		for _, f := range scf.DefaultFeatures {
			if !suppressed[f] {
				out[f] = true
			}
		}
	}

	result := make([]string, 0, len(out))
	for f := range out {
		result = append(result, f)
	}
	sort.Strings(result)
	return result
}

// detectCycle runs a three-color DFS over edges, skipping host-crossing
// edges (§4.6 step 5: "not counting host→target edges"). It returns a
// description of one offending node, or "" if the graph is acyclic.
func detectCycle(nodes map[PackageSpec]*closureNode, edges []depEdge) string {
	adj := make(map[PackageSpec][]PackageSpec)
	for _, e := range edges {
		if e.crossesHostBoundary {
			continue
		}
		adj[e.from] = append(adj[e.from], e.to)
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[PackageSpec]int, len(nodes))
	var cycleNode string

	var visit func(n PackageSpec) bool
	visit = func(n PackageSpec) bool {
		color[n] = gray
		for _, m := range adj[n] {
			switch color[m] {
			case gray:
				cycleNode = m.String()
				return true
			case white:
				if visit(m) {
					return true
				}
			}
		}
		color[n] = black
		return false
	}

	specs := sortedSpecs(nodes)
	for _, s := range specs {
		if color[s] == white {
			if visit(s) {
				return cycleNode
			}
		}
	}
	return ""
}

// topoOrder produces a Kahn's-algorithm ordering, breaking ties by port
// name for determinism (§4.6 step 6).
func topoOrder(nodes map[PackageSpec]*closureNode, edges []depEdge) []PackageSpec {
	indegree := make(map[PackageSpec]int, len(nodes))
	adj := make(map[PackageSpec][]PackageSpec)
	for s := range nodes {
		indegree[s] = 0
	}
	for _, e := range edges {
		adj[e.to] = append(adj[e.to], e.from)
		indegree[e.from]++
	}

	var ready []PackageSpec
	for _, s := range sortedSpecs(nodes) {
		if indegree[s] == 0 {
			ready = append(ready, s)
		}
	}

	var order []PackageSpec
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].Less(ready[j]) })
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, m := range adj[n] {
			indegree[m]--
			if indegree[m] == 0 {
				ready = append(ready, m)
			}
		}
	}
	return order
}

func sortedSpecs(nodes map[PackageSpec]*closureNode) []PackageSpec {
	out := make([]PackageSpec, 0, len(nodes))
	for s := range nodes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// sortByPlanRankThenName orders specs by their position in the new plan's
// topological order (dependencies first), falling back to name order for
// packages no longer reachable from any root at all. Reversing this order
// removes dependents before their dependencies (§4.6 step 8).
func sortByPlanRankThenName(specs []PackageSpec, order []PackageSpec) {
	rank := make(map[PackageSpec]int, len(order))
	for i, s := range order {
		rank[s] = i
	}
	sort.Slice(specs, func(i, j int) bool {
		ri, oki := rank[specs[i]]
		rj, okj := rank[specs[j]]
		switch {
		case oki && okj:
			return ri < rj
		case oki != okj:
			return oki
		default:
			return specs[i].Less(specs[j])
		}
	})
}
