package statusdb

import "github.com/microsoft/vcpkg-tool-sub003/resolver"

// Index adapts a Database to resolver.InstalledIndex so the resolver can
// perform already-installed elision without importing this package.
type Index struct {
	DB      *Database
	Triplet resolver.Triplet
}

func (i Index) Lookup(spec resolver.PackageSpec) (resolver.InstalledPackageView, bool) {
	rec, ok := i.DB.Find(spec.Name)
	if !ok || !rec.Status.isInstalled() {
		return resolver.InstalledPackageView{}, false
	}
	features := append([]string(nil), rec.DefaultFeatures...)
	return resolver.InstalledPackageView{
		Spec:     spec,
		ABI:      rec.ABI,
		Features: features,
	}, true
}

func (i Index) All() []resolver.InstalledPackageView {
	installed := i.DB.Installed()
	out := make([]resolver.InstalledPackageView, 0, len(installed))
	for _, rec := range installed {
		if !rec.IsCore() {
			continue
		}
		out = append(out, resolver.InstalledPackageView{
			Spec:     resolver.PackageSpec{Name: rec.Package, Triplet: i.Triplet},
			ABI:      rec.ABI,
			Features: append([]string(nil), rec.DefaultFeatures...),
		})
	}
	return out
}

var _ resolver.InstalledIndex = Index{}
