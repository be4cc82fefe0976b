package resolver

// DependInfo runs the same planning pipeline as Resolve but is meant for
// callers that only want the computed plan -- e.g. `depend-info` and
// `x-ci-verify-versions` -- without driving an install.Executor. It clears
// Installed on its own copy of cfg before forwarding to Resolve, so the
// plan has no already-installed elision and no remove actions; the
// caller's cfg is not modified. ABI stamping still runs when cfg.ABI is set.
func DependInfo(cfg Config) (*Plan, error) {
	cfg.Installed = nil
	return Resolve(cfg)
}
