// Command vcpkg-core is a thin driver wiring the core/resolver/install
// packages together for two operations named in spec §6: `ci` and
// `x-ci-verify-versions`. It deliberately carries no flag parsing, help
// text, or localization (§1 Non-goals) -- every input comes from
// environment variables, and main only drives the self-contained
// x-ci-verify-versions path; `ci` is exposed as RunCI for an embedder
// that supplies the out-of-scope build driver (§1: "no actual build
// driver beyond the 'run a build for this action' contract").
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/microsoft/vcpkg-tool-sub003/civerify"
	"github.com/microsoft/vcpkg-tool-sub003/install"
	"github.com/microsoft/vcpkg-tool-sub003/internal/obslog"
	"github.com/microsoft/vcpkg-tool-sub003/portfile"
	"github.com/microsoft/vcpkg-tool-sub003/registry"
	"github.com/microsoft/vcpkg-tool-sub003/resolver"
	"github.com/microsoft/vcpkg-tool-sub003/statusdb"
	"github.com/microsoft/vcpkg-tool-sub003/version"
)

func main() {
	logger := obslog.New()

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "vcpkg-core: getwd:", err)
		os.Exit(1)
	}

	cfg := configFromEnv(wd)

	problems, err := RunCIVerifyVersions(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vcpkg-core:", err)
		os.Exit(1)
	}

	report, err := civerify.RenderReport(problems)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vcpkg-core: rendering report:", err)
		os.Exit(1)
	}
	os.Stdout.Write(report)

	if len(problems) > 0 {
		os.Exit(1)
	}
}

// Config names the filesystem roots every operation needs. There is no
// flag parsing (§1 Non-goals); callers (including main) populate it
// directly or via configFromEnv.
type Config struct {
	PortsDir     string
	RegistryRoot string
	Overlays     []string
	Scheme       version.Scheme
	VerifyGit    bool
}

func configFromEnv(wd string) Config {
	cfg := Config{
		PortsDir:     envOr("VCPKG_PORTS_DIR", wd+"/ports"),
		RegistryRoot: envOr("VCPKG_REGISTRY_ROOT", wd),
		Scheme:       version.SchemeRelaxed,
		VerifyGit:    os.Getenv("VCPKG_VERIFY_GIT_TREES") == "1",
	}
	if overlay := os.Getenv("VCPKG_OVERLAY_PORTS"); overlay != "" {
		cfg.Overlays = append(cfg.Overlays, overlay)
	}
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func buildRegistrySet(cfg Config) *registry.RegistrySet {
	set := registry.NewRegistrySet()
	set.AddDefault(&registry.FilesystemRegistry{Root: cfg.RegistryRoot, Scheme: cfg.Scheme})
	return set
}

func buildPortProvider(cfg Config, set *registry.RegistrySet) *portfile.Provider {
	var overlays []portfile.OverlayDir
	for _, o := range cfg.Overlays {
		overlays = append(overlays, portfile.OverlayDir{Path: o})
	}
	return portfile.NewProvider(overlays, set)
}

// RunCIVerifyVersions wires registry + portfile + civerify to implement
// `x-ci-verify-versions` (§4.10): every overlay port and every port named
// under cfg.RegistryRoot's versions/ tree is checked against its registry
// version database and the baseline file. cfg.PortsDir is not read here.
func RunCIVerifyVersions(cfg Config, logger obslog.Logger) ([]civerify.Problem, error) {
	set := buildRegistrySet(cfg)
	provider := buildPortProvider(cfg, set)

	scfls, loadErrs := provider.LoadAllControlFiles()
	for _, e := range loadErrs {
		logger.Warnf("vcpkg-core: skipping unreadable port: %v", e)
	}

	baselineFile, err := os.Open(cfg.RegistryRoot + "/versions/baseline.json")
	if err != nil {
		return nil, errors.Wrap(err, "opening versions/baseline.json")
	}
	defer baselineFile.Close()
	baseline, err := registry.ParseBaselineFile(baselineFile)
	if err != nil {
		return nil, errors.Wrap(err, "parsing versions/baseline.json")
	}

	ports := make([]civerify.LocalPort, 0, len(scfls))
	for name, scfl := range scfls {
		ports = append(ports, civerify.LocalPort{Name: name, SCF: scfl.SCF})
	}

	source := &civerify.RegistryVersionDBSource{
		VersionDBFunc: func(port string) ([]registry.RegistryEntry, error) {
			if port == "" {
				return nil, errors.New("empty port name")
			}
			f, err := os.Open(cfg.RegistryRoot + "/versions/" + port[:1] + "-/" + port + ".json")
			if err != nil {
				return nil, err
			}
			defer f.Close()
			return registry.ParseVersionDB(port, f)
		},
	}

	verifier := &civerify.Verifier{
		Ports:    ports,
		Baseline: baseline,
		DB:       source,
		Options:  civerify.Options{VerifyGitTrees: cfg.VerifyGit},
	}
	return verifier.Run(), nil
}

// RunCI wires registry + portfile + resolver + install.Executor to drive
// the `ci` operation (§4.9) for a list of root specs. builder/preclear/
// status are supplied by the embedder: they are the out-of-scope "run a
// build", "clear packages/<spec>", and "persist the status db" contracts
// (§1 Non-goals), not something this driver can provide on its own.
func RunCI(
	cfg Config,
	roots []resolver.FullPackageSpec,
	triplet resolver.Triplet,
	baselines resolver.BaselineProvider,
	vars resolver.VariableProvider,
	abi resolver.ABIComputer,
	installed resolver.InstalledIndex,
	builder install.BuildDriver,
	preclear install.Preclearer,
	status install.StatusStore,
	logger obslog.Logger,
) (install.Summary, *statusdb.Database, error) {
	set := buildRegistrySet(cfg)
	provider := buildPortProvider(cfg, set)

	plan, err := resolver.Resolve(resolver.Config{
		Roots:          roots,
		HostTriplet:    triplet,
		DefaultTriplet: triplet,
		Ports:          provider,
		Baselines:      baselines,
		Vars:           vars,
		Installed:      installed,
		ABI:            abi,
	})
	if err != nil {
		return install.Summary{}, nil, errors.Wrap(err, "resolving install plan")
	}

	executor := &install.Executor{
		Builder:   builder,
		Preclear:  preclear,
		Status:    status,
		Logger:    logger,
		KeepGoing: install.KeepGoingYes,
	}
	return executor.ExecutePlan(plan, statusdb.New())
}
