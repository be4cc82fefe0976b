// Package abi computes the content-addressed package_abi digest for an
// install action (§4.7), folding in build-tool versions, port file
// contents, tracked environment variables, the activated feature set, and
// upstream dependency ABIs, grounded on original_source's abi.cpp.
package abi

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// Entry is one (key, hex-digest) pair folded into the final ABI hash.
type Entry struct {
	Key    string
	Digest string
}

// Skip reports whether ABI computation (and binary caching) should be
// skipped entirely for this action (§4.7 step 2).
type Skip struct {
	OnlyDownloads bool
	UseHeadVersion bool
	Editable      bool
}

func (s Skip) Any() bool { return s.OnlyDownloads || s.UseHeadVersion || s.Editable }

// ToolVersions are the precomputed, per-triplet-independent inputs that
// rarely change between invocations (§4.7: cmake, ports.cmake,
// post_build_checks, powershell).
type ToolVersions struct {
	CMakeVersion      string
	PortsCMakeDigest  string
	PowerShellVersion string // only folded in when IsWindows is true
	IsWindows         bool
}

// TripletInfo folds in the resolved triplet file plus compiler-info digest,
// computed once per triplet by an external toolchain probe (§4.7).
type TripletInfo struct {
	Digest string
}

// PreBuildInputs are the per-port, pre-build-info derived inputs (§4.7).
type PreBuildInputs struct {
	PublicABIOverrideDigest string // empty if none
	PassthroughEnvVars      []string
	TargetIsXbox            bool
	GRDKHeaderDigest         string // only consulted when TargetIsXbox
}

// CMakeHelper is one named helper script under scripts/cmake/<stem>.cmake,
// keyed by stem (§4.7).
type CMakeHelper struct {
	Stem   string
	Digest string
}

// Inputs is everything needed to compute one action's package_abi.
type Inputs struct {
	Tools        ToolVersions
	Triplet      TripletInfo
	PreBuild     PreBuildInputs
	PortDir      string
	CMakeHelpers []CMakeHelper
	Features     []string // must already contain "core", never "default"
	DependencyABIs map[string]string // dependency port name -> package_abi
	PortName     string
}

// maxPortFileCount is the port file count above which a HashPortManyFiles
// warning is added to the result, mirroring the original's msgHashPortManyFiles.
const maxPortFileCount = 100

// Result is the outcome of computing one action's ABI.
type Result struct {
	PackageABI string
	Entries    []Entry
	Warnings   []string
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func sha256HexString(s string) string { return sha256Hex([]byte(s)) }

// Compute builds the ordered AbiEntry list and the final package_abi
// digest for one install action (§4.7 steps 1, 3).
func Compute(in Inputs) (Result, error) {
	if err := validateFeatures(in.Features); err != nil {
		return Result{}, err
	}

	var entries []Entry
	var warnings []string

	entries = append(entries, Entry{"cmake", in.Tools.CMakeVersion})
	entries = append(entries, Entry{"ports.cmake", in.Tools.PortsCMakeDigest})
	entries = append(entries, Entry{"post_build_checks", "2"})
	if in.Tools.IsWindows {
		entries = append(entries, Entry{"powershell", in.Tools.PowerShellVersion})
	}
	entries = append(entries, Entry{"triplet_abi", in.Triplet.Digest})

	if in.PreBuild.PublicABIOverrideDigest != "" {
		entries = append(entries, Entry{"public_abi_override", in.PreBuild.PublicABIOverrideDigest})
	}
	for _, name := range in.PreBuild.PassthroughEnvVars {
		if v, ok := os.LookupEnv(name); ok {
			entries = append(entries, Entry{"ENV:" + name, sha256HexString(v)})
		}
	}
	if in.PreBuild.TargetIsXbox {
		digest := in.PreBuild.GRDKHeaderDigest
		if digest == "" {
			digest = "none"
		}
		entries = append(entries, Entry{"grdk.h", digest})
	}

	portEntries, cmakeContents, fileCount, err := hashPortFiles(in.PortDir)
	if err != nil {
		return Result{}, err
	}
	entries = append(entries, portEntries...)
	if fileCount > maxPortFileCount {
		warnings = append(warnings, fmt.Sprintf("port %s has %d files, which is unusually high", in.PortName, fileCount))
	}

	for _, helper := range in.CMakeHelpers {
		if strings.Contains(strings.ToLower(cmakeContents), strings.ToLower(helper.Stem)) {
			entries = append(entries, Entry{helper.Stem, helper.Digest})
		}
	}

	depNames := make([]string, 0, len(in.DependencyABIs))
	for name := range in.DependencyABIs {
		depNames = append(depNames, name)
	}
	sort.Strings(depNames)
	for _, name := range depNames {
		if name == in.PortName {
			continue
		}
		entries = append(entries, Entry{name, in.DependencyABIs[name]})
	}

	entries = append(entries, Entry{"features", strings.Join(in.Features, ";")})

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.Key)
		sb.WriteByte(0)
		sb.WriteString(e.Digest)
		sb.WriteByte(0)
	}

	return Result{
		PackageABI: sha256HexString(sb.String()),
		Entries:    entries,
		Warnings:   warnings,
	}, nil
}

func validateFeatures(features []string) error {
	for _, f := range features {
		if f == "default" {
			return errors.New("abi: feature list must not contain the pseudo-feature \"default\"")
		}
	}
	for _, f := range features {
		if f == "core" {
			return nil
		}
	}
	return errors.New("abi: feature list must contain \"core\"")
}

// hashPortFiles walks PortDir recursively (godirwalk, matching the
// teacher-adjacent pack's preference for a fast non-reflective walker
// over filepath.Walk), excluding .DS_Store, hashing each file's content
// and concatenating the contents of every .cmake file for the cmake
// helper substring scan.
func hashPortFiles(portDir string) ([]Entry, string, int, error) {
	var entries []Entry
	var cmakeContents strings.Builder
	count := 0

	err := godirwalk.Walk(portDir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if filepath.Base(path) == ".DS_Store" {
				return nil
			}
			rel, err := filepath.Rel(portDir, path)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if strings.EqualFold(filepath.Ext(path), ".cmake") {
				cmakeContents.Write(data)
			}
			entries = append(entries, Entry{filepath.ToSlash(rel), sha256Hex(data)})
			count++
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, "", 0, err
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, cmakeContents.String(), count, nil
}
