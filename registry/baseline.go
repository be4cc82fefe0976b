package registry

import (
	"encoding/json"
	"io"

	"github.com/microsoft/vcpkg-tool-sub003/version"
)

// Baseline is a name -> version snapshot pinning a whole registry's ports
// at once (§ Glossary, versions/baseline.json in §6).
type Baseline map[string]version.Version

type rawBaselineEntry struct {
	Baseline    string `json:"baseline"`
	PortVersion int    `json:"port-version"`
}

type rawBaselineFile struct {
	Default map[string]rawBaselineEntry `json:"default"`
}

// ParseBaselineFile parses the "default" bucket of versions/baseline.json
// (§4.4, §6) into a Baseline. A baseline is permitted to omit a port
// entirely -- such ports never materialize (§4.3) -- so absence is not an
// error here; callers check presence with a map lookup.
func ParseBaselineFile(r io.Reader) (Baseline, error) {
	var raw rawBaselineFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &LocalizedError{Kind: ErrBadVersionDB, Message: "invalid baseline.json: " + err.Error()}
	}
	out := make(Baseline, len(raw.Default))
	for name, e := range raw.Default {
		out[name] = version.NewWithRevision(e.Baseline, e.PortVersion)
	}
	return out, nil
}
