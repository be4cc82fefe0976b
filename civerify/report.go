package civerify

import (
	"bytes"

	"github.com/pelletier/go-toml/v2"
)

// reportEntry is one Problem rendered in the TOML report format: a flat,
// machine-readable shape a CI pipeline can diff between runs, the way
// the teacher renders its own Manifest/Lock structures with go-toml.
type reportEntry struct {
	Port        string `toml:"port"`
	Kind        string `toml:"kind"`
	Message     string `toml:"message"`
	Remediation string `toml:"remediation,omitempty"`
}

type reportDoc struct {
	Problems []reportEntry `toml:"problem"`
}

// RenderReport encodes problems as TOML, one [[problem]] table per entry,
// for attaching to a CI run's artifacts (§4.10: "Report all problems
// together").
func RenderReport(problems []Problem) ([]byte, error) {
	doc := reportDoc{Problems: make([]reportEntry, len(problems))}
	for i, p := range problems {
		doc.Problems[i] = reportEntry{Port: p.Port, Kind: string(p.Kind), Message: p.Message, Remediation: p.Remediation}
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
