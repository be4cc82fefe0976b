package civerify

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// TriageStatus is one CI baseline triage outcome for a port:triplet pair.
type TriageStatus string

const (
	TriageFail TriageStatus = "fail"
	TriageSkip TriageStatus = "skip"
	TriagePass TriageStatus = "pass"
)

// CIBaseline is the parsed triage file, one `<port>:<triplet>=(fail|skip|pass)`
// line per exception, grounded on commands.ci.cpp's baseline handling (§6,
// §8 scenario 2). Later lines override earlier ones for the same pair.
type CIBaseline struct {
	entries map[string]TriageStatus
}

// ParseCIBaselineFile parses the triage file. A `pass` line only ever
// un-skips/un-fails a pair that already carries a fail or skip entry
// earlier in the file; a bare pass with no prior entry is a parse error.
func ParseCIBaselineFile(r io.Reader) (*CIBaseline, error) {
	cb := &CIBaseline{entries: make(map[string]TriageStatus)}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, status, err := parseTriageLine(text)
		if err != nil {
			return nil, errors.Wrapf(err, "ci baseline line %d", line)
		}
		if status == TriagePass {
			if _, ok := cb.entries[key]; !ok {
				return nil, errors.Errorf("ci baseline line %d: pass for %s has no prior fail/skip entry to override", line, key)
			}
		}
		cb.entries[key] = status
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cb, nil
}

func parseTriageLine(text string) (key string, status TriageStatus, err error) {
	eq := strings.LastIndex(text, "=")
	if eq < 0 {
		return "", "", errors.Errorf("missing '=' in %q", text)
	}
	key = text[:eq]
	if !strings.Contains(key, ":") {
		return "", "", errors.Errorf("missing ':' in %q", key)
	}
	switch TriageStatus(text[eq+1:]) {
	case TriageFail, TriageSkip, TriagePass:
		status = TriageStatus(text[eq+1:])
	default:
		return "", "", errors.Errorf("unknown triage status in %q", text)
	}
	return key, status, nil
}

func triageKey(port, triplet string) string { return port + ":" + triplet }

// Status returns the resolved triage status for a port:triplet pair, or
// "" when the pair carries no exception.
func (cb *CIBaseline) Status(port, triplet string) TriageStatus {
	if cb == nil {
		return ""
	}
	return cb.entries[triageKey(port, triplet)]
}

// SuppressesFailure reports whether a build failure for (port, triplet)
// is a known failure that should not be reported as a regression.
func (cb *CIBaseline) SuppressesFailure(port, triplet string) bool {
	return cb.Status(port, triplet) == TriageFail
}

// Skips reports whether (port, triplet) is excluded from the run entirely.
func (cb *CIBaseline) Skips(port, triplet string) bool {
	return cb.Status(port, triplet) == TriageSkip
}
