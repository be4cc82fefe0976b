package statusdb

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/microsoft/vcpkg-tool-sub003/paragraph"
)

// Encode renders the database's installed records as control paragraphs,
// sorted deterministically (by Package, then Feature) so repeated writes
// of an unchanged database produce byte-identical output, the way the
// teacher's Lock.MarshalJSON sorts projects before encoding.
func Encode(w io.Writer, db *Database) error {
	records := append([]Record(nil), db.Installed()...)
	sort.Sort(sortedRecords(records))

	for i, r := range records {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := writeRecord(w, r); err != nil {
			return err
		}
	}
	return nil
}

func writeRecord(w io.Writer, r Record) error {
	fields := []struct {
		name, value string
	}{
		{"Package", r.Package},
		{"Version", r.Version},
	}
	if r.PortVersion != 0 {
		fields = append(fields, struct{ name, value string }{"Port-Version", strconv.Itoa(r.PortVersion)})
	}
	if r.Feature != "" {
		fields = append(fields, struct{ name, value string }{"Feature", r.Feature})
	}
	fields = append(fields, struct{ name, value string }{"Architecture", r.Architecture})
	fields = append(fields, struct{ name, value string }{"Multi-Arch", "same"})
	if len(r.Depends) > 0 {
		sorted := append([]string(nil), r.Depends...)
		sort.Strings(sorted)
		fields = append(fields, struct{ name, value string }{"Depends", strings.Join(sorted, ", ")})
	}
	if len(r.DefaultFeatures) > 0 {
		fields = append(fields, struct{ name, value string }{"Default-Features", strings.Join(r.DefaultFeatures, ", ")})
	}
	if r.ABI != "" {
		fields = append(fields, struct{ name, value string }{"Abi", r.ABI})
	}
	fields = append(fields, struct{ name, value string }{"Status", r.Status.String()})

	for _, f := range fields {
		if _, err := fmt.Fprintf(w, "%s: %s\n", f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// Decode parses a status file's paragraphs back into Records, for use by
// Load. Unknown fields are ignored, matching the paragraph package's
// forward-compatible parsing stance.
func Decode(r io.Reader) ([]Record, error) {
	paragraphs, err := paragraph.ParseControlParagraphs(r)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(paragraphs))
	for _, p := range paragraphs {
		rec, err := recordFromParagraph(p)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func recordFromParagraph(p *paragraph.Paragraph) (Record, error) {
	pkg, err := p.Require("Package")
	if err != nil {
		return Record{}, err
	}
	version, err := p.Require("Version")
	if err != nil {
		return Record{}, err
	}

	architecture, _ := p.Get("Architecture")
	feature, _ := p.Get("Feature")
	abi, _ := p.Get("Abi")

	rec := Record{
		Package:      pkg,
		Version:      version,
		Architecture: architecture,
		Feature:      feature,
		ABI:          abi,
	}
	if pv, ok := p.Get("Port-Version"); ok && pv != "" {
		n, err := strconv.Atoi(pv)
		if err != nil {
			return Record{}, errors.Wrapf(err, "statusdb: bad Port-Version %q for %s", pv, pkg)
		}
		rec.PortVersion = n
	}
	if deps, ok := p.Get("Depends"); ok && deps != "" {
		rec.Depends = splitCommaList(deps)
	}
	if defs, ok := p.Get("Default-Features"); ok && defs != "" {
		rec.DefaultFeatures = splitCommaList(defs)
	}

	status, err := p.Require("Status")
	if err != nil {
		return Record{}, err
	}
	rec.Status, err = parseStatus(status)
	if err != nil {
		return Record{}, errors.Wrapf(err, "statusdb: package %s", pkg)
	}
	return rec, nil
}

func splitCommaList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseStatus(s string) (Status, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return Status{}, errors.Errorf("malformed Status field %q", s)
	}
	var want Want
	switch fields[0] {
	case "install":
		want = WantInstall
	case "purge":
		want = WantPurge
	default:
		return Status{}, errors.Errorf("unknown Status want %q", fields[0])
	}

	var state State
	switch fields[2] {
	case "installed":
		state = StateInstalled
	case "half-installed":
		state = StateHalfInstalled
	case "not-installed":
		state = StateNotInstalled
	default:
		return Status{}, errors.Errorf("unknown Status state %q", fields[2])
	}
	return Status{Want: want, State: state}, nil
}
