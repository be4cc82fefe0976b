// Package paragraph parses vcpkg's two port metadata formats -- the legacy
// RFC-822-like control paragraph and the JSON manifest -- into a common
// SourceControlFile model.
package paragraph

import (
	"bufio"
	"io"
	"strings"
)

// Paragraph is an ordered set of fields from one RFC-822-like block. Field
// order is preserved because some control fields (Description) are
// documented as "first line is a summary").
type Paragraph struct {
	order  []string
	fields map[string]string
}

func newParagraph() *Paragraph {
	return &Paragraph{fields: make(map[string]string)}
}

func (p *Paragraph) set(name, value string) error {
	if _, dup := p.fields[name]; dup {
		return &Error{Kind: ErrDuplicateField, Field: name, Message: "field appears more than once in this paragraph"}
	}
	p.order = append(p.order, name)
	p.fields[name] = value
	return nil
}

// Get returns a field's value and whether it was present.
func (p *Paragraph) Get(name string) (string, bool) {
	v, ok := p.fields[name]
	return v, ok
}

// Require returns a field's value or a missing-field error.
func (p *Paragraph) Require(name string) (string, error) {
	v, ok := p.fields[name]
	if !ok {
		return "", &Error{Kind: ErrMissingField, Field: name, Message: "required field is absent"}
	}
	return v, nil
}

// Fields returns the field names in declaration order.
func (p *Paragraph) Fields() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// ParseControlParagraphs splits r into blank-line-delimited paragraphs and
// parses each into field/value pairs per §4.2: a field starts at column 0
// as "Name: value"; continuation lines begin with a space and are appended
// (newline-joined) to the previous field's value; a line whose first
// non-space character is '#' at column 0 is a full-line comment and is
// skipped entirely.
func ParseControlParagraphs(r io.Reader) ([]*Paragraph, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []*Paragraph
	var cur *Paragraph
	var curField string

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimRight(line, " \t\r") == "" {
			if cur != nil {
				paragraphs = append(paragraphs, cur)
				cur = nil
				curField = ""
			}
			continue
		}

		if line[0] == '#' {
			continue
		}

		if cur == nil {
			cur = newParagraph()
		}

		if line[0] == ' ' || line[0] == '\t' {
			if curField == "" {
				return nil, &Error{Kind: ErrBadFieldSyntax, Message: "continuation line with no preceding field: " + line}
			}
			existing := cur.fields[curField]
			cur.fields[curField] = existing + "\n" + strings.TrimLeft(line, " \t")
			continue
		}

		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, &Error{Kind: ErrBadFieldSyntax, Message: "line is neither a field nor a continuation: " + line}
		}
		name := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		if err := cur.set(name, value); err != nil {
			return nil, err
		}
		curField = name
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		paragraphs = append(paragraphs, cur)
	}
	return paragraphs, nil
}

// ParseControlParagraphsString is a convenience wrapper for in-memory text.
func ParseControlParagraphsString(text string) ([]*Paragraph, error) {
	return ParseControlParagraphs(strings.NewReader(text))
}
