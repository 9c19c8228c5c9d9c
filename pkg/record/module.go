// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package record

import (
	"strings"

	"github.com/walteh/contentsync/pkg/syncerr"
)

// DefaultIdentifier names the collection created when patching blank text.
const DefaultIdentifier = "records"

// Element is one object literal of a collection array.
type Element struct {
	Span   Span
	Record Record
}

// Module is a parsed collection module: the first exported array literal
// and the records inside it. Text outside the array is left untouched by
// every edit.
type Module struct {
	Source   string
	Array    *Literal
	Elements []Element
}

// 🔍 Parse finds the first exported array literal in text and decodes its
// object elements. Elements that are not object literals are skipped.
func Parse(text string) (*Module, error) {
	arr, err := FindExport(text, "", '[')
	if err != nil {
		return nil, err
	}

	m := &Module{Source: text, Array: arr}
	for _, item := range arr.Items {
		if text[item.Start] != '{' {
			continue
		}
		obj, err := ParseObject(text, item.Start)
		if err != nil {
			return nil, err
		}
		if obj.Close+1 != item.End {
			// an expression such as {...}.x, not a plain record
			continue
		}
		rec := decodeObject(text, obj)
		if rec.ID == "" && hasField(rec.Extra, keyID) {
			return nil, syncerr.New(syncerr.KindStructural, "parse", "record at offset %d has an id that is not a string or number literal", item.Start)
		}
		m.Elements = append(m.Elements, Element{
			Span:   item.Span,
			Record: rec,
		})
	}
	return m, nil
}

// Find returns the indexes of every element whose id is id.
func (m *Module) Find(id string) []int {
	var out []int
	for i, e := range m.Elements {
		if e.Record.ID != "" && e.Record.ID == id {
			out = append(out, i)
		}
	}
	return out
}

// find returns the single element for id, -1 when absent.
func (m *Module) find(op, id string) (int, error) {
	matches := m.Find(id)
	switch len(matches) {
	case 0:
		return -1, nil
	case 1:
		return matches[0], nil
	default:
		return -1, syncerr.New(syncerr.KindIntegrity, op, "record id %q appears %d times", id, len(matches))
	}
}

// Records returns the decoded records in file order.
func (m *Module) Records() []Record {
	out := make([]Record, len(m.Elements))
	for i, e := range m.Elements {
		out[i] = e.Record
	}
	return out
}

// Replace renders r in place of element i.
func (m *Module) Replace(i int, r Record) string {
	e := m.Elements[i]
	if r.bodyKey == "" && e.Record.bodyKey != "" && r.Body != "" {
		r.bodyKey = e.Record.bodyKey
	}
	if e.Record.numericID && r.ID == e.Record.ID {
		r.numericID = true
	}
	indent := lineIndent(m.Source, e.Span.Start)
	return m.Source[:e.Span.Start] + serialize(r, indent) + m.Source[e.Span.End:]
}

// Insert renders r after the last entry of the array.
func (m *Module) Insert(r Record) string {
	return Apply(m.Source, m.Array.AppendEdit(m.Source, func(indent string) string {
		return serialize(r, indent)
	}))
}

// RemoveAt drops element i together with the comma that separates it from its neighbours.
func (m *Module) RemoveAt(i int) string {
	src := m.Source
	span := m.Elements[i].Span
	s := scanner{src: src}

	start := span.Start
	for start > 0 && isSpace(src[start-1]) {
		start--
	}

	end := span.End
	next := s.skipTrivia(end)
	if next < len(src) && src[next] == ',' {
		end = next + 1
	} else if start > 0 && src[start-1] == ',' {
		// last entry without a trailing comma: drop the separator before it
		start--
		for start > 0 && isSpace(src[start-1]) {
			start--
		}
	}

	return src[:start] + src[end:]
}

// 📍 Locate returns the span of the record with the given id. A missing
// record is reported with ok false. More than one match is an IntegrityError.
func Locate(text, id string) (Span, bool, error) {
	m, err := Parse(text)
	if err != nil {
		return Span{}, false, err
	}
	i, err := m.find("locate", id)
	if err != nil || i < 0 {
		return Span{}, false, err
	}
	return m.Elements[i].Span, true, nil
}

// 🩹 Patch replaces the record whose id matches r.ID, or inserts r before
// the array closes. Blank text starts a new module.
func Patch(text string, r Record) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		text = Empty(DefaultIdentifier)
	}

	m, err := Parse(text)
	if err != nil {
		return "", err
	}
	i, err := m.find("patch", r.ID)
	if err != nil {
		return "", err
	}

	var out string
	if i >= 0 {
		out = m.Replace(i, r)
	} else {
		out = m.Insert(r)
	}

	if err := verify(out, r.ID, 1); err != nil {
		return "", err
	}
	return out, nil
}

// ✂️ Remove deletes the record with the given id.
func Remove(text, id string) (string, error) {
	m, err := Parse(text)
	if err != nil {
		return "", err
	}
	i, err := m.find("remove", id)
	if err != nil {
		return "", err
	}
	if i < 0 {
		return "", syncerr.NotFound("remove", "no record with id %q", id)
	}

	out := m.RemoveAt(i)
	if err := verify(out, id, 0); err != nil {
		return "", err
	}
	return out, nil
}

// List returns every record of the module in file order.
func List(text string) ([]Record, error) {
	m, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return m.Records(), nil
}

// Empty returns the text of a module holding an empty collection.
func Empty(identifier string) string {
	return "export const " + identifier + " = [\n];\n"
}

// verify re-parses edited text so a bad edit is reported instead of committed.
func verify(out, id string, want int) error {
	m, err := Parse(out)
	if err != nil {
		return syncerr.Wrap(syncerr.KindStructural, "verify", err)
	}
	if got := len(m.Find(id)); got != want {
		return syncerr.New(syncerr.KindStructural, "verify", "edited module has %d records with id %q, want %d", got, id, want)
	}
	return nil
}

func hasField(fields []Field, key string) bool {
	for _, f := range fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// lineIndent returns the whitespace before offset i when nothing else precedes it on its line.
func lineIndent(src string, i int) string {
	start := i
	for start > 0 && (src[start-1] == ' ' || src[start-1] == '\t') {
		start--
	}
	if start > 0 && src[start-1] != '\n' {
		return ""
	}
	return src[start:i]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
