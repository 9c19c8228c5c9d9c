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
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/walteh/contentsync/pkg/syncerr"
)

// Span is a half-open byte range [Start, End) of a module's text.
type Span struct {
	Start int
	End   int
}

// Text returns the part of src covered by the span.
func (s Span) Text(src string) string {
	return src[s.Start:s.End]
}

// Item is one entry of an array or object literal.
type Item struct {
	Span
	// Key is the property name for object literal entries. Spreads and
	// computed keys are kept with their raw key text.
	Key string
	// Value covers the property value, or the whole item for arrays.
	Value Span
}

// Literal is an array or object literal located in a module.
type Literal struct {
	// Name is the exported binding, empty for nested literals.
	Name  string
	Open  int
	Close int
	Items []Item
	// TrailingComma is the offset of a comma after the last item, or -1.
	TrailingComma int
}

// 🔎 FindExport locates `export const <name> = <open>...` and tokenizes its
// top-level entries. An empty name matches the first such export. open is
// '[' or '{'.
func FindExport(src, name string, open byte) (*Literal, error) {
	s := scanner{src: src}
	closer := closerOf(open)

	i := 0
	for {
		i = s.skipTrivia(i)
		if i >= len(src) {
			if name == "" {
				return nil, syncerr.New(syncerr.KindStructural, "parse", "no exported %s literal found", describe(open))
			}
			return nil, syncerr.New(syncerr.KindStructural, "parse", "no exported %s literal named %q found", describe(open), name)
		}

		c := src[i]
		if isQuote(c) {
			end, err := s.skipString(i)
			if err != nil {
				return nil, err
			}
			i = end
			continue
		}
		if !isIdentStart(src, i) {
			i++
			continue
		}

		word, end := s.ident(i)
		if word != "export" {
			i = end
			continue
		}

		bound, at, ok := s.exportBinding(end)
		if !ok || src[at] != open || (name != "" && bound != name) {
			i = end
			continue
		}

		lit, err := s.parseEntries(at, closer)
		if err != nil {
			return nil, err
		}
		lit.Name = bound
		return lit, nil
	}
}

// ParseObject tokenizes the object literal starting at src[at].
func ParseObject(src string, at int) (*Literal, error) {
	s := scanner{src: src}
	if at >= len(src) || src[at] != '{' {
		return nil, syncerr.New(syncerr.KindStructural, "parse", "expected '{' at offset %d", at)
	}
	return s.parseEntries(at, '}')
}

// exportBinding reads `const <name> =` after an export keyword and returns
// the binding name and the offset of the initializer.
func (s scanner) exportBinding(i int) (string, int, bool) {
	i = s.skipTrivia(i)
	if !isIdentStart(s.src, i) {
		return "", 0, false
	}
	kw, i := s.ident(i)
	if kw != "const" && kw != "let" && kw != "var" {
		return "", 0, false
	}

	i = s.skipTrivia(i)
	if !isIdentStart(s.src, i) {
		return "", 0, false
	}
	name, i := s.ident(i)

	i = s.skipTrivia(i)
	if i >= len(s.src) || s.src[i] != '=' || (i+1 < len(s.src) && s.src[i+1] == '=') {
		return "", 0, false
	}

	i = s.skipTrivia(i + 1)
	if i >= len(s.src) {
		return "", 0, false
	}
	return name, i, true
}

func (s scanner) parseEntries(open int, closer byte) (*Literal, error) {
	lit := &Literal{Open: open, TrailingComma: -1}
	isObject := closer == '}'

	i := open + 1
	for {
		i = s.skipTrivia(i)
		if i >= len(s.src) {
			return nil, s.unterminated(open)
		}

		c := s.src[i]
		if c == closer {
			lit.Close = i
			return lit, nil
		}
		if c == ',' {
			return nil, syncerr.New(syncerr.KindStructural, "parse", "empty entry at offset %d", i)
		}
		if isCloser(c) {
			return nil, syncerr.New(syncerr.KindStructural, "parse", "unexpected %q at offset %d", c, i)
		}

		var (
			item Item
			err  error
		)
		if isObject {
			item, err = s.property(i)
		} else {
			var end int
			end, _, err = s.expr(i)
			item = Item{Span: Span{i, end}, Value: Span{i, end}}
		}
		if err != nil {
			return nil, err
		}
		lit.Items = append(lit.Items, item)

		i = s.skipTrivia(item.End)
		if i >= len(s.src) {
			return nil, s.unterminated(open)
		}
		switch s.src[i] {
		case ',':
			next := s.skipTrivia(i + 1)
			if next < len(s.src) && s.src[next] == closer {
				lit.TrailingComma = i
			}
			i++
		case closer:
			lit.Close = i
			return lit, nil
		default:
			return nil, syncerr.New(syncerr.KindStructural, "parse", "expected ',' or %q at offset %d", closer, i)
		}
	}
}

// property reads `key: value`, a shorthand `key`, or a `...spread`.
func (s scanner) property(i int) (Item, error) {
	start := i
	var key string

	switch {
	case strings.HasPrefix(s.src[i:], "..."):
		end, _, err := s.expr(i)
		if err != nil {
			return Item{}, err
		}
		return Item{Span: Span{start, end}, Key: s.src[start:end], Value: Span{start, end}}, nil

	case isQuote(s.src[i]) && s.src[i] != '`':
		end, err := s.skipString(i)
		if err != nil {
			return Item{}, err
		}
		key, _ = unquote(s.src[i:end])
		i = end

	case s.src[i] == '[':
		end, err := s.skipBalanced(i)
		if err != nil {
			return Item{}, err
		}
		key = s.src[i:end]
		i = end

	case isIdentStart(s.src, i) || isDigit(s.src[i]):
		j := i
		for j < len(s.src) && (isIdentPart(s.src, j) || s.src[j] == '.') {
			_, size := utf8.DecodeRuneInString(s.src[j:])
			j += size
		}
		key = s.src[i:j]
		i = j

	default:
		return Item{}, syncerr.New(syncerr.KindStructural, "parse", "unexpected %q in object at offset %d", s.src[i], i)
	}

	j := s.skipTrivia(i)
	if j < len(s.src) && s.src[j] == ':' {
		vstart := s.skipTrivia(j + 1)
		end, _, err := s.expr(vstart)
		if err != nil {
			return Item{}, err
		}
		if end == vstart {
			return Item{}, syncerr.New(syncerr.KindStructural, "parse", "missing value for %q at offset %d", key, vstart)
		}
		return Item{Span: Span{start, end}, Key: key, Value: Span{vstart, end}}, nil
	}

	// shorthand property or method; treat what follows as part of the value
	end, _, err := s.expr(start)
	if err != nil {
		return Item{}, err
	}
	return Item{Span: Span{start, end}, Key: key, Value: Span{start, end}}, nil
}

type scanner struct {
	src string
}

// skipTrivia returns the first offset at or after i that is not whitespace or a comment.
func (s scanner) skipTrivia(i int) int {
	for i < len(s.src) {
		c := s.src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++
		case strings.HasPrefix(s.src[i:], "//"):
			j := strings.IndexByte(s.src[i:], '\n')
			if j < 0 {
				return len(s.src)
			}
			i += j + 1
		case strings.HasPrefix(s.src[i:], "/*"):
			j := strings.Index(s.src[i+2:], "*/")
			if j < 0 {
				return len(s.src)
			}
			i += j + 4
		case strings.HasPrefix(s.src[i:], "\u00a0"), strings.HasPrefix(s.src[i:], "\ufeff"):
			_, size := utf8.DecodeRuneInString(s.src[i:])
			i += size
		default:
			return i
		}
	}
	return i
}

// skipString returns the offset just past the string or template literal at i.
func (s scanner) skipString(i int) (int, error) {
	q := s.src[i]
	if q == '`' {
		return s.skipTemplate(i)
	}
	for j := i + 1; j < len(s.src); j++ {
		switch s.src[j] {
		case '\\':
			j++
		case q:
			return j + 1, nil
		case '\n', '\r':
			return 0, syncerr.New(syncerr.KindStructural, "parse", "unterminated string starting at offset %d", i)
		}
	}
	return 0, syncerr.New(syncerr.KindStructural, "parse", "unterminated string starting at offset %d", i)
}

func (s scanner) skipTemplate(i int) (int, error) {
	for j := i + 1; j < len(s.src); {
		switch {
		case s.src[j] == '\\':
			j += 2
		case s.src[j] == '`':
			return j + 1, nil
		case s.src[j] == '$' && j+1 < len(s.src) && s.src[j+1] == '{':
			end, err := s.skipBalanced(j + 1)
			if err != nil {
				return 0, err
			}
			j = end
		default:
			j++
		}
	}
	return 0, syncerr.New(syncerr.KindStructural, "parse", "unterminated template literal starting at offset %d", i)
}

// skipBalanced returns the offset just past the bracket group opened at i.
func (s scanner) skipBalanced(i int) (int, error) {
	stack := []byte{closerOf(s.src[i])}
	j := i + 1
	for {
		j = s.skipTrivia(j)
		if j >= len(s.src) {
			return 0, s.unterminated(i)
		}
		c := s.src[j]
		switch {
		case isQuote(c):
			end, err := s.skipString(j)
			if err != nil {
				return 0, err
			}
			j = end
			continue
		case c == '{' || c == '[' || c == '(':
			stack = append(stack, closerOf(c))
		case isCloser(c):
			if c != stack[len(stack)-1] {
				return 0, syncerr.New(syncerr.KindStructural, "parse", "mismatched %q at offset %d", c, j)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return j + 1, nil
			}
		}
		j++
	}
}

// expr scans one expression starting at i and stops before a top-level
// ',' or closing bracket. It returns the end of the last token and the
// offset of the delimiter.
func (s scanner) expr(i int) (end int, delim int, err error) {
	end = i
	j := i
	for {
		j = s.skipTrivia(j)
		if j >= len(s.src) {
			return 0, 0, syncerr.New(syncerr.KindStructural, "parse", "unexpected end of input in expression at offset %d", i)
		}
		c := s.src[j]
		switch {
		case c == ',' || isCloser(c):
			return end, j, nil
		case isQuote(c):
			j, err = s.skipString(j)
		case c == '{' || c == '[' || c == '(':
			j, err = s.skipBalanced(j)
		default:
			_, size := utf8.DecodeRuneInString(s.src[j:])
			j += size
		}
		if err != nil {
			return 0, 0, err
		}
		end = j
	}
}

func (s scanner) ident(i int) (string, int) {
	j := i
	for j < len(s.src) && isIdentPart(s.src, j) {
		_, size := utf8.DecodeRuneInString(s.src[j:])
		j += size
	}
	return s.src[i:j], j
}

func (s scanner) unterminated(open int) error {
	return syncerr.New(syncerr.KindStructural, "parse", "unterminated %s opened at offset %d", describe(s.src[open]), open)
}

func isQuote(c byte) bool {
	return c == '\'' || c == '"' || c == '`'
}

func isCloser(c byte) bool {
	return c == '}' || c == ']' || c == ')'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func closerOf(c byte) byte {
	switch c {
	case '{':
		return '}'
	case '[':
		return ']'
	default:
		return ')'
	}
}

func describe(open byte) string {
	switch open {
	case '{':
		return "object"
	case '[':
		return "array"
	default:
		return "group"
	}
}

func isIdentStart(src string, i int) bool {
	if i >= len(src) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(src[i:])
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(src string, i int) bool {
	if i >= len(src) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(src[i:])
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsIdentifier reports whether name can be used as a bare property key or binding.
func IsIdentifier(name string) bool {
	if name == "" || !isIdentStart(name, 0) {
		return false
	}
	_, end := scanner{src: name}.ident(0)
	return end == len(name)
}

// Edit replaces Span of a text with Text.
type Edit struct {
	Span
	Text string
}

// 🧩 Apply applies non-overlapping edits to src.
func Apply(src string, edits ...Edit) string {
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })
	for _, e := range sorted {
		src = src[:e.Start] + e.Text + src[e.End:]
	}
	return src
}

// AppendEdit returns the edit adding an entry after the last item of lit.
// render receives the indentation of the entry's first line.
func (lit *Literal) AppendEdit(src string, render func(indent string) string) Edit {
	closeIndent := lineIndent(src, lit.Close)

	if len(lit.Items) == 0 {
		indent := closeIndent + "  "
		start := len(strings.TrimRight(src[:lit.Close], " \t\r\n"))
		return Edit{
			Span: Span{start, lit.Close},
			Text: "\n" + indent + render(indent) + ",\n" + closeIndent,
		}
	}

	indent := lineIndent(src, lit.Items[0].Start)
	if indent == "" {
		indent = closeIndent + "  "
	}

	if lit.TrailingComma >= 0 {
		at := lit.TrailingComma + 1
		return Edit{Span: Span{at, at}, Text: "\n" + indent + render(indent) + ","}
	}

	end := lit.Items[len(lit.Items)-1].End
	return Edit{Span: Span{end, end}, Text: ",\n" + indent + render(indent)}
}

// 📥 TopLevelImports returns the spans of the module's static import statements.
func TopLevelImports(src string) []Span {
	s := scanner{src: src}
	var out []Span

	i := 0
	for {
		i = s.skipTrivia(i)
		if i >= len(src) {
			return out
		}

		c := src[i]
		switch {
		case isQuote(c):
			end, err := s.skipString(i)
			if err != nil {
				return out
			}
			i = end
			continue
		case c == '{' || c == '[' || c == '(':
			end, err := s.skipBalanced(i)
			if err != nil {
				return out
			}
			i = end
			continue
		case !isIdentStart(src, i):
			i++
			continue
		}

		word, end := s.ident(i)
		if word != "import" {
			i = end
			continue
		}
		next := s.skipTrivia(end)
		if next >= len(src) || src[next] == '(' || src[next] == '.' {
			i = end
			continue
		}

		stmtEnd, ok := s.importEnd(next)
		if !ok {
			return out
		}
		out = append(out, Span{i, stmtEnd})
		i = stmtEnd
	}
}

// importEnd finds the module specifier that ends an import statement.
func (s scanner) importEnd(i int) (int, bool) {
	for {
		i = s.skipTrivia(i)
		if i >= len(s.src) {
			return 0, false
		}
		c := s.src[i]
		switch {
		case isQuote(c):
			end, err := s.skipString(i)
			if err != nil {
				return 0, false
			}
			for end < len(s.src) && (s.src[end] == ' ' || s.src[end] == '\t') {
				end++
			}
			if end < len(s.src) && s.src[end] == ';' {
				end++
			}
			return end, true
		case c == '{':
			end, err := s.skipBalanced(i)
			if err != nil {
				return 0, false
			}
			i = end
		case c == ';':
			return 0, false
		default:
			i++
		}
	}
}
