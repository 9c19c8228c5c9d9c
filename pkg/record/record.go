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
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/walteh/contentsync/pkg/syncerr"
)

// Record is one content entry embedded in a collection module.
type Record struct {
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Category    string   `json:"category,omitempty"`
	Image       string   `json:"image,omitempty"`
	Date        string   `json:"date,omitempty"`
	Body        string   `json:"body,omitempty"`
	// Extra holds properties this package does not model, as raw source text.
	Extra []Field `json:"extra,omitempty"`

	// bodyKey remembers a body stored under the legacy "content" key.
	bodyKey string
	// numericID is set when the id was written as a number literal.
	numericID bool
}

// Field is a property kept verbatim. An empty Key marks an entry written
// without one, such as a spread or a shorthand property.
type Field struct {
	Key string `json:"key"`
	Raw string `json:"raw"`
}

const (
	keyID          = "id"
	keyTitle       = "title"
	keyDescription = "description"
	keyTags        = "tags"
	keyCategory    = "category"
	keyImage       = "image"
	keyDate        = "date"
	keyBody        = "body"
	keyContent     = "content"
)

// 📝 Serialize renders r as an object literal at the top level of a module.
func Serialize(r Record) string {
	return serialize(r, "")
}

// serialize renders r with its closing brace at indent.
func serialize(r Record, indent string) string {
	var b strings.Builder
	inner := indent + "  "

	field := func(key, value string) {
		b.WriteString(inner)
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString(",\n")
	}

	b.WriteString("{\n")
	if r.numericID && numericLiteral(r.ID) {
		field(keyID, r.ID)
	} else {
		field(keyID, Quote(r.ID))
	}
	if r.Title != "" {
		field(keyTitle, Quote(r.Title))
	}
	if r.Description != "" {
		field(keyDescription, Quote(r.Description))
	}
	if r.Tags != nil {
		tags := make([]string, len(r.Tags))
		for i, t := range r.Tags {
			tags[i] = Quote(t)
		}
		field(keyTags, "["+strings.Join(tags, ", ")+"]")
	}
	if r.Category != "" {
		field(keyCategory, Quote(r.Category))
	}
	if r.Image != "" {
		field(keyImage, Quote(r.Image))
	}
	if r.Date != "" {
		field(keyDate, Quote(r.Date))
	}
	for _, f := range r.Extra {
		if f.Key == "" {
			b.WriteString(inner)
			b.WriteString(f.Raw)
			b.WriteString(",\n")
			continue
		}
		field(propertyKey(f.Key), f.Raw)
	}
	if r.Body != "" {
		key := keyBody
		if r.bodyKey != "" {
			key = r.bodyKey
		}
		field(key, template(r.Body))
	}
	b.WriteString(indent)
	b.WriteString("}")
	return b.String()
}

// 📖 Decode parses a single object literal produced by Serialize or written by hand.
func Decode(span string) (Record, error) {
	s := scanner{src: span}
	at := s.skipTrivia(0)
	lit, err := ParseObject(span, at)
	if err != nil {
		return Record{}, err
	}
	if rest := s.skipTrivia(lit.Close + 1); rest != len(span) {
		return Record{}, syncerr.New(syncerr.KindStructural, "decode", "unexpected text after record at offset %d", rest)
	}
	return decodeObject(span, lit), nil
}

func decodeObject(src string, lit *Literal) Record {
	var r Record
	sawBody := false

	for _, item := range lit.Items {
		raw := item.Value.Text(src)
		if item.Value == item.Span {
			// spreads, shorthand properties and methods are kept whole
			r.Extra = append(r.Extra, Field{Raw: raw})
			continue
		}

		var target *string
		switch item.Key {
		case keyID:
			if numericLiteral(raw) {
				r.ID = raw
				r.numericID = true
				continue
			}
			target = &r.ID
		case keyTitle:
			target = &r.Title
		case keyDescription:
			target = &r.Description
		case keyCategory:
			target = &r.Category
		case keyImage:
			target = &r.Image
		case keyDate:
			target = &r.Date
		case keyBody:
			target = &r.Body
			sawBody = true
			r.bodyKey = ""
		case keyContent:
			if !sawBody {
				target = &r.Body
				r.bodyKey = keyContent
			}
		case keyTags:
			if tags, ok := decodeTags(raw); ok {
				r.Tags = tags
				continue
			}
		}

		if target != nil {
			if v, ok := unquote(raw); ok {
				*target = v
				continue
			}
		}
		r.Extra = append(r.Extra, Field{Key: item.Key, Raw: raw})
	}
	return r
}

// numericLiteral reports whether raw is a number literal such as 5, 1.5 or 0x1f.
func numericLiteral(raw string) bool {
	if raw == "" || !isDigit(raw[0]) {
		return false
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		lower := c | 0x20
		if !isDigit(c) && c != '.' && c != '_' && (lower < 'a' || lower > 'z') {
			return false
		}
	}
	return true
}

// ✅ Validate rejects records that cannot be written as source text.
func (r Record) Validate() error {
	const op = "validate record"
	if strings.TrimSpace(r.ID) == "" {
		return syncerr.Validation(op, "record id is empty")
	}
	fields := []struct{ key, value string }{
		{keyID, r.ID},
		{keyTitle, r.Title},
		{keyDescription, r.Description},
		{keyCategory, r.Category},
		{keyImage, r.Image},
		{keyDate, r.Date},
		{keyBody, r.Body},
	}
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return syncerr.Validation(op, "record %s is not valid UTF-8", f.key)
		}
	}
	for i, t := range r.Tags {
		if !utf8.ValidString(t) {
			return syncerr.Validation(op, "record tag %d is not valid UTF-8", i)
		}
	}
	return nil
}

func decodeTags(raw string) ([]string, bool) {
	if raw == "" || raw[0] != '[' {
		return nil, false
	}
	s := scanner{src: raw}
	end, err := s.skipBalanced(0)
	if err != nil || end != len(raw) {
		return nil, false
	}
	lit, err := s.parseEntries(0, ']')
	if err != nil {
		return nil, false
	}
	tags := make([]string, 0, len(lit.Items))
	for _, item := range lit.Items {
		v, ok := unquote(item.Value.Text(raw))
		if !ok {
			return nil, false
		}
		tags = append(tags, v)
	}
	return tags, true
}

// Quote renders s as a single-quoted string literal. Line terminators are
// escaped so the literal stays on one line. s must be valid UTF-8.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// template renders s as a template literal with no substitutions.
func template(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('`')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			b.WriteString(`\\`)
		case c == '`':
			b.WriteString("\\`")
		case c == '$' && i+1 < len(s) && s[i+1] == '{':
			b.WriteString(`\$`)
		case c == '\r':
			// template literals normalize raw CR to LF
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('`')
	return b.String()
}

func propertyKey(key string) string {
	if IsIdentifier(key) || strings.HasPrefix(key, "[") {
		return key
	}
	if _, err := strconv.ParseFloat(key, 64); err == nil {
		return key
	}
	return Quote(key)
}

// unquote decodes raw when it is exactly one string literal. Template
// literals with substitutions are not plain strings.
func unquote(raw string) (string, bool) {
	if len(raw) < 2 || !isQuote(raw[0]) {
		return "", false
	}
	end, err := scanner{src: raw}.skipString(0)
	if err != nil || end != len(raw) {
		return "", false
	}

	q := raw[0]
	body := raw[1 : len(raw)-1]
	var b strings.Builder
	b.Grow(len(body))

	for i := 0; i < len(body); {
		c := body[i]
		if q == '`' && c == '$' && i+1 < len(body) && body[i+1] == '{' {
			return "", false
		}
		if q == '`' && c == '\r' {
			// raw CR and CRLF in templates read as LF
			b.WriteByte('\n')
			i++
			if i < len(body) && body[i] == '\n' {
				i++
			}
			continue
		}
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}

		i++
		if i >= len(body) {
			return "", false
		}
		e := body[i]
		i++
		switch e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case '\r':
			if i < len(body) && body[i] == '\n' {
				i++
			}
		case 'x':
			if i+2 > len(body) {
				return "", false
			}
			n, err := strconv.ParseUint(body[i:i+2], 16, 8)
			if err != nil {
				return "", false
			}
			b.WriteRune(rune(n))
			i += 2
		case 'u':
			r, n, ok := unicodeEscape(body[i:])
			if !ok {
				return "", false
			}
			b.WriteRune(r)
			i += n
		default:
			// \\ \' \" \` \$ and any other escaped character stand for themselves
			r, size := utf8.DecodeRuneInString(body[i-1:])
			b.WriteRune(r)
			i += size - 1
		}
	}
	return b.String(), true
}

// unicodeEscape reads the part of a \u escape after the 'u'.
func unicodeEscape(s string) (rune, int, bool) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0, false
		}
		n, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || n > utf8.MaxRune {
			return 0, 0, false
		}
		return rune(n), end + 1, true
	}
	if len(s) < 4 {
		return 0, 0, false
	}
	n, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, 0, false
	}
	r := rune(n)
	// surrogate pair
	if utf16Surrogate(r) && len(s) >= 10 && s[4] == '\\' && s[5] == 'u' {
		lo, err := strconv.ParseUint(s[6:10], 16, 16)
		if err == nil {
			return decodeSurrogate(r, rune(lo)), 10, true
		}
	}
	return r, 4, true
}

func utf16Surrogate(r rune) bool {
	return r >= 0xd800 && r < 0xdc00
}

func decodeSurrogate(hi, lo rune) rune {
	if lo < 0xdc00 || lo >= 0xe000 {
		return utf8.RuneError
	}
	return (hi-0xd800)<<10 | (lo - 0xdc00) + 0x10000
}
