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

// Package manifest registers new content collections in the shared index module.
package manifest

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/walteh/contentsync/pkg/record"
	"github.com/walteh/contentsync/pkg/syncerr"
)

// Layout says where collection modules and the index live in a repository.
type Layout struct {
	DataDir       string `json:"data_dir" yaml:"data_dir" toml:"data_dir" hcl:"data_dir,optional"`
	ManifestPath  string `json:"manifest_path" yaml:"manifest_path" toml:"manifest_path" hcl:"manifest_path,optional"`
	RegistryName  string `json:"registry_name" yaml:"registry_name" toml:"registry_name" hcl:"registry_name,optional"`
	AggregateName string `json:"aggregate_name" yaml:"aggregate_name" toml:"aggregate_name" hcl:"aggregate_name,optional"`
}

// DefaultLayout matches the site generator's defaults.
func DefaultLayout() Layout {
	return Layout{
		DataDir:       "src/data/collections",
		ManifestPath:  "src/data/collections/index.js",
		RegistryName:  "registry",
		AggregateName: "collections",
	}
}

// WithDefaults fills empty fields from DefaultLayout.
func (l Layout) WithDefaults() Layout {
	d := DefaultLayout()
	if l.DataDir == "" {
		l.DataDir = d.DataDir
	}
	if l.ManifestPath == "" {
		l.ManifestPath = d.ManifestPath
	}
	if l.RegistryName == "" {
		l.RegistryName = d.RegistryName
	}
	if l.AggregateName == "" {
		l.AggregateName = d.AggregateName
	}
	return l
}

// Collection is everything derived from a collection's display name.
type Collection struct {
	Name       string
	Slug       string
	FileName   string
	Identifier string
	DataPath   string
}

var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true, "continue": true,
	"debugger": true, "default": true, "delete": true, "do": true, "else": true, "enum": true,
	"export": true, "extends": true, "false": true, "finally": true, "for": true, "function": true,
	"if": true, "import": true, "in": true, "instanceof": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true, "with": true,
	"yield": true, "let": true, "static": true, "await": true, "implements": true,
	"interface": true, "package": true, "private": true, "protected": true, "public": true,
}

// 🏷️ Derive computes the slug, file name and identifier for name.
// "Rust Basics" becomes rust-basics, rust-basics.js and rustBasics.
func Derive(name string, layout Layout) (Collection, error) {
	layout = layout.WithDefaults()
	if !utf8.ValidString(name) {
		return Collection{}, syncerr.Validation("derive", "collection name is not valid UTF-8")
	}
	slug := Slugify(name)
	if slug == "" {
		return Collection{}, syncerr.Validation("derive", "collection name %q has no letters or digits", name)
	}

	file := slug + ".js"
	return Collection{
		Name:       strings.TrimSpace(name),
		Slug:       slug,
		FileName:   file,
		Identifier: identifier(slug),
		DataPath:   path.Join(layout.DataDir, file),
	}, nil
}

// Slugify lowercases name and joins its ASCII letter and digit runs with hyphens.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

func identifier(slug string) string {
	parts := strings.Split(slug, "-")
	var b strings.Builder
	for i, p := range parts {
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	id := b.String()
	if id[0] >= '0' && id[0] <= '9' {
		id = "_" + id
	}
	if reserved[id] {
		id += "Collection"
	}
	return id
}

// DataFile returns the body of a new, empty collection module.
func DataFile(c Collection) string {
	return record.Empty(c.Identifier)
}

// Skeleton is the index written when the repository has none yet.
func Skeleton(layout Layout) string {
	layout = layout.WithDefaults()
	return "export const " + layout.RegistryName + " = {\n};\n\nexport const " + layout.AggregateName + " = [\n];\n"
}

// ImportPath is the specifier the index uses to import the collection module.
func ImportPath(c Collection, layout Layout) string {
	layout = layout.WithDefaults()
	rel := relative(path.Dir(layout.ManifestPath), c.DataPath)
	rel = strings.TrimSuffix(rel, ".js")
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

// relative is path.Rel for clean slash-separated repository paths.
func relative(base, target string) string {
	if base == "." {
		return target
	}
	b := strings.Split(base, "/")
	t := strings.Split(target, "/")
	i := 0
	for i < len(b) && i < len(t)-1 && b[i] == t[i] {
		i++
	}
	up := strings.Repeat("../", len(b)-i)
	return up + strings.Join(t[i:], "/")
}

// ImportLine is the statement registering the collection module.
func ImportLine(c Collection, layout Layout) string {
	return "import { " + c.Identifier + " } from " + record.Quote(ImportPath(c, layout)) + ";"
}

func registryEntry(c Collection) func(indent string) string {
	return func(indent string) string {
		return propertyKey(c.Slug) + ": { title: " + record.Quote(c.Name) + ", slug: " + record.Quote(c.Slug) + ", items: " + c.Identifier + " }"
	}
}

func aggregateEntry(c Collection) func(indent string) string {
	return func(indent string) string {
		return "{ slug: " + record.Quote(c.Slug) + ", items: " + c.Identifier + " }"
	}
}

// 📝 Register adds the import, registry entry and aggregate entry for c
// to the index text. Blank text starts from Skeleton.
func Register(indexText string, c Collection, layout Layout) (string, error) {
	layout = layout.WithDefaults()
	if strings.TrimSpace(indexText) == "" {
		indexText = Skeleton(layout)
	}

	state, err := inspect(indexText, c, layout)
	if err != nil {
		return "", err
	}
	if state.registered || state.listed || state.imported {
		return "", syncerr.Validation("register", "collection %q is already registered in %s", c.Slug, layout.ManifestPath)
	}

	edits := []record.Edit{
		state.registry.AppendEdit(indexText, registryEntry(c)),
		state.aggregate.AppendEdit(indexText, aggregateEntry(c)),
		importEdit(indexText, ImportLine(c, layout)),
	}
	out := record.Apply(indexText, edits...)

	after, err := inspect(out, c, layout)
	if err != nil {
		return "", syncerr.Wrap(syncerr.KindStructural, "register", err)
	}
	if !after.registered || !after.listed || !after.imported {
		return "", syncerr.New(syncerr.KindStructural, "register", "edited index does not register %q", c.Slug)
	}
	return out, nil
}

// Registered reports whether all three insertions for c are already present.
// A partial registration is a StructuralError.
func Registered(indexText string, c Collection, layout Layout) (bool, error) {
	layout = layout.WithDefaults()
	if strings.TrimSpace(indexText) == "" {
		return false, nil
	}
	state, err := inspect(indexText, c, layout)
	if err != nil {
		return false, err
	}
	switch {
	case state.registered && state.listed && state.imported:
		return true, nil
	case state.registered || state.listed || state.imported:
		return false, syncerr.New(syncerr.KindStructural, "registered",
			"collection %q is partly registered (registry: %t, aggregate: %t, import: %t)",
			c.Slug, state.registered, state.listed, state.imported)
	default:
		return false, nil
	}
}

type indexState struct {
	registry   *record.Literal
	aggregate  *record.Literal
	registered bool
	listed     bool
	imported   bool
}

func inspect(text string, c Collection, layout Layout) (*indexState, error) {
	registry, err := record.FindExport(text, layout.RegistryName, '{')
	if err != nil {
		return nil, err
	}
	aggregate, err := record.FindExport(text, layout.AggregateName, '[')
	if err != nil {
		return nil, err
	}

	st := &indexState{registry: registry, aggregate: aggregate}
	for _, item := range registry.Items {
		if item.Key == c.Slug {
			st.registered = true
		}
	}
	for _, item := range aggregate.Items {
		if mentions(item.Text(text), c) {
			st.listed = true
		}
	}
	for _, imp := range record.TopLevelImports(text) {
		if importsBinding(imp.Text(text), c.Identifier) {
			st.imported = true
		}
	}
	return st, nil
}

// mentions reports whether an aggregate entry refers to c by slug or identifier.
func mentions(entry string, c Collection) bool {
	if strings.Contains(entry, record.Quote(c.Slug)) || strings.Contains(entry, `"`+c.Slug+`"`) {
		return true
	}
	return containsWord(entry, c.Identifier)
}

func importsBinding(stmt, ident string) bool {
	open := strings.IndexByte(stmt, '{')
	end := strings.IndexByte(stmt, '}')
	if open >= 0 && end > open {
		for _, part := range strings.Split(stmt[open+1:end], ",") {
			fields := strings.Fields(part)
			if len(fields) == 0 {
				continue
			}
			// `a as b` binds b
			if fields[len(fields)-1] == ident {
				return true
			}
		}
		return false
	}
	return containsWord(stmt, ident)
}

func containsWord(s, word string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], word)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(word)
		if (start == 0 || !identByte(s[start-1])) && (end == len(s) || !identByte(s[end])) {
			return true
		}
		i = start + 1
	}
}

func identByte(c byte) bool {
	return c == '_' || c == '$' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func importEdit(text, line string) record.Edit {
	imports := record.TopLevelImports(text)
	if len(imports) > 0 {
		end := imports[len(imports)-1].End
		return record.Edit{Span: record.Span{Start: end, End: end}, Text: "\n" + line}
	}
	return record.Edit{Span: record.Span{Start: 0, End: 0}, Text: line + "\n\n"}
}

func propertyKey(key string) string {
	if record.IsIdentifier(key) {
		return key
	}
	return record.Quote(key)
}
