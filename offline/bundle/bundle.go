// Package bundle describes the set of output files produced by a single build, keyed by their path relative to the
// output directory.
package bundle

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// A Kind distinguishes executable chunks from every other output file.
type Kind int

const (
	// Asset items are anything that is not executable code, such as stylesheets, images and source maps.
	Asset Kind = iota
	// Code items contain JavaScript emitted by the bundler.
	Code
)

func (k Kind) String() string {
	if k == Code {
		return `chunk`
	}
	return `asset`
}

// An Item is a single output file.
type Item struct {
	Kind     Kind
	Contents []byte
}

// Text returns the contents of the item as a string.
func (it *Item) Text() string { return string(it.Contents) }

// SetText replaces the contents of the item.
func (it *Item) SetText(text string) { it.Contents = []byte(text) }

// A Bundle maps slash separated output names to their items.  Hooks mutate items in place and must not add or
// remove entries.
type Bundle map[string]*Item

// KindOf classifies an output name by its extension.
func KindOf(name string) Kind {
	switch strings.ToLower(path.Ext(name)) {
	case `.js`, `.mjs`, `.cjs`:
		return Code
	}
	return Asset
}

// Add adds an item for the given name, classifying it with KindOf.
func (b Bundle) Add(name string, contents []byte) *Item {
	it := &Item{Kind: KindOf(name), Contents: contents}
	b[filepath.ToSlash(name)] = it
	return it
}

// Names returns the names in the bundle in sorted order.
func (b Bundle) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads every regular file under dir into a new bundle.  If patterns are provided, only files whose slash
// separated relative name matches at least one of them are loaded.
func Load(dir string, patterns ...string) (Bundle, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf(`%w in %q`, err, pattern)
		}
		matchers = append(matchers, g)
	}

	b := make(Bundle)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchAny(matchers, rel) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		b.Add(rel, data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf(`%w while loading %q`, err, dir)
	}
	return b, nil
}

func matchAny(matchers []glob.Glob, name string) bool {
	if len(matchers) == 0 {
		return true
	}
	for _, g := range matchers {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Write writes every item in the bundle under dir, creating directories as needed.
func (b Bundle) Write(dir string) error {
	for _, name := range b.Names() {
		p := filepath.Join(dir, filepath.FromSlash(name))
		err := os.MkdirAll(filepath.Dir(p), 0o755)
		if err != nil {
			return err
		}
		err = os.WriteFile(p, b[name].Contents, 0o644)
		if err != nil {
			return fmt.Errorf(`%w while writing %q`, err, p)
		}
	}
	return nil
}
