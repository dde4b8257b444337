// Package htmlpost finalizes the HTML entry document of a build so that it loads the legacy bundle directly from
// the filesystem: module scripts and their preload hints are removed, the legacy fallback script loses its
// differential loading attributes, and local references are prefixed with a base path.
package htmlpost

import (
	"context"
	"fmt"
	"strings"

	"github.com/swdunlop/html-go/hog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// baseAttrs are the attributes of legacy scripts and crossorigin links that are prefixed with the base.
var baseAttrs = []string{`src`, `data-src`, `href`}

// New returns a finalizer that prefixes local references with base.  An empty base disables prefixing.
func New(base string) *Finalizer {
	return &Finalizer{base: base}
}

// A Finalizer implements hook.HTML.
type Finalizer struct {
	base string
}

// Name implements hook.Named.
func (fin *Finalizer) Name() string { return `htmlpost` }

// DependsOn implements hook.Dependent; the document is finalized after asset paths are relativized.
func (fin *Finalizer) DependsOn() []string { return []string{`relpath`} }

// TransformHTML parses the document, applies the finalization rules and renders it again.
func (fin *Finalizer) TransformHTML(ctx context.Context, text string) (string, error) {
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return ``, fmt.Errorf(`%w while parsing HTML`, err)
	}
	fin.Apply(ctx, doc)
	var buf strings.Builder
	err = html.Render(&buf, doc)
	if err != nil {
		return ``, fmt.Errorf(`%w while rendering HTML`, err)
	}
	return buf.String(), nil
}

// Apply finalizes a parsed document in place.
func (fin *Finalizer) Apply(ctx context.Context, doc *html.Node) {
	log := hog.From(ctx)

	modules := findAll(doc, func(n *html.Node) bool {
		return isElement(n, atom.Script) && attrIs(n, `type`, `module`)
	})
	for _, n := range modules {
		remove(n)
	}
	if len(modules) > 0 {
		log.Debug().Int(`count`, len(modules)).Msg(`removed module scripts`)
	}

	preload := findAll(doc, func(n *html.Node) bool {
		return isElement(n, atom.Link) && attrIs(n, `rel`, `modulepreload`)
	})
	if len(preload) > 0 {
		remove(preload[0])
	}

	legacy := findAll(doc, func(n *html.Node) bool {
		return isElement(n, atom.Script) && hasAttr(n, `nomodule`)
	})
	for _, n := range legacy {
		fin.strip(n)
	}

	crossorigin := findAll(doc, func(n *html.Node) bool {
		return isElement(n, atom.Link) && hasAttr(n, `crossorigin`)
	})
	for _, n := range crossorigin {
		fin.strip(n)
	}

	if fin.base == `` {
		return
	}
	links := findAll(doc, func(n *html.Node) bool {
		return isElement(n, atom.Link) && hasAttr(n, `href`) && !hasAttr(n, `crossorigin`)
	})
	for _, n := range links {
		fin.prefix(n, `href`)
	}
}

// strip removes the differential loading attributes from a node and prefixes its references.
func (fin *Finalizer) strip(n *html.Node) {
	removeAttr(n, `nomodule`)
	removeAttr(n, `crossorigin`)
	if fin.base == `` {
		return
	}
	for _, key := range baseAttrs {
		fin.prefix(n, key)
	}
}

func (fin *Finalizer) prefix(n *html.Node, key string) {
	value, ok := getAttr(n, key)
	if !ok || value == `` || strings.HasPrefix(value, `http`) || strings.HasPrefix(value, fin.base) {
		return
	}
	setAttr(n, key, CombinePath(fin.base, value))
}

// CombinePath joins path segments with a single slash between each pair.  Empty segments are ignored, a leading
// slash is removed from every segment but the first, and a trailing slash from every segment but the last.
func CombinePath(segments ...string) string {
	valid := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg != `` {
			valid = append(valid, seg)
		}
	}
	for i, seg := range valid {
		if i > 0 {
			seg = strings.TrimPrefix(seg, `/`)
		}
		if i < len(valid)-1 {
			seg = strings.TrimSuffix(seg, `/`)
		}
		valid[i] = seg
	}
	return strings.Join(valid, `/`)
}
