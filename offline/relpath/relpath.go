// Package relpath rewrites root-absolute asset references in bundler output into paths relative to a base, so that
// a build can be opened straight from the filesystem.
package relpath

import (
	"context"
	"regexp"
	"strings"

	"github.com/swdunlop/html-go/hog"
	"github.com/swdunlop/offline-go/offline/bundle"
)

// assetExtensions lists the extensions of quoted literals rewritten in code chunks.
var assetExtensions = []string{
	`png`, `jpg`, `jpeg`, `gif`, `svg`, `webp`, `ico`,
	`woff`, `woff2`, `ttf`, `eot`,
	`mp3`, `mp4`, `webm`, `pdf`,
}

// The closing quote is captured separately and compared with the opening quote by the scanner since RE2 has no
// backreferences.
var (
	rxCodeAsset = regexp.MustCompile("(?i)([\"'`])/([\\w\\-/.]+\\.(?:" + strings.Join(assetExtensions, `|`) + "))([\"'`])")
	rxCSSURL    = regexp.MustCompile("(?i)url\\(([\"'`]?)/([\\w\\-/.]+)([\"'`]?)\\)")
	rxCSSImport = regexp.MustCompile("(?i)@import\\s+([\"'`])/([\\w\\-/.]+)([\"'`])")
)

// New returns a relativizer for the given base.  An empty base is treated as ".".
func New(base string) *Relativizer {
	if base == `` {
		base = `.`
	}
	return &Relativizer{base: base}
}

// A Relativizer implements hook.Bundle and hook.Transform.
type Relativizer struct {
	base string
}

// Name implements hook.Named.
func (rel *Relativizer) Name() string { return `relpath` }

// Provides implements hook.Provider.
func (rel *Relativizer) Provides() []string { return []string{`relpath`} }

// Base returns the configured base.
func (rel *Relativizer) Base() string { return rel.base }

func (rel *Relativizer) prefix() string {
	if rel.base == `.` {
		return `./`
	}
	return rel.base + `/`
}

// GenerateBundle rewrites every code chunk and every stylesheet in the bundle.  It never fails.
func (rel *Relativizer) GenerateBundle(ctx context.Context, b bundle.Bundle) error {
	for _, name := range b.Names() {
		it := b[name]
		var text string
		switch {
		case it.Kind == bundle.Code:
			text = rel.RewriteCode(it.Text())
		case strings.HasSuffix(name, `.css`):
			text = rel.RewriteCSS(it.Text())
		default:
			continue
		}
		if text == it.Text() {
			continue
		}
		hog.From(ctx).Debug().Str(`file`, name).Stringer(`kind`, it.Kind).Msg(`relativized asset paths`)
		it.SetText(text)
	}
	return nil
}

// RewriteCode rewrites quoted root-absolute references to known asset types, such as "/assets/logo.png", so they
// are relative to the base.
func (rel *Relativizer) RewriteCode(code string) string {
	prefix := rel.prefix()
	return replaceQuoted(rxCodeAsset, code, func(quote, path string) string {
		return quote + prefix + path + quote
	})
}

// RewriteCSS rewrites root-absolute url() references and @import statements in a stylesheet so they are relative
// to the base.
func (rel *Relativizer) RewriteCSS(css string) string {
	prefix := rel.prefix()
	css = replaceQuoted(rxCSSURL, css, func(quote, path string) string {
		return `url(` + quote + prefix + path + quote + `)`
	})
	return replaceQuoted(rxCSSImport, css, func(quote, path string) string {
		return `@import ` + quote + prefix + path + quote
	})
}

// Transform implements hook.Transform for stylesheets, JSX and TSX sources.  Stylesheets have their root-absolute
// url() references normalized, which leaves them root-absolute; everything else is left to the bundler.
func (rel *Relativizer) Transform(code, id string) (string, bool) {
	if !strings.HasSuffix(id, `.css`) {
		return ``, false
	}
	return replaceQuoted(rxCSSURL, code, func(quote, path string) string {
		return `url(` + quote + `/` + path + quote + `)`
	}), true
}

// replaceQuoted replaces each match of rx in text with the result of fn.  The expression must have three groups:
// the opening quote, the path following the leading slash, and the closing quote.  Matches with mismatched quotes,
// protocol-relative paths ("//") or explicit http(s) protocols are skipped, and scanning resumes one byte after the
// start of the skipped match.
func replaceQuoted(rx *regexp.Regexp, text string, fn func(quote, path string) string) string {
	var buf strings.Builder
	done, pos := 0, 0
	for pos <= len(text) {
		loc := rx.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}
		quote := text[loc[2]:loc[3]]
		path := text[loc[4]:loc[5]]
		if quote != text[loc[6]:loc[7]] || !rootRelative(path) {
			pos = loc[0] + 1
			continue
		}
		buf.WriteString(text[done:loc[0]])
		buf.WriteString(fn(quote, path))
		done, pos = loc[1], loc[1]
	}
	if done == 0 {
		return text
	}
	buf.WriteString(text[done:])
	return buf.String()
}

// rootRelative reports whether a path that followed a leading slash is neither protocol relative nor an explicit
// http(s) URL.
func rootRelative(path string) bool {
	return !strings.HasPrefix(path, `/`) &&
		!strings.HasPrefix(path, `http://`) &&
		!strings.HasPrefix(path, `https://`)
}
