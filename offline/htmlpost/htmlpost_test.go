package htmlpost

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<link rel="icon" href="/favicon.ico">
<link rel="modulepreload" crossorigin href="/assets/vendor.js">
<link rel="modulepreload" href="/assets/other.js">
<link rel="stylesheet" crossorigin href="/assets/index.css">
<link rel="stylesheet" href="https://fonts.example.com/css">
<script type="module" crossorigin src="/assets/index.js"></script>
<script type="module">import.meta.url;</script>
</head>
<body>
<div id="root"></div>
<script nomodule>!function(){}();</script>
<script nomodule crossorigin id="vite-legacy-polyfill" src="/assets/polyfills-legacy.js"></script>
<script nomodule crossorigin id="vite-legacy-entry" data-src="/assets/index-legacy.js">System.import(document.getElementById('vite-legacy-entry').getAttribute('data-src'))</script>
</body>
</html>`

func TestCombinePath(t *testing.T) {
	assert.Equal(t, `base/x`, CombinePath(`base`, `/x`))
	assert.Equal(t, `base/x`, CombinePath(`base/`, `x`))
	assert.Equal(t, `base/x`, CombinePath(`base/`, `/x`))
	assert.Equal(t, `/a/b/c/`, CombinePath(`/a/`, `/b/`, `/c/`))
	assert.Equal(t, `a/b`, CombinePath(``, `a`, ``, `b`))
	assert.Equal(t, `./b.js`, CombinePath(`./`, `/b.js`))
	assert.Equal(t, `x`, CombinePath(`x`))
	assert.Equal(t, ``, CombinePath())
	assert.Equal(t, ``, CombinePath(``, ``))
}

func TestTransformHTMLSimple(t *testing.T) {
	in := `<script type="module" src="/a.js"></script><script nomodule src="/b.js" crossorigin></script>`
	out, err := New(`./`).TransformHTML(context.Background(), in)
	require.NoError(t, err)
	assert.NotContains(t, out, `type="module"`)
	assert.NotContains(t, out, `/a.js`)
	assert.NotContains(t, out, `nomodule`)
	assert.NotContains(t, out, `crossorigin`)
	assert.Contains(t, out, `<script src="./b.js"></script>`)
}

func TestTransformHTMLLegacyPage(t *testing.T) {
	out, err := New(`./`).TransformHTML(context.Background(), legacyPage)
	require.NoError(t, err)

	assert.NotContains(t, out, `type="module"`)
	assert.NotContains(t, out, `nomodule`)
	assert.NotContains(t, out, `crossorigin`)
	assert.NotContains(t, out, `/assets/index.js"`)

	// only the first modulepreload hint is removed
	assert.NotContains(t, out, `vendor.js`)
	assert.Contains(t, out, `<link rel="modulepreload" href="./assets/other.js"/>`)

	assert.Contains(t, out, `<link rel="icon" href="./favicon.ico"/>`)
	assert.Contains(t, out, `<link rel="stylesheet" href="./assets/index.css"/>`)
	assert.Contains(t, out, `<link rel="stylesheet" href="https://fonts.example.com/css"/>`)
	assert.Contains(t, out, `<script id="vite-legacy-polyfill" src="./assets/polyfills-legacy.js"></script>`)
	assert.Contains(t, out, `<script id="vite-legacy-entry" data-src="./assets/index-legacy.js">`)
	assert.Contains(t, out, `<script>!function(){}();</script>`)
	assert.Contains(t, out, `<!DOCTYPE html>`)
}

func TestTransformHTMLWithoutBase(t *testing.T) {
	out, err := New(``).TransformHTML(context.Background(), legacyPage)
	require.NoError(t, err)
	assert.NotContains(t, out, `type="module"`)
	assert.NotContains(t, out, `crossorigin`)
	assert.Contains(t, out, `<link rel="icon" href="/favicon.ico"/>`)
	assert.Contains(t, out, `<link rel="stylesheet" href="/assets/index.css"/>`)
	assert.Contains(t, out, `<script id="vite-legacy-polyfill" src="/assets/polyfills-legacy.js"></script>`)
}

func TestTransformHTMLExplicitBase(t *testing.T) {
	in := `<link href="/app/already.css"><link href="x.css"><script nomodule src="/b.js" href="http://x/y"></script>`
	out, err := New(`/app/`).TransformHTML(context.Background(), in)
	require.NoError(t, err)
	assert.Contains(t, out, `<link href="/app/already.css"/>`)
	assert.Contains(t, out, `<link href="/app/x.css"/>`)
	assert.Contains(t, out, `<script src="/app/b.js" href="http://x/y"></script>`)
}

func TestTransformHTMLNoMatches(t *testing.T) {
	in := `<html><head><title>t</title></head><body><p>hi</p></body></html>`
	out, err := New(`./`).TransformHTML(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTransformHTMLIdempotent(t *testing.T) {
	// a single preload hint, as emitted for a legacy build
	page := strings.Replace(legacyPage, "<link rel=\"modulepreload\" href=\"/assets/other.js\">\n", ``, 1)
	require.NotEqual(t, legacyPage, page)

	fin := New(`./`)
	once, err := fin.TransformHTML(context.Background(), page)
	require.NoError(t, err)
	twice, err := fin.TransformHTML(context.Background(), once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.NotContains(t, once, `modulepreload`)
}

func TestTransformHTMLRemovesOnePreloadPerPass(t *testing.T) {
	fin := New(`./`)
	once, err := fin.TransformHTML(context.Background(), legacyPage)
	require.NoError(t, err)
	assert.NotContains(t, once, `vendor.js`)
	assert.Contains(t, once, `<link rel="modulepreload" href="./assets/other.js"/>`)

	twice, err := fin.TransformHTML(context.Background(), once)
	require.NoError(t, err)
	assert.NotContains(t, twice, `modulepreload`)
	assert.Equal(t, strings.Replace(once, `<link rel="modulepreload" href="./assets/other.js"/>`, ``, 1), twice)
}

func TestHookIdentity(t *testing.T) {
	fin := New(`.`)
	assert.Equal(t, `htmlpost`, fin.Name())
	assert.Equal(t, []string{`relpath`}, fin.DependsOn())
}
