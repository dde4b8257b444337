package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Code, KindOf(`assets/index-1234.js`))
	assert.Equal(t, Code, KindOf(`legacy.MJS`))
	assert.Equal(t, Code, KindOf(`worker.cjs`))
	assert.Equal(t, Asset, KindOf(`assets/index.css`))
	assert.Equal(t, Asset, KindOf(`assets/index.js.map`))
	assert.Equal(t, Asset, KindOf(`logo.png`))
	assert.Equal(t, `chunk`, Code.String())
	assert.Equal(t, `asset`, Asset.String())
}

func TestWriteAndLoad(t *testing.T) {
	dir := t.TempDir()
	b := make(Bundle)
	b.Add(`index.js`, []byte(`console.log("/logo.png")`))
	b.Add(filepath.Join(`assets`, `index.css`), []byte(`body{background:url(/bg.png)}`))
	require.NoError(t, b.Write(dir))

	data, err := os.ReadFile(filepath.Join(dir, `assets`, `index.css`))
	require.NoError(t, err)
	assert.Equal(t, `body{background:url(/bg.png)}`, string(data))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{`assets/index.css`, `index.js`}, loaded.Names())
	assert.Equal(t, Code, loaded[`index.js`].Kind)
	assert.Equal(t, Asset, loaded[`assets/index.css`].Kind)
	assert.Equal(t, `console.log("/logo.png")`, loaded[`index.js`].Text())
}

func TestLoadPatterns(t *testing.T) {
	dir := t.TempDir()
	b := make(Bundle)
	b.Add(`index.js`, []byte(`1`))
	b.Add(`assets/a.css`, []byte(`2`))
	b.Add(`assets/b.png`, []byte(`3`))
	require.NoError(t, b.Write(dir))

	loaded, err := Load(dir, `*.js`, `**.css`)
	require.NoError(t, err)
	assert.Equal(t, []string{`assets/a.css`, `index.js`}, loaded.Names())
}

func TestSetText(t *testing.T) {
	it := &Item{Kind: Code, Contents: []byte(`a`)}
	it.SetText(`b`)
	assert.Equal(t, `b`, it.Text())
}
