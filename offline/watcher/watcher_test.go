package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gobwas/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldInclude(t *testing.T) {
	wr := &watcher{}
	require.NoError(t, Include(`*.html`)(wr))
	require.NoError(t, Exclude(`.*`)(wr))
	assert.True(t, wr.shouldInclude(`index.html`))
	assert.False(t, wr.shouldInclude(`main.tsx`))
	assert.False(t, wr.shouldInclude(`.index.html`))
}

func TestShouldIncludeEverythingByDefault(t *testing.T) {
	wr := &watcher{}
	assert.True(t, wr.shouldInclude(`anything`))
}

func TestChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, `index.html`)
	require.NoError(t, os.WriteFile(path, []byte(`<p>1</p>`), 0o644))

	wr, err := Start(Directory(dir), Shallow(), Include(glob.QuoteMeta(path)))
	require.NoError(t, err)
	defer wr.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, `other.txt`), []byte(`x`), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(`<p>2</p>`), 0o644))
	select {
	case name := <-wr.Changes():
		assert.Equal(t, path, name)
	case <-time.After(5 * time.Second):
		t.Fatal(`no change observed`)
	}
}

func TestCloseTwice(t *testing.T) {
	wr, err := Start(Directory(t.TempDir()))
	require.NoError(t, err)
	wr.Close()
	wr.Close()
}
