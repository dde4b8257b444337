package offline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdunlop/offline-go/offline/bundle"
	"github.com/swdunlop/offline-go/offline/hook"
)

type failingHook struct{}

func (failingHook) Name() string { return `failing` }
func (failingHook) GenerateBundle(context.Context, bundle.Bundle) error {
	return errors.New(`boom`)
}
func (failingHook) TransformHTML(context.Context, string) (string, error) {
	return ``, errors.New(`bang`)
}

type upperHook struct{}

func (upperHook) Transform(code, id string) (string, bool) {
	if id != `a.css` {
		return ``, false
	}
	return code + `/*seen*/`, true
}

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, DefaultBase, cfg.Base())
	assert.Empty(t, cfg.Hooks())
}

func TestHookRejectsUnknown(t *testing.T) {
	_, err := New(Hook(42))
	assert.ErrorContains(t, err, `int does not implement`)
}

func TestFinalizerRunsAfterRelativizer(t *testing.T) {
	cfg, err := New(Base(`.`), Finalize(), Relative())
	require.NoError(t, err)
	hooks := cfg.Hooks()
	require.Len(t, hooks, 2)
	assert.Equal(t, `relpath`, hook.NameOf(hooks[0]))
	assert.Equal(t, `htmlpost`, hook.NameOf(hooks[1]))
}

func TestProcess(t *testing.T) {
	cfg, err := New(Base(`.`), Relative(), Finalize())
	require.NoError(t, err)

	b := make(bundle.Bundle)
	b.Add(`index.js`, []byte(`x="/logo.svg"`))
	b.Add(`index.css`, []byte(`@import "/a.css";`))
	require.NoError(t, cfg.Process(context.Background(), b))
	assert.Equal(t, `x="./logo.svg"`, b[`index.js`].Text())
	assert.Equal(t, `@import "./a.css";`, b[`index.css`].Text())
}

func TestProcessWrapsErrors(t *testing.T) {
	cfg, err := New(Hook(failingHook{}))
	require.NoError(t, err)
	err = cfg.Process(context.Background(), make(bundle.Bundle))
	assert.EqualError(t, err, `boom in failing`)

	_, err = cfg.Finalize(context.Background(), `<p></p>`)
	assert.EqualError(t, err, `bang in failing`)
}

func TestTransformFile(t *testing.T) {
	cfg, err := New(Relative(), Hook(upperHook{}))
	require.NoError(t, err)

	out, ok := cfg.TransformFile(`a{b:url(/x.png)}`, `a.css`)
	require.True(t, ok)
	assert.Equal(t, `a{b:url(/x.png)}/*seen*/`, out)

	_, ok = cfg.TransformFile(`export default 1`, `a.tsx`)
	assert.False(t, ok)
}

func TestFinalize(t *testing.T) {
	cfg, err := New(Base(`./`), Relative(), Finalize())
	require.NoError(t, err)
	out, err := cfg.Finalize(context.Background(),
		`<script type="module" src="/a.js"></script><script nomodule src="/b.js" crossorigin></script>`)
	require.NoError(t, err)
	assert.NotContains(t, out, `module`)
	assert.Contains(t, out, `<script src="./b.js"></script>`)
}
