package offline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/swdunlop/html-go/hog"
	"github.com/swdunlop/offline-go/offline/bundle"
)

// relinkPatterns selects the files of an output directory that bundle hooks can change.
var relinkPatterns = []string{`**.js`, `**.mjs`, `**.cjs`, `**.css`}

// Relink runs the pipeline over a directory that was built elsewhere, rewriting its chunks and stylesheets in place.
// If html is not empty, it names an HTML document relative to dir that is finalized in place; nothing is written
// if it cannot be read.  Relinking a directory
// twice has the same effect as relinking it once.
func (cfg *Config) Relink(ctx context.Context, dir, html string) error {
	var path string
	var data []byte
	if html != `` {
		path = filepath.Join(dir, html)
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return err
		}
	}

	b, err := bundle.Load(dir, relinkPatterns...)
	if err != nil {
		return err
	}
	before := make(map[string]string, len(b))
	for name, it := range b {
		before[name] = it.Text()
	}
	err = cfg.Process(ctx, b)
	if err != nil {
		return err
	}
	changed := make(bundle.Bundle)
	for name, it := range b {
		if it.Text() != before[name] {
			changed[name] = it
		}
	}
	err = changed.Write(dir)
	if err != nil {
		return err
	}
	hog.From(ctx).Info().Str(`dir`, dir).Int(`files`, len(b)).Int(`changed`, len(changed)).Msg(`relinked output`)

	if html == `` {
		return nil
	}
	text, err := cfg.Finalize(ctx, string(data))
	if err != nil {
		return fmt.Errorf(`%w while finalizing %q`, err, path)
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
