package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/swdunlop/html-go/hog"

	"github.com/swdunlop/offline-go/offline/config"
	"github.com/swdunlop/zugzug-go"
	"github.com/swdunlop/zugzug-go/zug/parser"
)

func init() {
	tasks = append(tasks, zugzug.Tasks{
		{Name: "relink", Use: "Rewrites an existing build directory in place so it can be opened without a web server",
			Fn: runRelink, Parser: parser.New(
				parser.String(&basePath, "base", "b", "The base path that references are made relative to"),
				parser.String(&htmlFile, "html", "H", "The HTML document in the directory to finalize (default: index.html)"),
			), Settings: zugzug.Settings{
				{Var: &envBase, Name: `OFFLINE_BASE`,
					Use: "Base path used when --base is not set"},
			}},
	}...)
}

func runRelink(ctx context.Context) error {
	args := parser.Args(ctx)
	if len(args) != 1 {
		return errors.New("expected exactly one build directory")
	}
	f := config.Default()
	if envBase != `` {
		f.Base = envBase
	}
	if basePath != `` {
		f.Base = basePath
	}
	if htmlFile == `` {
		_, err := os.Stat(filepath.Join(args[0], `index.html`))
		switch {
		case err == nil:
			htmlFile = `index.html`
		case errors.Is(err, os.ErrNotExist):
			hog.From(ctx).Info().Str(`dir`, args[0]).Msg(`no index.html, skipping HTML finalization`)
		default:
			return err
		}
	}
	pipeline, err := f.Pipeline()
	if err != nil {
		return err
	}
	return pipeline.Relink(ctx, args[0], htmlFile)
}
