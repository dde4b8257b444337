package esbuild

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/swdunlop/html-go/hog"
	"github.com/swdunlop/offline-go/offline/bundle"
)

// plugin connects the pipeline's transform hooks to esbuild's loader, and its bundle and HTML hooks to the end of
// every build.
func (cfg *config) plugin(ctx context.Context) esbuild.Plugin {
	return esbuild.Plugin{
		Name: `offline`,
		Setup: func(build esbuild.PluginBuild) {
			build.OnLoad(esbuild.OnLoadOptions{Filter: `\.(css|jsx|tsx)$`, Namespace: `file`}, cfg.onLoad)
			build.OnEnd(func(result *esbuild.BuildResult) (esbuild.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return esbuild.OnEndResult{}, nil
				}
				err := cfg.finish(ctx, result)
				if err != nil {
					return esbuild.OnEndResult{Errors: []esbuild.Message{{Text: err.Error()}}}, nil
				}
				return esbuild.OnEndResult{}, nil
			})
		},
	}
}

func (cfg *config) onLoad(args esbuild.OnLoadArgs) (esbuild.OnLoadResult, error) {
	data, err := os.ReadFile(args.Path)
	if err != nil {
		return esbuild.OnLoadResult{}, err
	}
	code, ok := cfg.pipeline.TransformFile(string(data), args.Path)
	if !ok || code == string(data) {
		return esbuild.OnLoadResult{}, nil // let esbuild load it
	}
	return esbuild.OnLoadResult{
		Contents:   &code,
		ResolveDir: filepath.Dir(args.Path),
		Loader:     cfg.loaderFor(args.Path),
	}, nil
}

// loaderFor returns the loader configured for the longest extension of path, such as ".module.css" before ".css",
// or the default loader esbuild would pick for it.
func (cfg *config) loaderFor(path string) esbuild.Loader {
	base := filepath.Base(path)
	for i := strings.IndexByte(base, '.'); i >= 0; {
		if loader, ok := cfg.build.Loader[base[i:]]; ok {
			return loader
		}
		next := strings.IndexByte(base[i+1:], '.')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return esbuild.LoaderDefault
}

// finish runs the bundle hooks over the output files, writes them, then finalizes the HTML template.
func (cfg *config) finish(ctx context.Context, result *esbuild.BuildResult) error {
	outdir, err := filepath.Abs(cfg.outdir())
	if err != nil {
		return err
	}
	b := make(bundle.Bundle, len(result.OutputFiles))
	names := make([]string, len(result.OutputFiles))
	for i, file := range result.OutputFiles {
		name, err := filepath.Rel(outdir, file.Path)
		if err != nil {
			return err
		}
		names[i] = filepath.ToSlash(name)
		b.Add(names[i], file.Contents)
	}

	err = cfg.pipeline.Process(ctx, b)
	if err != nil {
		return err
	}
	for i := range result.OutputFiles {
		result.OutputFiles[i].Contents = b[names[i]].Contents
	}
	err = b.Write(outdir)
	if err != nil {
		return err
	}

	if cfg.html != `` {
		template, err := os.ReadFile(cfg.html)
		if err != nil {
			return err
		}
		html, err := cfg.pipeline.Finalize(ctx, string(template))
		if err != nil {
			return err
		}
		err = os.MkdirAll(outdir, 0o755)
		if err != nil {
			return err
		}
		err = os.WriteFile(cfg.htmlOutput(), []byte(html), 0o644)
		if err != nil {
			return err
		}
	}
	hog.From(ctx).Info().Str(`outdir`, outdir).Int(`files`, len(b)).Msg(`build written`)
	return nil
}
