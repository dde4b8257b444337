// Package esbuild builds JavaScript applications with esbuild and runs the output through an offline pipeline
// before writing it, so the result can be opened from the filesystem.
package esbuild

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/gobwas/glob"
	"github.com/swdunlop/html-go/hog"
	"github.com/swdunlop/offline-go/offline"
	"github.com/swdunlop/offline-go/offline/watcher"
)

// Build runs a single build with the given options.
func Build(ctx context.Context, options ...Option) error {
	cfg, err := configure(ctx, options...)
	if err != nil {
		return err
	}
	ret := esbuild.Build(cfg.build)
	if len(ret.Errors) > 0 {
		return fmt.Errorf(`esbuild: build failed with %d errors`, len(ret.Errors))
	}
	return nil
}

// Watch builds with the given options and rebuilds whenever a source file or the HTML template changes, until the
// context is cancelled.
func Watch(ctx context.Context, options ...Option) error {
	cfg, err := configure(ctx, options...)
	if err != nil {
		return err
	}
	bctx, ctxErr := esbuild.Context(cfg.build)
	if ctxErr != nil {
		printErrors(ctxErr.Errors)
	}
	if ctxErr != nil && len(ctxErr.Errors) > 0 {
		return fmt.Errorf(`esbuild failed to start`)
	}
	defer bctx.Dispose()

	err = bctx.Watch(cfg.watch)
	if err != nil {
		return err
	}
	if cfg.html == `` {
		<-ctx.Done()
		return nil
	}

	wr, err := watcher.Start(
		watcher.Directory(filepath.Dir(cfg.html)),
		watcher.Shallow(),
		watcher.Include(glob.QuoteMeta(filepath.Clean(cfg.html))),
	)
	if err != nil {
		return err
	}
	defer wr.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case name := <-wr.Changes():
			hog.From(ctx).Info().Str(`file`, name).Msg(`HTML template changed, rebuilding`)
			ret := bctx.Rebuild()
			printErrors(ret.Errors)
		}
	}
}

// Option is a function that can manipulate the build configuration.
type Option func(*config)

type config struct {
	build    esbuild.BuildOptions
	watch    esbuild.WatchOptions
	html     string
	pipeline *offline.Config
}

func configure(ctx context.Context, options ...Option) (*config, error) {
	cfg := new(config)
	cfg.build.LogLevel = esbuild.LogLevelInfo
	cfg.build.Bundle = true
	for _, option := range options {
		option(cfg)
	}
	if cfg.build.Outdir == "" && cfg.build.Outfile == "" {
		return nil, fmt.Errorf(`esbuild: no output directory or file specified`)
	}
	if len(cfg.build.EntryPoints) == 0 {
		return nil, fmt.Errorf(`esbuild: no entry points specified`)
	}
	if cfg.pipeline == nil {
		var err error
		cfg.pipeline, err = offline.New(offline.Relative(), offline.Finalize())
		if err != nil {
			return nil, err
		}
	}
	if cfg.html != `` {
		src, err := filepath.Abs(cfg.html)
		if err != nil {
			return nil, err
		}
		dst, err := filepath.Abs(cfg.htmlOutput())
		if err != nil {
			return nil, err
		}
		if src == dst {
			return nil, fmt.Errorf(`esbuild: HTML template %q would be overwritten by the build`, cfg.html)
		}
	}
	// output is written by the pipeline once every hook has seen it.
	cfg.build.Write = false
	cfg.build.Plugins = append(cfg.build.Plugins, cfg.plugin(ctx))
	return cfg, nil
}

// outdir returns the directory that output file names are relative to.
func (cfg *config) outdir() string {
	dir := cfg.build.Outdir
	if dir == `` {
		dir = filepath.Dir(cfg.build.Outfile)
	}
	if !filepath.IsAbs(dir) && cfg.build.AbsWorkingDir != `` {
		dir = filepath.Join(cfg.build.AbsWorkingDir, dir)
	}
	return dir
}

func (cfg *config) htmlOutput() string {
	return filepath.Join(cfg.outdir(), filepath.Base(cfg.html))
}

func printErrors(errors []esbuild.Message) {
	var buf bytes.Buffer
	for i, err := range errors {
		if i == 0 {
			fmt.Fprintf(&buf, "!! esbuild: ")
		} else {
			fmt.Fprintf(&buf, "   esbuild: ")
		}
		fmt.Fprintf(&buf, "%s\n", strings.ReplaceAll(err.Text, "\n", "\n            "))
	}
	if buf.Len() > 0 {
		os.Stderr.Write(buf.Bytes())
	}
}

// Pipeline replaces the default pipeline, which relativizes and finalizes using the "." base.
func Pipeline(pipeline *offline.Config) Option {
	return func(cfg *config) {
		if pipeline != nil {
			cfg.pipeline = pipeline
		}
	}
}

// Output sets the output directory for the build.
func Output(outdir string) Option {
	return func(cfg *config) { cfg.build.Outdir = outdir }
}

// EntryPoint appends entry points to the esbuild build options.
func EntryPoint(entryPoints ...string) Option {
	return func(cfg *config) { cfg.build.EntryPoints = append(cfg.build.EntryPoints, entryPoints...) }
}

// Bundle configures esbuild to bundle the output if true, otherwise it will not bundle.
func Bundle(ok bool) Option {
	return func(cfg *config) { cfg.build.Bundle = ok }
}

// HTML names an HTML template that is finalized and written to the output directory after each build.
func HTML(template string) Option {
	return func(cfg *config) { cfg.html = template }
}

// PublicPath sets the prefix esbuild uses for references to files emitted by the file loader.  A prefix of "/" makes
// those references root-absolute, which the relativizer then rewrites.
func PublicPath(prefix string) Option {
	return func(cfg *config) { cfg.build.PublicPath = prefix }
}

// Loader sets the loader esbuild uses for files with the given extension, such as LoaderFile for ".png".
func Loader(ext string, loader esbuild.Loader) Option {
	return func(cfg *config) {
		if cfg.build.Loader == nil {
			cfg.build.Loader = make(map[string]esbuild.Loader)
		}
		cfg.build.Loader[ext] = loader
	}
}

var loaderNames = map[string]esbuild.Loader{
	`base64`:     esbuild.LoaderBase64,
	`binary`:     esbuild.LoaderBinary,
	`copy`:       esbuild.LoaderCopy,
	`css`:        esbuild.LoaderCSS,
	`dataurl`:    esbuild.LoaderDataURL,
	`default`:    esbuild.LoaderDefault,
	`empty`:      esbuild.LoaderEmpty,
	`file`:       esbuild.LoaderFile,
	`global-css`: esbuild.LoaderGlobalCSS,
	`js`:         esbuild.LoaderJS,
	`json`:       esbuild.LoaderJSON,
	`jsx`:        esbuild.LoaderJSX,
	`local-css`:  esbuild.LoaderLocalCSS,
	`text`:       esbuild.LoaderText,
	`ts`:         esbuild.LoaderTS,
	`tsx`:        esbuild.LoaderTSX,
}

// ParseLoader returns the loader with the name esbuild's command line uses for it, such as "file" or "dataurl".
func ParseLoader(name string) (esbuild.Loader, error) {
	loader, ok := loaderNames[name]
	if !ok {
		return esbuild.LoaderNone, fmt.Errorf(`esbuild: unknown loader %q`, name)
	}
	return loader, nil
}

// Minify enables or disables all of esbuild's minification.
func Minify(ok bool) Option {
	return func(cfg *config) {
		cfg.build.MinifyWhitespace = ok
		cfg.build.MinifyIdentifiers = ok
		cfg.build.MinifySyntax = ok
	}
}

// LogLevel sets esbuild's own logging level.
func LogLevel(level esbuild.LogLevel) Option {
	return func(cfg *config) { cfg.build.LogLevel = level }
}

// BuildOption manipulates the esbuild API build options structure.
// See https://esbuild.github.io/api for information on how to use esbuild options.
func BuildOption(fn func(*esbuild.BuildOptions)) Option {
	return func(cfg *config) { fn(&cfg.build) }
}

// WatchOption manipulates the esbuild API watch options structure.
// See https://esbuild.github.io/api for information on how to use esbuild options.
func WatchOption(fn func(*esbuild.WatchOptions)) Option {
	return func(cfg *config) { fn(&cfg.watch) }
}

// External marks paths that esbuild should leave alone instead of resolving, such as root-absolute assets copied
// into the output separately.
func External(patterns ...string) Option {
	return func(cfg *config) { cfg.build.External = append(cfg.build.External, patterns...) }
}
