package main

import (
	"context"
	"errors"

	"github.com/swdunlop/offline-go/offline/config"
	"github.com/swdunlop/offline-go/offline/esbuild"
	"github.com/swdunlop/zugzug-go"
	"github.com/swdunlop/zugzug-go/zug/parser"
)

func init() {
	tasks = append(tasks, zugzug.Tasks{
		{Name: "build", Use: "Builds entry points into a directory that can be opened without a web server",
			Fn: runBuild, Parser: parser.New(
				parser.String(&configFile, "config", "c", "The YAML build configuration (default: offline.yaml if present)"),
				parser.String(&outDir, "outdir", "o", "The output directory"),
				parser.String(&basePath, "base", "b", "The base path that references are made relative to"),
				parser.String(&htmlFile, "html", "H", "The HTML template to finalize into the output directory"),
			), Settings: buildSettings},
		{Name: "watch", Use: "Builds entry points and rebuilds them when they change",
			Fn: runWatch, Parser: parser.New(
				parser.String(&configFile, "config", "c", "The YAML build configuration (default: offline.yaml if present)"),
				parser.String(&outDir, "outdir", "o", "The output directory"),
				parser.String(&basePath, "base", "b", "The base path that references are made relative to"),
				parser.String(&htmlFile, "html", "H", "The HTML template to finalize into the output directory"),
			), Settings: buildSettings},
	}...)
}

var buildSettings = zugzug.Settings{
	{Var: &envBase, Name: `OFFLINE_BASE`,
		Use: "Base path used when neither the configuration nor --base set one"},
	{Var: &envOutDir, Name: `OFFLINE_OUTDIR`,
		Use: "Output directory used when neither the configuration nor --outdir set one"},
	{Var: &minify, Name: `OFFLINE_MINIFY`,
		Use: "Minifies the output"},
}

func runBuild(ctx context.Context) error {
	options, err := buildOptions(ctx)
	if err != nil {
		return err
	}
	return esbuild.Build(ctx, options...)
}

func runWatch(ctx context.Context) error {
	options, err := buildOptions(ctx)
	if err != nil {
		return err
	}
	return esbuild.Watch(ctx, options...)
}

// buildOptions merges the configuration file, the environment and the command line, in increasing precedence.
func buildOptions(ctx context.Context) ([]esbuild.Option, error) {
	f, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if envBase != `` {
		f.Base = envBase
	}
	if envOutDir != `` {
		f.Outdir = envOutDir
	}
	if minify {
		f.Minify = true
	}
	if basePath != `` {
		f.Base = basePath
	}
	if outDir != `` {
		f.Outdir = outDir
	}
	if htmlFile != `` {
		f.HTML = htmlFile
	}
	f.EntryPoints = append(f.EntryPoints, parser.Args(ctx)...)
	if len(f.EntryPoints) == 0 {
		return nil, errors.New("no entry points specified")
	}
	return f.Options()
}

var (
	configFile string
	outDir     string
	basePath   string
	htmlFile   string

	envBase   string
	envOutDir string
	minify    bool
)
