// Package config loads build settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/swdunlop/offline-go/offline"
	"github.com/swdunlop/offline-go/offline/esbuild"
)

// DefaultPath is the file read when no configuration file is named.
const DefaultPath = `offline.yaml`

// A File describes a build.
type File struct {
	Base        string   `yaml:"base"`
	Outdir      string   `yaml:"outdir"`
	EntryPoints []string `yaml:"entryPoints"`
	HTML        string   `yaml:"html"`
	PublicPath  string   `yaml:"publicPath"`
	Minify      bool     `yaml:"minify"`
	External    []string `yaml:"external"`

	// Loader maps extensions to esbuild loader names, such as ".png: file".
	Loader map[string]string `yaml:"loader"`
}

// Default returns the settings used when there is no configuration file.
func Default() *File {
	return &File{Base: offline.DefaultBase, Outdir: `dist`}
}

// Load reads the named file over the defaults.  If path is empty, DefaultPath is read if it exists.
func Load(path string) (*File, error) {
	f := Default()
	optional := path == ``
	if optional {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case optional && errors.Is(err, fs.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, err
	}
	err = yaml.Unmarshal(data, f)
	if err != nil {
		return nil, fmt.Errorf(`%w while parsing %q`, err, path)
	}
	return f, nil
}

// Pipeline returns a pipeline that relativizes and finalizes using the configured base.
func (f *File) Pipeline() (*offline.Config, error) {
	return offline.New(offline.Base(f.Base), offline.Relative(), offline.Finalize())
}

// Options returns the esbuild options described by the file.
func (f *File) Options() ([]esbuild.Option, error) {
	pipeline, err := f.Pipeline()
	if err != nil {
		return nil, err
	}
	options := []esbuild.Option{
		esbuild.Pipeline(pipeline),
		esbuild.Output(f.Outdir),
		esbuild.EntryPoint(f.EntryPoints...),
		esbuild.Minify(f.Minify),
	}
	if f.HTML != `` {
		options = append(options, esbuild.HTML(f.HTML))
	}
	if f.PublicPath != `` {
		options = append(options, esbuild.PublicPath(f.PublicPath))
	}
	if len(f.External) > 0 {
		options = append(options, esbuild.External(f.External...))
	}
	exts := make([]string, 0, len(f.Loader))
	for ext := range f.Loader {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		loader, err := esbuild.ParseLoader(f.Loader[ext])
		if err != nil {
			return nil, fmt.Errorf(`%w for %q`, err, ext)
		}
		options = append(options, esbuild.Loader(ext, loader))
	}
	return options, nil
}
