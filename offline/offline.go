// Package offline manages a pipeline of hooks that post-process bundler output so that the build can be opened
// from the local filesystem without a web server.
//
// A pipeline is normally configured with both Relative and Finalize, sharing the same Base, and driven by the
// esbuild package.
package offline

import (
	"context"
	"fmt"

	"github.com/swdunlop/html-go/hog"
	"github.com/swdunlop/offline-go/offline/bundle"
	"github.com/swdunlop/offline-go/offline/hook"
	"github.com/swdunlop/offline-go/offline/htmlpost"
	"github.com/swdunlop/offline-go/offline/relpath"
)

// DefaultBase is the base used when none is configured.
const DefaultBase = `.`

// New returns a new pipeline configuration.
func New(options ...Option) (*Config, error) {
	cfg := &Config{base: DefaultBase}
	err := cfg.Apply(options...)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// A Config is a pipeline configuration.
type Config struct {
	base    string
	hooks   []any
	ordered []any // hooks after applying hook.Order, nil until first use
}

// An Option is a function that modifies a Config before it is used.
type Option func(*Config) error

// Base sets the base path shared by the relativizer and the finalizer.  It must be applied before Relative and
// Finalize.
func Base(base string) Option {
	return func(cfg *Config) error {
		cfg.base = base
		return nil
	}
}

// Relative registers the path relativizer using the configured base.
func Relative() Option {
	return func(cfg *Config) error {
		cfg.Hook(relpath.New(cfg.base))
		return nil
	}
}

// Finalize registers the HTML finalizer using the configured base.
func Finalize() Option {
	return func(cfg *Config) error {
		cfg.Hook(htmlpost.New(cfg.base))
		return nil
	}
}

// Hook returns an option that adds hooks to the pipeline, see the hook package for the interfaces they can
// implement.
func Hook(hooks ...any) Option {
	return func(cfg *Config) error {
		for _, it := range hooks {
			switch it.(type) {
			case hook.Bundle, hook.Transform, hook.HTML:
			default:
				return fmt.Errorf(`%T does not implement any pipeline hook`, it)
			}
		}
		cfg.Hook(hooks...)
		return nil
	}
}

// Apply applies the given options to the config.
func (cfg *Config) Apply(options ...Option) error {
	for _, option := range options {
		err := option(cfg)
		if err != nil {
			return err
		}
	}
	return nil
}

// Base returns the configured base path.
func (cfg *Config) Base() string { return cfg.base }

// Hook adds hooks to the configuration.  This is normally done by options.
func (cfg *Config) Hook(hooks ...any) {
	cfg.hooks = append(cfg.hooks, hooks...)
	cfg.ordered = nil
}

// Hooks returns the configured hooks in the order they will be called.
func (cfg *Config) Hooks() []any {
	if cfg.ordered == nil {
		cfg.ordered = hook.Order(cfg.hooks...)
	}
	return cfg.ordered
}

// Process calls every bundle hook with the bundle.
func (cfg *Config) Process(ctx context.Context, b bundle.Bundle) error {
	for _, it := range cfg.Hooks() {
		impl, ok := it.(hook.Bundle)
		if !ok {
			continue
		}
		err := impl.GenerateBundle(ctx, b)
		if err != nil {
			return fmt.Errorf(`%w in %v`, err, hook.NameOf(it))
		}
	}
	hog.From(ctx).Debug().Int(`files`, len(b)).Msg(`processed bundle`)
	return nil
}

// TransformFile calls the transform hooks with a source file, each seeing the output of the last hook that changed
// it.  It returns false if no hook handled the file.
func (cfg *Config) TransformFile(code, id string) (string, bool) {
	handled := false
	for _, it := range cfg.Hooks() {
		impl, ok := it.(hook.Transform)
		if !ok {
			continue
		}
		if out, ok := impl.Transform(code, id); ok {
			code, handled = out, true
		}
	}
	if !handled {
		return ``, false
	}
	return code, true
}

// Finalize calls every HTML hook with the document, returning the final text.
func (cfg *Config) Finalize(ctx context.Context, html string) (string, error) {
	for _, it := range cfg.Hooks() {
		impl, ok := it.(hook.HTML)
		if !ok {
			continue
		}
		var err error
		html, err = impl.TransformHTML(ctx, html)
		if err != nil {
			return ``, fmt.Errorf(`%w in %v`, err, hook.NameOf(it))
		}
	}
	return html, nil
}
