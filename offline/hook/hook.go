// Package hook defines the interfaces that an offline pipeline recognizes and will call at various stages of a
// build.  A single hook may implement any number of them.
package hook

import (
	"context"
	"sort"

	"github.com/swdunlop/offline-go/offline/bundle"
)

// Bundle hooks are called once the bundler has produced every output file and before they are written.  They mutate
// the bundle in place.
type Bundle interface {
	GenerateBundle(context.Context, bundle.Bundle) error
}

// Transform hooks are called for each source file as the bundler loads it.  If the hook returns false, the source is
// left to the next hook or to the bundler.
type Transform interface {
	Transform(code, id string) (string, bool)
}

// HTML hooks are called with the rendered HTML entry document and return its replacement.
type HTML interface {
	TransformHTML(ctx context.Context, html string) (string, error)
}

// Named hooks report a name used in logs and errors.
type Named interface {
	Name() string
}

// NameOf returns the name of a hook, or "anonymous" if it does not implement Named.
func NameOf(hook any) string {
	if named, ok := hook.(Named); ok {
		return named.Name()
	}
	return `anonymous`
}

// Order will return the provided hooks in the order they were provided with adjustments made so that all dependent
// hooks are run after their dependencies.  Note that cyclic dependencies will not produce an error, the order will
// simply be best effort.
func Order(hooks ...any) []any {
	dependencies := make(map[string][]int, len(hooks))
	for i, hook := range hooks {
		if dependency, ok := hook.(Provider); ok {
			for _, name := range dependency.Provides() {
				dependencies[name] = append(dependencies[name], i)
			}
		}
	}
	order := make([]any, 0, len(hooks))
	placed := make([]bool, len(hooks))
	var place func(int)
	place = func(i int) {
		if placed[i] {
			return
		}
		placed[i] = true
		if dependent, ok := hooks[i].(Dependent); ok {
			names := dependent.DependsOn()
			items := make([]int, 0, len(names))
			for _, name := range names {
				items = append(items, dependencies[name]...)
			}
			sort.Ints(items) // try to preserve the original order as much as possible
			for _, j := range items {
				place(j)
			}
		}
		order = append(order, hooks[i])
	}
	for i := range hooks {
		place(i)
	}
	return order
}

// A Provider provides a name so that it can be referenced by a Dependent.
type Provider interface {
	Provides() []string
}

// A Dependent hook will not be called until all of its dependencies have been called.
type Dependent interface {
	DependsOn() []string
}
