// Package watcher reports changes to files under a set of directories, filtered by glob patterns.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Start a watcher with the provided options.
func Start(options ...Option) (Interface, error) {
	wr := &watcher{recursive: true}
	for _, option := range options {
		err := option(wr)
		if err != nil {
			return nil, err
		}
	}
	err := wr.start()
	if err != nil {
		return nil, err
	}
	return wr, nil
}

// An Option is a function that can manipulate a watcher during construction
type Option func(*watcher) error

// Include specifies one or more file patterns to include in the watch.
// If no patterns are specified, all files not starting with a dot are included.
func Include(patterns ...string) Option {
	return func(wr *watcher) (err error) {
		wr.includes, err = appendPatterns(wr.includes, patterns...)
		return
	}
}

// Exclude specifies one or more file patterns to exclude from the watch.
// If no patterns are specified, only files starting with a dot are excluded.
// If a file matches both an include and an exclude pattern, it is excluded.
func Exclude(patterns ...string) Option {
	return func(wr *watcher) (err error) {
		wr.excludes, err = appendPatterns(wr.excludes, patterns...)
		return
	}
}

func appendPatterns(seq []glob.Glob, patterns ...string) ([]glob.Glob, error) {
	for _, pattern := range patterns {
		rx, err := glob.Compile(pattern, filepath.Separator)
		if err != nil {
			return nil, fmt.Errorf(`%w in %q`, err, pattern)
		}
		seq = append(seq, rx)
	}
	return seq, nil
}

// Directory specifies one or more directories to watch.
// If no directories are specified, the current working directory is watched.
func Directory(paths ...string) Option {
	return func(wr *watcher) error {
		wr.directories = append(wr.directories, paths...)
		return nil
	}
}

// Shallow limits the watch to the listed directories, ignoring their subdirectories.
func Shallow() Option {
	return func(wr *watcher) error {
		wr.recursive = false
		return nil
	}
}

// Interface describes the watcher interface
type Interface interface {
	// Changes delivers the names of changed files.  Changes that occur while a name is pending are dropped.
	Changes() <-chan string
	Close()
}

type watcher struct {
	includes    []glob.Glob
	excludes    []glob.Glob
	directories []string
	recursive   bool

	fsnotify   *fsnotify.Watcher
	changeCh   chan string   // holds at most one pending change
	shutdownCh chan struct{} // closed when the watcher should shut down
	doneCh     chan struct{} // closed when the watcher is done
}

func (wr *watcher) start() (err error) {
	wr.fsnotify, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if len(wr.directories) == 0 {
		wr.directories = []string{`.`}
	}
	if len(wr.excludes) == 0 {
		wr.excludes = []glob.Glob{glob.MustCompile(`.*`, filepath.Separator)}
	}
	for _, dir := range wr.directories {
		err = wr.add(dir)
		if err != nil {
			wr.fsnotify.Close()
			return err
		}
	}
	wr.changeCh = make(chan string, 1)
	wr.shutdownCh = make(chan struct{})
	wr.doneCh = make(chan struct{})
	go wr.process()
	return nil
}

func (wr *watcher) add(dir string) error {
	if !wr.recursive {
		return wr.fsnotify.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return wr.fsnotify.Add(path)
		}
		return nil
	})
}

func (wr *watcher) Changes() <-chan string {
	return wr.changeCh
}

func (wr *watcher) Close() {
	select {
	case <-wr.shutdownCh:
	default:
		close(wr.shutdownCh)
	}
	<-wr.doneCh
}

func (wr *watcher) process() {
	defer close(wr.doneCh)
	defer wr.fsnotify.Close()
	for {
		select {
		case <-wr.shutdownCh:
			return
		case event, ok := <-wr.fsnotify.Events:
			if !ok {
				return
			}
			wr.processNotification(event)
		case _, ok := <-wr.fsnotify.Errors:
			if !ok {
				return
			}
		}
	}
}

func (wr *watcher) processNotification(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if wr.recursive {
				_ = wr.fsnotify.Add(event.Name)
			}
			return // creating a new directory is not a change, but we should watch it
		}
	}

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
		wr.notify(event.Name)
	case event.Has(fsnotify.Remove):
		_ = wr.fsnotify.Remove(event.Name)
		wr.notify(event.Name)
	}
}

func (wr *watcher) notify(name string) {
	if !wr.shouldInclude(name) {
		return
	}
	select {
	case wr.changeCh <- name:
	default:
	}
}

func (wr *watcher) shouldInclude(name string) bool {
	included := len(wr.includes) == 0
	for _, rx := range wr.includes {
		if rx.Match(name) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	base := filepath.Base(name)
	for _, rx := range wr.excludes {
		if rx.Match(base) {
			return false
		}
	}
	return true
}
