// SPDX-License-Identifier: MIT

package badge

import (
	"context"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// Source serves badge definitions from a directory and keeps them current
// while an interactive session is running.
type Source struct {
	dir  string
	mu   sync.RWMutex
	defs []Definition
}

func NewSource(dir string) (*Source, error) {
	defs, err := LoadDefinitions(dir)
	if err != nil {
		return nil, err
	}

	return &Source{dir: dir, defs: defs}, nil
}

func (s *Source) Definitions() []Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.defs
}

// Watch reloads the directory whenever a definition file changes, until ctx is
// done. A reload that fails keeps the previously loaded set.
func (s *Source) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create definitions watcher")
	}
	if err = watcher.Add(s.dir); err != nil {
		_ = watcher.Close()

		return errors.Wrapf(err, "failed to watch definitions dir %q", s.dir)
	}
	go func() {
		defer func() {
			if cErr := watcher.Close(); cErr != nil {
				log.Printf("failed to close definitions watcher: %v", cErr)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				defs, lErr := LoadDefinitions(s.dir)
				if lErr != nil {
					log.Printf("failed to reload badge definitions from %q: %v", s.dir, lErr)

					continue
				}
				s.mu.Lock()
				s.defs = defs
				s.mu.Unlock()
			case wErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("definitions watcher error: %v", wErr)
			}
		}
	}()

	return nil
}
