// Package watch reports changed topic input files in a directory.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before it is reported.
const DefaultDebounce = 200 * time.Millisecond

// ChangeKind describes the type of file change detected.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // input written or created
	ChangeRemoved                    // input deleted or renamed away
)

func (k ChangeKind) String() string {
	if k == ChangeRemoved {
		return "removed"
	}
	return "modified"
}

// Change is one settled change to a topic input.
type Change struct {
	Kind  ChangeKind
	Topic string
	File  string
}

// Watcher monitors a directory for topic file changes using fsnotify.
type Watcher struct {
	Dir     string
	Changes <-chan Change

	suffix   string
	debounce time.Duration
	changes  chan Change
	errs     chan error
	done     chan struct{}
	watcher  *fsnotify.Watcher
}

// New creates a watcher for files in dir ending in suffix.
func New(dir, suffix string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ch := make(chan Change, 16)
	return &Watcher{
		Dir:      dir,
		Changes:  ch,
		suffix:   suffix,
		debounce: debounce,
		changes:  ch,
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
		watcher:  fw,
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Errors reports watch errors. Only the first unread error is kept.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	_ = w.watcher.Close()
	<-w.done
	close(w.changes)
}

// Topic returns the topic name of an input file, or "" if the file is not
// a topic input.
func (w *Watcher) Topic(file string) string {
	base := filepath.Base(file)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, w.suffix) {
		return ""
	}
	return strings.TrimSuffix(base, w.suffix)
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emit(file)
				}
				return
			}
			if w.Topic(event.Name) == "" {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= w.debounce {
					w.emit(file)
					delete(pending, file)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

func (w *Watcher) emit(file string) {
	kind := ChangeModified
	if _, err := os.Stat(file); err != nil {
		kind = ChangeRemoved
	}
	w.changes <- Change{Kind: kind, Topic: w.Topic(file), File: file}
}
