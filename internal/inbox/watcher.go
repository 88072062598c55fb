package inbox

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"workbench/internal/ingest"
)

// DefaultSettle is how long a file must stay quiet before it is picked up.
// Writers usually produce several events per file.
const DefaultSettle = 500 * time.Millisecond

// ImageHandler is called once per settled image file.
type ImageHandler func(path string)

// Watcher picks up image files dropped into a directory.
type Watcher struct {
	dir     string
	settle  time.Duration
	onImage ImageHandler
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]settleTimer
	seq     uint64
	closed  bool
	done    chan struct{}
}

// settleTimer is the current quiet-period timer of one file. seq tells a
// superseded timer that already fired apart from the current one.
type settleTimer struct {
	timer *time.Timer
	seq   uint64
}

// New starts watching dir, creating it if needed.
func New(dir string, settle time.Duration, onImage ImageHandler) (*Watcher, error) {
	if settle <= 0 {
		settle = DefaultSettle
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("inbox dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create inbox dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(abs); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}

	w := &Watcher{
		dir:     abs,
		settle:  settle,
		onImage: onImage,
		watcher: fw,
		pending: make(map[string]settleTimer),
		done:    make(chan struct{}),
	}
	go w.watchLoop()
	log.Printf("[Inbox] watching %s", abs)
	return w, nil
}

func (w *Watcher) Dir() string { return w.dir }

// Close stops the watcher and drops files that have not settled yet.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for p, t := range w.pending {
		t.timer.Stop()
		delete(w.pending, p)
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !ingest.IsImageFile(event.Name) {
				continue
			}
			absPath, _ := filepath.Abs(event.Name)
			w.schedule(absPath)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[Inbox] watcher error: %v", err)
		}
	}
}

// schedule restarts the settle timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.timer.Stop()
	}
	w.seq++
	seq := w.seq
	w.pending[path] = settleTimer{
		timer: time.AfterFunc(w.settle, func() { w.fire(path, seq) }),
		seq:   seq,
	}
}

// fire hands path to the handler if seq is still its current timer. A timer
// replaced after it fired does nothing; its successor picks the file up.
func (w *Watcher) fire(path string, seq uint64) {
	w.mu.Lock()
	t, ok := w.pending[path]
	if !ok || t.seq != seq || w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()

	log.Printf("[Inbox] picked up %s", filepath.Base(path))
	w.onImage(path)
}
