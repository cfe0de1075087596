package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/ah-its-andy/docconvert/internal/format"
	"github.com/ah-its-andy/docconvert/internal/worker"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher observes the inbox directory and enqueues newly dropped files for
// conversion. Subdirectories created later are registered as they appear.
type Watcher struct {
	dir       string
	queue     *worker.Queue
	stability time.Duration
	w         *fsnotify.Watcher
	log       *zap.SugaredLogger
}

func New(dir string, queue *worker.Queue, stability time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{dir: dir, queue: queue, stability: stability, w: w, log: log}, nil
}

func (wr *Watcher) Start(ctx context.Context) error {
	if err := wr.registerAll(wr.dir); err != nil {
		return err
	}
	wr.log.Infow("inbox watcher started", "dir", wr.dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-wr.w.Events:
			if !ok {
				return nil
			}
			wr.handleEvent(ev)
		case err, ok := <-wr.w.Errors:
			if !ok {
				return nil
			}
			wr.log.Warnw("watcher error", "error", err)
		}
	}
}

func (wr *Watcher) Close() error { return wr.w.Close() }

func (wr *Watcher) registerAll(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			_ = wr.w.Add(path)
		}
		return nil
	})
}

func (wr *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = wr.registerAll(ev.Name)
			return
		}
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if _, err := format.Resolve(filepath.Ext(ev.Name)); err != nil {
		return
	}
	go func(path string) {
		// let the writer finish before enqueueing
		waitStable(path, wr.stability)
		if wr.queue.Offer(path) {
			wr.log.Infow("inbox file enqueued", "path", path)
		}
	}(ev.Name)
}

// waitStable returns once the file size stops changing between probes.
func waitStable(path string, delay time.Duration) {
	var lastSize int64 = -1
	for i := 0; i < 5; i++ {
		fi, err := os.Stat(path)
		if err != nil {
			return
		}
		if fi.Size() == lastSize {
			return
		}
		lastSize = fi.Size()
		time.Sleep(delay)
	}
}
