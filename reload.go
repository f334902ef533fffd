package assets

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloader re-runs the loads of files that change on disk.
//
// It watches the parent directory of every loaded file, since editors
// often replace a file instead of writing it in place. Events for one file
// are coalesced for the debounce interval. The reloader only ever spawns
// tasks; it never reads the table's records.
type reloader struct {
	watcher  *fsnotify.Watcher
	spawn    func(*task)
	debounce time.Duration

	mu     sync.Mutex
	files  map[string][]*task
	dirs   map[string]int
	byID   map[HandleID]string
	timers map[string]*time.Timer
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

func newReloader(spawn func(*task), debounce time.Duration) (*reloader, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("assets: hot reload: %w", err)
	}
	r := &reloader{
		watcher:  w,
		spawn:    spawn,
		debounce: debounce,
		files:    make(map[string][]*task),
		dirs:     make(map[string]int),
		byID:     make(map[HandleID]string),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	r.wg.Add(1)
	go r.loop()
	return r, nil
}

// watch re-spawns tk whenever tk.file changes.
func (r *reloader) watch(tk *task) error {
	file := filepath.Clean(tk.file)
	dir := filepath.Dir(file)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.dirs[dir] == 0 {
		if err := r.watcher.Add(dir); err != nil {
			return err
		}
	}
	r.dirs[dir]++
	r.files[file] = append(r.files[file], tk)
	r.byID[tk.id] = file
	return nil
}

// unwatch forgets the task loading id.
func (r *reloader) unwatch(id HandleID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)

	r.files[file] = slices.DeleteFunc(r.files[file], func(tk *task) bool { return tk.id == id })
	if len(r.files[file]) == 0 {
		delete(r.files, file)
		if timer, ok := r.timers[file]; ok {
			timer.Stop()
			delete(r.timers, file)
		}
	}

	dir := filepath.Dir(file)
	r.dirs[dir]--
	if r.dirs[dir] <= 0 {
		delete(r.dirs, dir)
		if !r.closed {
			if err := r.watcher.Remove(dir); err != nil {
				slogger().Debug("assets: unwatch", "dir", dir, "err", err)
			}
		}
	}
}

// watching returns the number of watched files.
func (r *reloader) watching() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}

func (r *reloader) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				r.changed(filepath.Clean(event.Name))
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			slogger().Warn("assets: watcher error", "err", err)
		}
	}
}

// changed restarts the debounce timer of file if it is watched.
func (r *reloader) changed(file string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || len(r.files[file]) == 0 {
		return
	}
	if timer, ok := r.timers[file]; ok {
		timer.Reset(r.debounce)
		return
	}
	r.timers[file] = time.AfterFunc(r.debounce, func() { r.fire(file) })
}

// fire re-spawns every task loading file.
func (r *reloader) fire(file string) {
	r.mu.Lock()
	delete(r.timers, file)
	pending := slices.Clone(r.files[file])
	closed := r.closed
	r.mu.Unlock()

	if closed {
		return
	}
	for _, tk := range pending {
		slogger().Debug("assets: reloading", "id", tk.id, "file", file)
		r.spawn(tk)
	}
}

// close stops watching. Pending reloads are dropped.
func (r *reloader) close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	for file, timer := range r.timers {
		timer.Stop()
		delete(r.timers, file)
	}
	r.mu.Unlock()

	close(r.done)
	err := r.watcher.Close()
	r.wg.Wait()
	return err
}
