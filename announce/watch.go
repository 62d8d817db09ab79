package announce

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// reloadDelay lets an editor finish writing before the file is read.
const reloadDelay = 250 * time.Millisecond

// Watcher reloads a category when its file is changed outside the bot, for
// example by an operator editing the JSON by hand. Writes made by the store
// itself produce no change and are ignored.
type Watcher struct {
	store   *Store
	gateway *FileGateway
	log     zerolog.Logger
	delay   time.Duration

	mu     sync.Mutex
	timers map[Category]*time.Timer
	onLoad func(Category, bool, error)
}

func NewWatcher(store *Store, gateway *FileGateway, log zerolog.Logger) *Watcher {
	return &Watcher{
		store:   store,
		gateway: gateway,
		log:     log.With().Str("component", "watcher").Logger(),
		delay:   reloadDelay,
		timers:  make(map[Category]*time.Timer),
	}
}

// Run watches the data directory until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.gateway.Dir()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.gateway.Dir(), err)
	}
	w.log.Debug().Str("dir", w.gateway.Dir()).Msg("watching announcement files")

	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if c, ok := categoryForFile(ev.Name); ok {
				w.schedule(c)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func categoryForFile(name string) (Category, bool) {
	base := filepath.Base(name)
	for _, c := range Categories {
		if base == c.FileName() {
			return c, true
		}
	}
	return 0, false
}

func (w *Watcher) schedule(c Category) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[c]; ok {
		t.Stop()
	}
	w.timers[c] = time.AfterFunc(w.delay, func() { w.reload(c) })
}

func (w *Watcher) reload(c Category) {
	changed, err := w.store.Reload(c, func() ([]string, error) { return w.gateway.read(c) })
	switch {
	case err != nil:
		w.log.Warn().Err(err).Str("category", c.String()).Msg("ignoring unreadable announcements file")
	case changed:
		w.log.Info().Str("category", c.String()).Int("count", w.store.Len(c)).Msg("announcements reloaded from disk")
	}

	w.mu.Lock()
	fn := w.onLoad
	w.mu.Unlock()
	if fn != nil {
		fn(c, changed, err)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for c, t := range w.timers {
		t.Stop()
		delete(w.timers, c)
	}
}
