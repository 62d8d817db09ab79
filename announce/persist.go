package announce

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// PersistOp names the file operation a PersistEvent describes.
type PersistOp string

const (
	OpSave PersistOp = "save"
	OpLoad PersistOp = "load"
)

// PersistEvent is delivered to the gateway hook after every save or load.
// Err is nil on success. A missing file on load is not an error.
type PersistEvent struct {
	Op       PersistOp
	Category Category
	Path     string
	Count    int
	Err      error
}

// Persister reads and writes a category's list.
type Persister interface {
	Save(c Category, items []string)
	Load(c Category) []string
}

// FileGateway keeps each category in its own JSON file inside dir.
//
// Save never reports failure to its caller: the error is logged and handed
// to the hook, and the in-memory list keeps the mutation.
type FileGateway struct {
	dir  string
	log  zerolog.Logger
	hook func(PersistEvent)
}

func NewFileGateway(dir string, log zerolog.Logger) *FileGateway {
	if dir == "" {
		dir = "."
	}
	return &FileGateway{
		dir: dir,
		log: log.With().Str("component", "persist").Logger(),
	}
}

// OnEvent installs fn as the event hook. It is not safe to call concurrently
// with Save or Load.
func (g *FileGateway) OnEvent(fn func(PersistEvent)) {
	g.hook = fn
}

func (g *FileGateway) Dir() string {
	return g.dir
}

// Path returns the file that holds c.
func (g *FileGateway) Path(c Category) string {
	return filepath.Join(g.dir, c.FileName())
}

func (g *FileGateway) Save(c Category, items []string) {
	path := g.Path(c)
	err := writeList(path, items)
	if err != nil {
		g.log.Error().Err(err).Str("category", c.String()).Str("path", path).Msg("failed to save announcements")
	} else {
		g.log.Debug().Str("category", c.String()).Int("count", len(items)).Msg("announcements saved")
	}
	g.emit(PersistEvent{Op: OpSave, Category: c, Path: path, Count: len(items), Err: err})
}

func (g *FileGateway) Load(c Category) []string {
	items, err := g.read(c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			g.log.Debug().Str("category", c.String()).Msg("no announcements file, starting empty")
			err = nil
		} else {
			g.log.Warn().Err(err).Str("category", c.String()).Msg("failed to load announcements, starting empty")
		}
		items = []string{}
	}
	g.emit(PersistEvent{Op: OpLoad, Category: c, Path: g.Path(c), Count: len(items), Err: err})
	return items
}

// read is Load without the fallback to an empty list.
func (g *FileGateway) read(c Category) ([]string, error) {
	data, err := os.ReadFile(g.Path(c))
	if err != nil {
		return nil, err
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.FileName(), err)
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

func (g *FileGateway) emit(e PersistEvent) {
	if g.hook != nil {
		g.hook(e)
	}
}

func writeList(path string, items []string) error {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
