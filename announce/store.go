package announce

import (
	"math/rand/v2"
	"slices"
	"sync"
)

// Entry is an announcement together with its position in the list.
type Entry struct {
	Index int
	Text  string
}

// Section is the listing of one category.
type Section struct {
	Category Category
	Entries  []Entry
}

type list struct {
	mu    sync.Mutex
	items []string
}

// Store owns the morning and curfew lists. Each list has its own lock, held
// across the mutation and the file write that follows it.
type Store struct {
	lists   [categoryCount]*list
	persist Persister
	intn    func(n int) int
}

// NewStore loads both categories through p.
func NewStore(p Persister) *Store {
	s := &Store{
		persist: p,
		intn:    rand.IntN,
	}
	for _, c := range Categories {
		s.lists[c] = &list{items: p.Load(c)}
	}
	return s
}

// SetRandom replaces the source used by PickRandom. intn must return a value
// in [0, n).
func (s *Store) SetRandom(intn func(n int) int) {
	s.intn = intn
}

func (s *Store) list(c Category) *list {
	if !c.valid() {
		panic("announce: unknown category " + c.String())
	}
	return s.lists[c]
}

// Add appends text to c and returns its index.
func (s *Store) Add(c Category, text string) int {
	l := s.list(c)
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = append(l.items, text)
	s.persist.Save(c, l.items)
	return len(l.items) - 1
}

// Remove deletes and returns the entry at index.
func (s *Store) Remove(c Category, index int) (string, error) {
	l := s.list(c)
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.items) {
		return "", &OutOfBoundsError{Given: index, Max: len(l.items)}
	}
	removed := l.items[index]
	l.items = append(l.items[:index], l.items[index+1:]...)
	s.persist.Save(c, l.items)
	return removed, nil
}

// List returns the entries of c in order.
func (s *Store) List(c Category) []Entry {
	l := s.list(c)
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]Entry, len(l.items))
	for i, text := range l.items {
		entries[i] = Entry{Index: i, Text: text}
	}
	return entries
}

// ListAll returns morning then curfew, each indexed from zero.
func (s *Store) ListAll() []Section {
	sections := make([]Section, 0, categoryCount)
	for _, c := range Categories {
		sections = append(sections, Section{Category: c, Entries: s.List(c)})
	}
	return sections
}

func (s *Store) Len(c Category) int {
	l := s.list(c)
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// PickRandom returns a uniformly chosen entry of c, or false if c is empty.
func (s *Store) PickRandom(c Category) (string, bool) {
	l := s.list(c)
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.items) == 0 {
		return "", false
	}
	return l.items[s.intn(len(l.items))], true
}

// Reload replaces the in-memory list of c with what read returns, without
// writing the file back. read runs under the list lock so a concurrent Add or
// Remove cannot be lost. On error the list is kept.
func (s *Store) Reload(c Category, read func() ([]string, error)) (bool, error) {
	l := s.list(c)
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := read()
	if err != nil {
		return false, err
	}
	if slices.Equal(items, l.items) {
		return false, nil
	}
	l.items = append([]string(nil), items...)
	return true, nil
}
