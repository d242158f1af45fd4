package media

import (
	"fmt"
	"sync"
)

// SyncOptions controls Synchronize. Add decides whether an unmatched incoming
// item is inserted; nil inserts all. Remove decides whether an existing item
// absent from the incoming set is dropped; nil keeps everything. Update
// decides whether a matched existing item is merged; nil merges all matches.
// Merge copies metadata from the incoming item onto the existing one.
type SyncOptions struct {
	Add    func(incoming *Media) bool
	Remove func(existing *Media) bool
	Update func(existing, incoming *Media) bool
	Merge  func(existing, incoming *Media)
}

// Library is the in-memory index of tracked media, keyed by Media.Key.
// Mutations emit Change events to subscribed observers after the lock is
// released, so observers may read the library.
type Library struct {
	mu        sync.RWMutex
	items     map[string]*Media
	observers []Observer
}

func NewLibrary() *Library {
	return &Library{items: make(map[string]*Media)}
}

// Subscribe registers an observer for change events.
func (l *Library) Subscribe(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
}

func (l *Library) notify(changes ...Change) {
	l.mu.RLock()
	obs := make([]Observer, len(l.observers))
	copy(obs, l.observers)
	l.mu.RUnlock()

	for _, c := range changes {
		if c.Kind == ChangeNone {
			continue
		}
		for _, o := range obs {
			o(c)
		}
	}
}

// Get returns the item with the given key.
func (l *Library) Get(key string) (*Media, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.items[key]
	return m, ok
}

// Find locates the library item matching the probe, first by key and then by
// fuzzy identity, so an item seen with a different subset of catalog ids
// still resolves to the tracked one.
func (l *Library) Find(probe *Media) (*Media, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.find(probe)
}

func (l *Library) find(probe *Media) (*Media, bool) {
	if m, ok := l.items[probe.Key()]; ok {
		return m, true
	}
	for _, m := range l.items {
		if m.Same(probe) {
			return m, true
		}
	}
	return nil, false
}

// Add inserts an item if no matching one is tracked yet.
func (l *Library) Add(m *Media) Change {
	l.mu.Lock()
	if _, ok := l.find(m); ok {
		l.mu.Unlock()
		return Change{Media: m, Kind: ChangeNone}
	}
	l.items[m.Key()] = m
	l.mu.Unlock()

	c := Change{Media: m, Kind: ChangeAdded, OldState: m.State()}
	l.notify(c)
	return c
}

// Remove drops an item from the index.
func (l *Library) Remove(m *Media) Change {
	l.mu.Lock()
	got, ok := l.find(m)
	if !ok {
		l.mu.Unlock()
		return Change{Media: m, Kind: ChangeNone}
	}
	delete(l.items, got.Key())
	l.mu.Unlock()

	c := Change{Media: got, Kind: ChangeRemoved, OldState: got.State()}
	l.notify(c)
	return c
}

// All returns every tracked item.
func (l *Library) All() []*Media {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Media, 0, len(l.items))
	for _, m := range l.items {
		out = append(out, m)
	}
	return out
}

// Filter returns every item the predicate accepts.
func (l *Library) Filter(pred func(*Media) bool) []*Media {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*Media
	for _, m := range l.items {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}

// InState returns every item in one of the given states.
func (l *Library) InState(states ...State) []*Media {
	return l.Filter(func(m *Media) bool { return m.State().Is(states...) })
}

// ByMagnet returns the item whose selected magnet matches the link.
func (l *Library) ByMagnet(link string) (*Media, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, m := range l.items {
		if m.Magnet() != "" && m.Magnet() == link {
			return m, true
		}
	}
	return nil, false
}

// Len returns the number of tracked items.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Transition moves an item to a new state through edge validation and emits
// a state change event.
func (l *Library) Transition(m *Media, to State, internal bool) error {
	old := m.State()
	if err := m.Transition(to); err != nil {
		return fmt.Errorf("transition %s: %w", m, err)
	}
	l.notify(Change{Media: m, Kind: ChangeState, OldState: old, Internal: internal})
	return nil
}

// ForceState sets an item's state without edge validation and emits a state
// change event. Used when the catalog asserts a state on our behalf.
func (l *Library) ForceState(m *Media, to State, internal bool) {
	old := m.State()
	if old == to {
		return
	}
	m.ForceState(to)
	l.notify(Change{Media: m, Kind: ChangeState, OldState: old, Internal: internal})
}

// Restore loads a persisted snapshot without emitting events.
func (l *Library) Restore(items []*Media) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make(map[string]*Media, len(items))
	for _, m := range items {
		l.items[m.Key()] = m
	}
}

// Synchronize reconciles the library against an incoming set. Matched items
// are merged (subject to opts.Update), unmatched incoming items are added,
// and existing items absent from the set are removed when opts.Remove
// accepts them. Returned changes are also emitted to observers.
func (l *Library) Synchronize(incoming []*Media, opts SyncOptions) []Change {
	l.mu.Lock()

	var changes []Change
	seen := make(map[string]struct{}, len(incoming))

	for _, in := range incoming {
		if existing, ok := l.find(in); ok {
			seen[existing.Key()] = struct{}{}
			if opts.Update != nil && !opts.Update(existing, in) {
				continue
			}
			if opts.Merge != nil {
				oldKey, oldState := existing.Key(), existing.State()
				opts.Merge(existing, in)
				if newKey := existing.Key(); newKey != oldKey {
					delete(l.items, oldKey)
					l.items[newKey] = existing
					delete(seen, oldKey)
					seen[newKey] = struct{}{}
				}
				if existing.State() != oldState {
					changes = append(changes, Change{Media: existing, Kind: ChangeState, OldState: oldState})
				}
			}
			continue
		}
		if opts.Add != nil && !opts.Add(in) {
			continue
		}
		l.items[in.Key()] = in
		seen[in.Key()] = struct{}{}
		changes = append(changes, Change{Media: in, Kind: ChangeAdded, OldState: in.State()})
	}

	if opts.Remove != nil {
		for key, m := range l.items {
			if _, ok := seen[key]; ok {
				continue
			}
			if !opts.Remove(m) {
				continue
			}
			delete(l.items, key)
			changes = append(changes, Change{Media: m, Kind: ChangeRemoved, OldState: m.State()})
		}
	}

	l.mu.Unlock()
	l.notify(changes...)
	return changes
}
