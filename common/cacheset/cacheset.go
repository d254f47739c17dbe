// Package cacheset manages named in-process caches, the slots. Each plugin
// registers its slots at startup, lookups go through GetCustomFetch which
// fills the cache on misses, and cross process invalidation is done by the
// pubsub package calling Delete on the matching slot.
package cacheset

import (
	"fmt"
	"time"

	"github.com/karlseguin/ccache"
)

type Manager struct {
	slots      []*Slot
	defaultTTL time.Duration
}

func NewManager(defaultTTL time.Duration) *Manager {
	return &Manager{
		defaultTTL: defaultTTL,
	}
}

// RegisterSlot creates a named slot, newKey returns a fresh pointer to the
// slot's key type for unmarshaling eviction events. Only call during init.
func (m *Manager) RegisterSlot(name string, newKey func() interface{}, maxSize int64) *Slot {
	for _, v := range m.slots {
		if v.name == name {
			panic("cacheset: duplicate slot " + name)
		}
	}

	if maxSize < 1 {
		maxSize = 1000
	}

	slot := &Slot{
		name:   name,
		newKey: newKey,
		ttl:    m.defaultTTL,
		cache:  ccache.New(ccache.Configure().MaxSize(maxSize)),
	}

	m.slots = append(m.slots, slot)
	return slot
}

func (m *Manager) FindSlot(name string) *Slot {
	for _, v := range m.slots {
		if v.name == name {
			return v
		}
	}

	return nil
}

type Slot struct {
	name   string
	newKey func() interface{}
	ttl    time.Duration
	cache  *ccache.Cache
}

func (s *Slot) Name() string {
	return s.name
}

// NewKey returns a fresh zero key for this slot.
func (s *Slot) NewKey() interface{} {
	return s.newKey()
}

// Get returns the cached value for key, if present and not expired.
func (s *Slot) Get(key interface{}) (interface{}, bool) {
	item := s.cache.Get(keyString(key))
	if item == nil || item.Expired() {
		return nil, false
	}

	return item.Value(), true
}

// GetCustomFetch returns the cached value for key, calling fetch to fill the
// slot on a miss. Concurrent misses for the same key may call fetch more than
// once, the last one wins.
func (s *Slot) GetCustomFetch(key interface{}, fetch func(key interface{}) (interface{}, error)) (interface{}, error) {
	item, err := s.cache.Fetch(keyString(key), s.ttl, func() (interface{}, error) {
		return fetch(key)
	})

	if err != nil {
		return nil, err
	}

	return item.Value(), nil
}

// Set stores the value directly, mostly useful in tests.
func (s *Slot) Set(key interface{}, value interface{}) {
	s.cache.Set(keyString(key), value, s.ttl)
}

func (s *Slot) Delete(key interface{}) {
	s.cache.Delete(keyString(key))
}

func keyString(key interface{}) string {
	switch t := key.(type) {
	case string:
		return t
	case *string:
		return *t
	}

	// covers ints and pointer-to-int keys from eviction events
	return fmt.Sprintf("%v", dereference(key))
}

func dereference(key interface{}) interface{} {
	switch t := key.(type) {
	case *int64:
		return *t
	case *int:
		return *t
	}

	return key
}
