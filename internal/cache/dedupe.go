package cache

import (
	"container/list"
	"sync"
	"time"
)

// Deduper remembers recently handled message ids so broker redeliveries are
// processed once within the TTL. At most maxSize ids are kept; the least
// recently marked is dropped first.
type Deduper struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	ids     map[string]*list.Element
	order   *list.List // front is the most recently marked
	now     func() time.Time
}

type mark struct {
	id        string
	expiresAt time.Time
}

func NewDeduper(maxSize int, ttl time.Duration) *Deduper {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Deduper{
		maxSize: maxSize,
		ttl:     ttl,
		ids:     make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// WithClock replaces the time source used for expiry.
func (d *Deduper) WithClock(now func() time.Time) *Deduper {
	d.now = now
	return d
}

// Seen reports whether id was marked within the TTL.
func (d *Deduper) Seen(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	elem, ok := d.ids[id]
	if !ok {
		return false
	}
	if d.now().After(elem.Value.(*mark).expiresAt) {
		d.remove(elem)
		return false
	}
	return true
}

// Mark records id as handled, refreshing its TTL if already present.
func (d *Deduper) Mark(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	expiresAt := d.now().Add(d.ttl)
	if elem, ok := d.ids[id]; ok {
		elem.Value.(*mark).expiresAt = expiresAt
		d.order.MoveToFront(elem)
		return
	}

	d.ids[id] = d.order.PushFront(&mark{id: id, expiresAt: expiresAt})
	if d.order.Len() > d.maxSize {
		d.remove(d.order.Back())
	}
}

// Forget drops id so a later delivery is processed again.
func (d *Deduper) Forget(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if elem, ok := d.ids[id]; ok {
		d.remove(elem)
	}
}

// Len returns the number of remembered ids, expired or not.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ids)
}

// CleanExpired implements Cleaner.
func (d *Deduper) CleanExpired() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	removed := 0
	for elem := d.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*mark).expiresAt) {
			d.remove(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (d *Deduper) remove(elem *list.Element) {
	delete(d.ids, elem.Value.(*mark).id)
	d.order.Remove(elem)
}
