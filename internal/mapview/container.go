package mapview

import (
	"image"
	"sync"
)

// Container is the element a Map is mounted into.
type Container interface {
	Size() image.Point
	// Observe registers fn to be called after every size change. fn may be
	// called from any goroutine. The returned func stops observing.
	Observe(fn func()) (cancel func())
}

// Element is an in-memory Container whose size is set by its owner, the way
// a layout engine resizes a DOM node.
type Element struct {
	mu        sync.Mutex
	size      image.Point
	observers map[int]func()
	next      int
}

// NewElement creates an element of the given size.
func NewElement(width, height int) *Element {
	return &Element{size: image.Pt(width, height), observers: make(map[int]func())}
}

func (e *Element) Size() image.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.size
}

// Resize changes the size and notifies observers.
func (e *Element) Resize(width, height int) {
	e.mu.Lock()
	e.size = image.Pt(width, height)
	fns := make([]func(), 0, len(e.observers))
	for _, fn := range e.observers {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (e *Element) Observe(fn func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.next
	e.next++
	e.observers[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.observers, id)
	}
}

// Observers returns the number of registered observers.
func (e *Element) Observers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.observers)
}
