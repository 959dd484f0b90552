// Package overlay draws fire locations and the world outline on a
// mapview.Map, one layer type per rendering mode.
package overlay

import (
	"github.com/Zachdehooge/fire-map/internal/mapview"
)

type subscription struct {
	t  mapview.EventType
	id mapview.ListenerID
}

// binding tracks a layer's host map and its event subscriptions.
type binding struct {
	m    *mapview.Map
	subs []subscription
}

func (b *binding) bind(m *mapview.Map) error {
	if b.m != nil {
		return mapview.ErrAlreadyAttached
	}
	b.m = m
	return nil
}

func (b *binding) listen(t mapview.EventType, h mapview.Handler) {
	b.subs = append(b.subs, subscription{t: t, id: b.m.On(t, h)})
}

// release drops every subscription and returns the map the layer was bound
// to, or nil if it was not bound.
func (b *binding) release() *mapview.Map {
	m := b.m
	if m == nil {
		return nil
	}
	for _, s := range b.subs {
		m.Off(s.t, s.id)
	}
	b.subs = nil
	b.m = nil
	return m
}

func (b *binding) attached() bool { return b.m != nil }

// insert places s in the named pane, creating the pane at z if needed.
func insert(m *mapview.Map, pane string, z int, s mapview.Surface) *mapview.Pane {
	p := m.CreatePane(pane, z)
	p.Insert(s)
	return p
}
