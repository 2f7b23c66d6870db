package board

import (
	"github.com/matzehuels/whiteboard/pkg/core/op"
)

// EventKind names a board change notification.
type EventKind string

// Change notifications, named as the app's listeners know them.
const (
	EventValueChange     EventKind = "onValueChange"
	EventViewPortChange  EventKind = "onViewPortChange"
	EventSelectionChange EventKind = "onSelectionChange"
	EventChange          EventKind = "onChange"
)

// Change is passed to listeners.
type Change struct {
	Kind EventKind
	// Operation is the applied operation that caused the notification. For
	// EventChange it is the last operation of the commit.
	Operation op.Operation
	// Operations holds every operation of the commit. It is only set for
	// EventChange.
	Operations []op.Operation
}

// Listener receives change notifications.
type Listener func(Change)

type subscription struct {
	id int
	fn Listener
}

type listeners struct {
	next int
	subs map[EventKind][]subscription
}

// On registers l for changes of the given kind and returns a function that
// removes the registration. Calling it more than once is harmless.
func (b *Board) On(kind EventKind, l Listener) (unsubscribe func()) {
	ls := &b.listeners
	if ls.subs == nil {
		ls.subs = make(map[EventKind][]subscription)
	}
	ls.next++
	id := ls.next
	ls.subs[kind] = append(ls.subs[kind], subscription{id: id, fn: l})
	return func() {
		subs := ls.subs[kind]
		for i, s := range subs {
			if s.id == id {
				// Copy so an emit in progress keeps iterating the old slice.
				ls.subs[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

func (b *Board) emit(c Change) {
	// The slice is replaced, never modified in place, by On and unsubscribe.
	for _, s := range b.listeners.subs[c.Kind] {
		s.fn(c)
	}
}

func (b *Board) emitApplied(applied []op.Operation) {
	if len(applied) == 0 {
		return
	}
	for _, o := range applied {
		switch o.(type) {
		case op.SetViewport:
			b.emit(Change{Kind: EventViewPortChange, Operation: o})
		case op.SetSelection:
			b.emit(Change{Kind: EventSelectionChange, Operation: o})
		default:
			b.emit(Change{Kind: EventValueChange, Operation: o})
		}
	}
	b.emit(Change{Kind: EventChange, Operation: applied[len(applied)-1], Operations: applied})
}
