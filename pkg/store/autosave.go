package store

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/whiteboard/pkg/board"
)

// Autosave writes a board to a store whenever a commit changes its
// persisted form. It listens for board.EventChange; viewport and selection
// changes are saved too, since both are part of the document.
type Autosave struct {
	ctx    context.Context
	store  Store
	board  *board.Board
	id     string
	title  string
	logger *log.Logger
	stop   func()

	mu     sync.Mutex
	digest string
	saves  int
	err    error
}

// NewAutosave starts saving b under id. The context is used for every
// write; digest is the digest of the stored content, if known, so the first
// unchanged commit is skipped.
func NewAutosave(ctx context.Context, s Store, b *board.Board, id, title, digest string, logger *log.Logger) *Autosave {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a := &Autosave{ctx: ctx, store: s, board: b, id: id, title: title, digest: digest, logger: logger}
	a.stop = b.On(board.EventChange, func(board.Change) { a.save() })
	return a
}

func (a *Autosave) save() {
	content, err := json.Marshal(a.board)
	if err != nil {
		a.fail(err)
		return
	}
	digest := Digest(content)

	a.mu.Lock()
	defer a.mu.Unlock()
	if digest == a.digest {
		return
	}
	doc := &Document{ID: a.id, Title: a.title, Content: content}
	if err := a.store.Put(a.ctx, doc); err != nil {
		a.err = err
		a.logger.Warn("autosave failed", "id", a.id, "err", err)
		return
	}
	a.digest = doc.Digest
	a.saves++
	a.err = nil
}

func (a *Autosave) fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
	a.logger.Warn("autosave failed", "id", a.id, "err", err)
}

// Saves returns the number of writes performed.
func (a *Autosave) Saves() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves
}

// Err returns the error of the last failed write, cleared by the next
// successful one.
func (a *Autosave) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Stop unsubscribes from the board.
func (a *Autosave) Stop() { a.stop() }
