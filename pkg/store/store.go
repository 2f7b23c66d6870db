// Package store persists whiteboard documents.
//
// A document is a board's persisted JSON (see [board.Data]) plus a title.
// The engine treats that content as an opaque blob; this package only
// validates that it parses before writing it.
//
// # Architecture
//
// [Boards] implements [Store] on top of a [Backend]. Backends move encoded
// records and know nothing about boards:
//   - memory: in-process map, for tests and the dev server
//   - file: one JSON envelope per board in a directory (CLI default)
//   - sqlite: a single database file
//   - redis: one hash per board plus an index set
//   - mongo: one document per board
//
// Boards adds what every backend shares: id validation, content digests
// (BLAKE3) so that unchanged content is never rewritten, optional zstd
// compression, and store hooks from pkg/observability.
//
// # Usage
//
//	s, err := store.Open(ctx, store.Config{Backend: "sqlite", SQLitePath: "boards.db"}, logger)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	err = s.Put(ctx, &store.Document{ID: "plan", Content: content})
//	doc, err := s.Get(ctx, "plan")
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/whiteboard/pkg/board"
	apperrors "github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/observability"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a board does not exist.
	ErrNotFound = errors.New("board not found")

	// ErrCorrupt is returned when a stored record cannot be decoded.
	ErrCorrupt = errors.New("corrupt board record")
)

// Document is one stored board.
type Document struct {
	ID      string          `json:"id"`
	Title   string          `json:"title,omitempty"`
	Content json.RawMessage `json:"content"`
	// Digest and UpdatedAt are set by the store.
	Digest    string    `json:"digest,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary describes a stored board without its content.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Digest    string    `json:"digest"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store reads and writes documents. Implementations are safe for concurrent
// use.
type Store interface {
	// Get returns the document with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Document, error)

	// Put creates or replaces a document. It sets doc.Digest and
	// doc.UpdatedAt. Writing content whose digest equals the stored one is
	// a no-op apart from a title change.
	Put(ctx context.Context, doc *Document) error

	// Delete removes a document, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns every stored board, ordered by id.
	List(ctx context.Context) ([]Summary, error)

	// Close releases the store's resources.
	Close() error
}

// Record is the encoded form of a document handled by backends.
type Record struct {
	ID        string
	Title     string
	Digest    string
	Encoding  Encoding
	Size      int // size of the decoded content
	Data      []byte
	UpdatedAt time.Time
}

// Summary returns r without its data.
func (r *Record) Summary() Summary {
	return Summary{ID: r.ID, Title: r.Title, Digest: r.Digest, Size: r.Size, UpdatedAt: r.UpdatedAt}
}

// Backend persists records. Load, Stat and Remove return ErrNotFound for
// missing ids.
type Backend interface {
	Name() string
	Load(ctx context.Context, id string) (*Record, error)
	Stat(ctx context.Context, id string) (Summary, error)
	Save(ctx context.Context, r *Record) error
	Remove(ctx context.Context, id string) error
	Scan(ctx context.Context) ([]Summary, error)
	Close() error
}

// Boards is the Store shared by all backends.
type Boards struct {
	backend Backend
	codec   Codec
	logger  *log.Logger
	now     func() time.Time
}

// New returns a store writing through backend.
func New(backend Backend, codec Codec, logger *log.Logger) *Boards {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Boards{backend: backend, codec: codec, logger: logger, now: time.Now}
}

// Backend returns the underlying backend.
func (s *Boards) Backend() Backend { return s.backend }

// Get implements Store.
func (s *Boards) Get(ctx context.Context, id string) (*Document, error) {
	if err := apperrors.ValidateBoardID(id); err != nil {
		return nil, err
	}
	start := time.Now()
	r, err := s.backend.Load(ctx, id)
	observability.Store().OnLoad(ctx, s.backend.Name(), err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}
	content, err := s.codec.Decode(r.Data, r.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, id, err)
	}
	return &Document{ID: r.ID, Title: r.Title, Content: content, Digest: r.Digest, UpdatedAt: r.UpdatedAt}, nil
}

// Put implements Store.
func (s *Boards) Put(ctx context.Context, doc *Document) error {
	if err := apperrors.ValidateBoardID(doc.ID); err != nil {
		return err
	}
	if err := apperrors.ValidateTitle(doc.Title); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		doc.Content = json.RawMessage(`{"children":[]}`)
	}
	if _, err := board.ParseData(doc.Content); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "board %s: invalid content", doc.ID)
	}

	start := time.Now()
	digest := Digest(doc.Content)
	prev, err := s.backend.Stat(ctx, doc.ID)
	switch {
	case err == nil && prev.Digest == digest && prev.Title == doc.Title:
		doc.Digest, doc.UpdatedAt = prev.Digest, prev.UpdatedAt
		observability.Store().OnSave(ctx, s.backend.Name(), len(doc.Content), true, time.Since(start), nil)
		s.logger.Debug("board unchanged", "id", doc.ID, "digest", digest)
		return nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return err
	}

	data, enc, err := s.codec.Encode(doc.Content)
	if err != nil {
		return err
	}
	r := &Record{
		ID:        doc.ID,
		Title:     doc.Title,
		Digest:    digest,
		Encoding:  enc,
		Size:      len(doc.Content),
		Data:      data,
		UpdatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	err = s.backend.Save(ctx, r)
	observability.Store().OnSave(ctx, s.backend.Name(), r.Size, false, time.Since(start), err)
	if err != nil {
		return err
	}
	doc.Digest, doc.UpdatedAt = r.Digest, r.UpdatedAt
	s.logger.Debug("saved board", "id", doc.ID, "backend", s.backend.Name(), "size", r.Size, "stored", len(data), "encoding", enc)
	return nil
}

// Delete implements Store.
func (s *Boards) Delete(ctx context.Context, id string) error {
	if err := apperrors.ValidateBoardID(id); err != nil {
		return err
	}
	return s.backend.Remove(ctx, id)
}

// List implements Store.
func (s *Boards) List(ctx context.Context) ([]Summary, error) {
	out, err := s.backend.Scan(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close implements Store.
func (s *Boards) Close() error { return s.backend.Close() }

// Ping checks the backend's connection. Backends without one always
// succeed.
func (s *Boards) Ping(ctx context.Context) error {
	if p, ok := s.backend.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

var _ Store = (*Boards)(nil)

// Load reads a board from s and opens it with the given options.
func Load(ctx context.Context, s Store, id string, opts ...board.Option) (*board.Board, *Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	b, err := Decode(doc, opts...)
	if err != nil {
		return nil, nil, err
	}
	return b, doc, nil
}

// Decode builds a board from doc's content. Content that does not parse as
// board data wraps ErrCorrupt.
func Decode(doc *Document, opts ...board.Option) (*board.Board, error) {
	data, err := board.ParseData(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, doc.ID, err)
	}
	return board.New(append([]board.Option{board.WithData(data)}, opts...)...)
}

// Save writes b's snapshot to s under id.
func Save(ctx context.Context, s Store, id, title string, b *board.Board) (*Document, error) {
	content, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode board %s: %w", id, err)
	}
	doc := &Document{ID: id, Title: title, Content: content}
	if err := s.Put(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
