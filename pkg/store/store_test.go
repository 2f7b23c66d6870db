package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/core/tree"
	apperrors "github.com/matzehuels/whiteboard/pkg/errors"
)

// backends returns a constructor per backend. The mongo backend only runs
// when WHITEBOARD_TEST_MONGO_URI is set.
func backends() map[string]func(t *testing.T) Backend {
	return map[string]func(t *testing.T) Backend{
		"memory": func(t *testing.T) Backend { return NewMemory() },
		"file": func(t *testing.T) Backend {
			b, err := NewFileBackend(t.TempDir())
			if err != nil {
				t.Fatalf("NewFileBackend: %v", err)
			}
			return b
		},
		"sqlite": func(t *testing.T) Backend {
			b, err := OpenSQLite(filepath.Join(t.TempDir(), "boards.db"))
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			return b
		},
		"redis": func(t *testing.T) Backend {
			mr := miniredis.RunT(t)
			b, err := NewRedis(context.Background(), "redis://"+mr.Addr(), "test:")
			if err != nil {
				t.Fatalf("NewRedis: %v", err)
			}
			return b
		},
		"mongo": func(t *testing.T) Backend {
			uri := os.Getenv("WHITEBOARD_TEST_MONGO_URI")
			if uri == "" {
				t.Skip("WHITEBOARD_TEST_MONGO_URI not set")
			}
			b, err := NewMongo(context.Background(), uri, fmt.Sprintf("whiteboard_test_%d", time.Now().UnixNano()))
			if err != nil {
				t.Fatalf("NewMongo: %v", err)
			}
			return b
		},
	}
}

func content(n int) json.RawMessage {
	els := make([]*tree.Element, n)
	for i := range els {
		els[i] = &tree.Element{ID: fmt.Sprintf("el-%d", i), Type: "geometry", Props: tree.Props{"x": float64(i * 10), "y": 0.0}}
	}
	data, err := json.Marshal(board.Data{Children: els, ViewPort: board.DefaultViewPort()})
	if err != nil {
		panic(err)
	}
	return data
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func TestBackends(t *testing.T) {
	for name, open := range backends() {
		for _, compress := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/compress=%v", name, compress), func(t *testing.T) {
				backend := open(t)
				s := New(backend, Codec{Compress: compress}, nil)
				defer s.Close()
				clk := &clock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
				s.now = clk.now
				testStore(t, s)
			})
		}
	}
}

func testStore(t *testing.T, s *Boards) {
	ctx := context.Background()

	if _, err := s.Get(ctx, "plan"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
	}

	big := content(40)
	doc := &Document{ID: "plan", Title: "Plan", Content: big}
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if doc.Digest != Digest(big) || doc.UpdatedAt.IsZero() {
		t.Errorf("Put set digest %q, updated %v", doc.Digest, doc.UpdatedAt)
	}
	first := doc.UpdatedAt

	got, err := s.Get(ctx, "plan")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Content) != string(big) {
		t.Errorf("content did not round-trip")
	}
	if got.Title != "Plan" || got.Digest != doc.Digest || !got.UpdatedAt.Equal(first) {
		t.Errorf("Get = %q %q %v, want Plan %q %v", got.Title, got.Digest, got.UpdatedAt, doc.Digest, first)
	}

	again := &Document{ID: "plan", Title: "Plan", Content: big}
	if err := s.Put(ctx, again); err != nil {
		t.Fatalf("Put(unchanged): %v", err)
	}
	if !again.UpdatedAt.Equal(first) {
		t.Errorf("unchanged Put rewrote the board: updated %v, want %v", again.UpdatedAt, first)
	}

	renamed := &Document{ID: "plan", Title: "Roadmap", Content: big}
	if err := s.Put(ctx, renamed); err != nil {
		t.Fatalf("Put(renamed): %v", err)
	}
	if !renamed.UpdatedAt.After(first) {
		t.Errorf("title change was not written")
	}

	if err := s.Put(ctx, &Document{ID: "alpha", Content: content(1)}); err != nil {
		t.Fatalf("Put(alpha): %v", err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "alpha" || list[1].ID != "plan" || list[1].Title != "Roadmap" {
		t.Errorf("List = %+v, want alpha, plan (Roadmap)", list)
	}
	if list[1].Size != len(big) {
		t.Errorf("Size = %d, want %d", list[1].Size, len(big))
	}

	if err := s.Delete(ctx, "plan"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "plan"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(again) err = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "plan"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(deleted) err = %v, want ErrNotFound", err)
	}
}

func TestPutValidates(t *testing.T) {
	s := New(NewMemory(), Codec{}, nil)
	ctx := context.Background()
	tests := []struct {
		name string
		doc  *Document
		code apperrors.Code
	}{
		{"EmptyID", &Document{Content: content(1)}, apperrors.ErrCodeInvalidInput},
		{"Traversal", &Document{ID: "../etc", Content: content(1)}, apperrors.ErrCodeInvalidInput},
		{"BadTitle", &Document{ID: "a", Title: "x\ny", Content: content(1)}, apperrors.ErrCodeInvalidInput},
		{"NotJSON", &Document{ID: "a", Content: json.RawMessage(`{"children":`)}, apperrors.ErrCodeInvalidFormat},
		{"DuplicateIDs", &Document{ID: "a", Content: json.RawMessage(`{"children":[{"id":"x","type":"t"},{"id":"x","type":"t"}]}`)}, apperrors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Put(ctx, tt.doc)
			if got := apperrors.GetCode(err); got != tt.code {
				t.Errorf("Put code = %s (%v), want %s", got, err, tt.code)
			}
		})
	}

	empty := &Document{ID: "empty"}
	if err := s.Put(ctx, empty); err != nil {
		t.Fatalf("Put(empty): %v", err)
	}
	if string(empty.Content) != `{"children":[]}` {
		t.Errorf("empty content = %s", empty.Content)
	}
}

func TestCodec(t *testing.T) {
	big := content(40)
	tests := []struct {
		name    string
		codec   Codec
		in      []byte
		want    Encoding
		smaller bool
	}{
		{"Plain", Codec{}, big, EncodingJSON, false},
		{"Compressed", Codec{Compress: true}, big, EncodingZstd, true},
		{"SmallStaysPlain", Codec{Compress: true}, []byte(`{"children":[]}`), EncodingJSON, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, enc, err := tt.codec.Encode(tt.in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if enc != tt.want {
				t.Errorf("encoding = %s, want %s", enc, tt.want)
			}
			if tt.smaller && len(data) >= len(tt.in) {
				t.Errorf("compressed %d bytes to %d", len(tt.in), len(data))
			}
			out, err := Codec{}.Decode(data, enc)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if string(out) != string(tt.in) {
				t.Error("content did not round-trip")
			}
		})
	}
	if _, err := (Codec{}).Decode([]byte("x"), "lz4"); err == nil {
		t.Error("Decode accepted an unknown encoding")
	}
}

func TestDigest(t *testing.T) {
	a := Digest([]byte(`{"children": [ ]}`))
	b := Digest([]byte(`{"children":[]}`))
	c := Digest([]byte(`{"children":[{"id":"a","type":"t"}]}`))
	if a != b {
		t.Error("whitespace changed the digest")
	}
	if a == c {
		t.Error("different content has the same digest")
	}
	if len(a) != len("blake3:")+64 {
		t.Errorf("digest %q has the wrong length", a)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mr := miniredis.RunT(t)
	tests := []struct {
		cfg     Config
		backend string
		code    apperrors.Code
	}{
		{Config{Dir: dir}, BackendFile, ""},
		{Config{Backend: BackendMemory}, BackendMemory, ""},
		{Config{Backend: BackendSQLite, Dir: dir}, BackendSQLite, ""},
		{Config{Backend: BackendRedis, RedisURL: "redis://" + mr.Addr()}, BackendRedis, ""},
		{Config{Backend: BackendRedis, RedisURL: "http://localhost"}, "", apperrors.ErrCodeInvalidInput},
		{Config{Backend: BackendMongo}, "", apperrors.ErrCodeInvalidInput},
		{Config{Backend: "etcd"}, "", apperrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		name := tt.cfg.Backend
		if name == "" {
			name = "default"
		}
		t.Run(name+"/"+string(tt.code), func(t *testing.T) {
			s, err := Open(ctx, tt.cfg, nil)
			if tt.code != "" {
				if got := apperrors.GetCode(err); got != tt.code {
					t.Fatalf("Open code = %s (%v), want %s", got, err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer s.Close()
			if got := s.Backend().Name(); got != tt.backend {
				t.Errorf("backend = %s, want %s", got, tt.backend)
			}
		})
	}
	if _, err := os.Stat(filepath.Join(dir, "whiteboard.db")); err != nil {
		t.Errorf("sqlite file not created in dir: %v", err)
	}
}

func TestLoadAndSave(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemory(), Codec{}, nil)

	b, err := board.New(board.WithData(board.Data{Children: []*tree.Element{{ID: "a", Type: "note"}}}))
	if err != nil {
		t.Fatalf("board.New: %v", err)
	}
	if _, err := Save(ctx, s, "notes", "Notes", b); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, doc, err := Load(ctx, s, "notes")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !tree.Equal(b.Root(), got.Root()) || doc.Title != "Notes" {
		t.Errorf("Load = %s, want the saved board", doc.Content)
	}
	if _, _, err := Load(ctx, s, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) err = %v, want ErrNotFound", err)
	}
}
