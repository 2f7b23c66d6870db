package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/whiteboard/pkg/board"
	"github.com/matzehuels/whiteboard/pkg/cache"
	"github.com/matzehuels/whiteboard/pkg/core/op"
	apperrors "github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/render"
	"github.com/matzehuels/whiteboard/pkg/store"
)

// fitPadding surrounds the content when render.svg is asked to fit.
const fitPadding = 20

type putRequest struct {
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
}

type operationsResponse struct {
	ID        string    `json:"id"`
	Digest    string    `json:"digest"`
	UpdatedAt time.Time `json:"updatedAt"`
	Applied   int       `json:"applied"`
	Dropped   []int     `json:"dropped"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	p, ok := s.store.(pinger)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		s.logger.Warn("store ping failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) listBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if boards == nil {
		boards = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"boards": boards})
}

func (s *Server) getBoard(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) putBoard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req putRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	unlock := s.locks.lock(id)
	defer unlock()

	doc := &store.Document{ID: id, Title: req.Title, Content: req.Content}
	if err := s.store.Put(r.Context(), doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, store.Summary{
		ID:        doc.ID,
		Title:     doc.Title,
		Digest:    doc.Digest,
		Size:      len(doc.Content),
		UpdatedAt: doc.UpdatedAt,
	})
}

func (s *Server) deleteBoard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) applyOperations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	ops, err := op.UnmarshalList(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	unlock := s.locks.lock(id)
	defer unlock()

	b, doc, err := s.openBoard(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer b.Destroy()

	res, err := b.ApplyBatch(ops)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	saved, err := store.Save(r.Context(), s.store, id, doc.Title, b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dropped := res.Dropped
	if dropped == nil {
		dropped = []int{}
	}
	s.logger.Debug("applied operations", "id", id, "ops", len(ops), "applied", len(res.Applied), "dropped", len(dropped))
	writeJSON(w, http.StatusOK, operationsResponse{
		ID:        id,
		Digest:    saved.Digest,
		UpdatedAt: saved.UpdatedAt,
		Applied:   len(res.Applied),
		Dropped:   dropped,
	})
}

func (s *Server) renderSVG(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := s.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	fit, _ := strconv.ParseBool(r.URL.Query().Get("fit"))
	bg := r.URL.Query().Get("background")
	key := cache.Key("svg", doc.Digest, fit, bg)

	data, hit, err := s.renders.Get(ctx, key)
	if err != nil {
		s.logger.Warn("render cache", "err", err)
	}
	if !hit {
		data, err = s.render(doc, fit, bg)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.renders.Set(ctx, key, data, s.renderTTL); err != nil {
			s.logger.Warn("render cache", "err", err)
		}
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("ETag", strconv.Quote(doc.Digest))
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) render(doc *store.Document, fit bool, background string) ([]byte, error) {
	b, err := store.Decode(doc, board.WithLogger(s.logger), board.WithPlugins(s.plugins()...))
	if err != nil {
		return nil, err
	}
	defer b.Destroy()

	var opts []render.SVGOption
	if fit {
		if bounds, ok := b.BBoxOf(b.Children()); ok {
			opts = append(opts, render.WithViewBox(b.ViewPort().Fit(bounds, fitPadding).Rect()))
		}
	}
	if background != "" {
		opts = append(opts, render.WithBackground(background))
	}
	return b.SVG(opts...), nil
}
