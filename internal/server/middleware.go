package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/observability"
)

// logRequests logs one line per request and reports it to the HTTP hooks.
// OnResponse receives the matched route pattern, not the raw path.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, elapsed)

		logf := s.logger.Debug
		if status >= http.StatusInternalServerError {
			logf = s.logger.Error
		}
		logf("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"took", elapsed.Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError classifies err and writes it as {"code", "error"}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	err = apperrors.Classify(err, errorRules...)
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, map[string]any{
		"code":  apperrors.GetCode(err),
		"error": apperrors.UserMessage(err),
	})
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "request body is required")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodySize))
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "request body is required")
		}
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	return nil
}

// boardLocks serializes read-modify-write cycles per board id.
type boardLocks struct {
	mu sync.Mutex
	m  map[string]*boardLock
}

type boardLock struct {
	sync.Mutex
	refs int
}

// lock acquires id's lock and returns its release function.
func (l *boardLocks) lock(id string) func() {
	l.mu.Lock()
	bl, ok := l.m[id]
	if !ok {
		bl = &boardLock{}
		l.m[id] = bl
	}
	bl.refs++
	l.mu.Unlock()

	bl.Lock()
	return func() {
		bl.Unlock()
		l.mu.Lock()
		bl.refs--
		if bl.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}
