package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/boq-resolver/internal/model"
	"github.com/sells-group/boq-resolver/internal/pipeline"
	"github.com/sells-group/boq-resolver/internal/store"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// resolveRequest is the body of POST /v1/resolve. A missing database means
// the stored snapshot; an empty one is a valid empty snapshot.
type resolveRequest struct {
	Candidates   []model.Candidate      `json:"candidates"`
	Database     []model.MaterialRecord `json:"database"`
	Jurisdiction string                 `json:"jurisdiction"`
	Save         *bool                  `json:"save"`
}

// writeJSON encodes v before the status line goes out so an unencodable
// value becomes a 500 rather than a truncated 2xx.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if v != nil {
		if err := json.NewEncoder(&buf).Encode(v); err != nil {
			zap.L().Error("api: encode response", zap.Int("status", status), zap.Error(err))
			status = http.StatusInternalServerError
			buf.Reset()
			buf.WriteString(`{"error":"internal error"}` + "\n")
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Candidates == nil {
		req.Candidates = []model.Candidate{}
	}

	save := s.saveRuns
	if req.Save != nil {
		save = *req.Save
	}

	res, err := s.pipeline.Run(r.Context(), pipeline.Request{
		Jurisdiction: req.Jurisdiction,
		Candidates:   req.Candidates,
		Materials:    req.Database,
		Save:         save,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, model.ErrInvalidSnapshot), errors.Is(err, pipeline.ErrNoSnapshot):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zap.L().Error("api: resolve failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) jurisdictions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default":       s.pipeline.DefaultJurisdiction().Code,
		"jurisdictions": s.pipeline.Registry().All(),
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}

	q := r.URL.Query()
	filter := store.RunFilter{
		Status:       model.RunStatus(q.Get("status")),
		Jurisdiction: strings.ToUpper(strings.TrimSpace(q.Get("jurisdiction"))),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}

	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, run)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "run not found")
	default:
		zap.L().Error("api: get run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// intParam parses an optional non-negative integer query parameter.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}
