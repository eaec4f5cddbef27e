package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/spangrid/pkg/buildinfo"
	"github.com/matzehuels/spangrid/pkg/engine"
	"github.com/matzehuels/spangrid/pkg/errors"
	"github.com/matzehuels/spangrid/pkg/layout"
	"github.com/matzehuels/spangrid/pkg/manifest"
	"github.com/matzehuels/spangrid/pkg/observability"
	"github.com/matzehuels/spangrid/pkg/pipeline"
	"github.com/matzehuels/spangrid/pkg/session"
	"github.com/matzehuels/spangrid/pkg/storage"
)

// =============================================================================
// Request and Response Types
// =============================================================================

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string                  `json:"status"`
	Build  buildinfo.Info          `json:"build"`
	Stats  *observability.Snapshot `json:"stats,omitempty"`
}

// ManifestInput carries a manifest as a JSON object, as a string holding
// TOML, or as the built-in demo set.
type ManifestInput struct {
	Manifest json.RawMessage `json:"manifest,omitempty"`
	Demo     bool            `json:"demo,omitempty"`
}

// LayoutRequest is the body of POST /api/v1/layouts.
type LayoutRequest struct {
	ManifestInput
	Options pipeline.Options `json:"options"`
}

// LayoutResponse describes a stored layout and its artifacts. Artifacts are
// base64-encoded in JSON.
type LayoutResponse struct {
	ID        string            `json:"id"`
	Layout    *layout.Layout    `json:"layout"`
	Artifacts map[string][]byte `json:"artifacts"`
	Cached    bool              `json:"cached"`
}

// WindowRequest is the body of POST /api/v1/windows.
//
// With AnchorID set, a stored anchor under that ID is restored before the
// steps run and the final anchor is written back. Save without AnchorID
// stores the final anchor under a new ID.
type WindowRequest struct {
	ManifestInput
	Options  pipeline.Options `json:"options"`
	Steps    []string         `json:"steps"`
	AnchorID string           `json:"anchor_id,omitempty"`
	Save     bool             `json:"save,omitempty"`
}

// WindowResponse carries a simulation trace.
type WindowResponse struct {
	Trace    *pipeline.Trace `json:"trace"`
	AnchorID string          `json:"anchor_id,omitempty"`
	Restored bool            `json:"restored"`
	Cached   bool            `json:"cached"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Build: buildinfo.Get()}
	if s.cfg.Counters != nil {
		snap := s.cfg.Counters.Snapshot()
		resp.Stats = &snap
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := req.load()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := req.Options
	opts.Logger = s.logger
	result, err := s.runner.Execute(r.Context(), m, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc := storage.NewDocument(result.Layout)
	if err := s.docs.Save(r.Context(), doc); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, LayoutResponse{
		ID:        doc.ID,
		Layout:    result.Layout,
		Artifacts: result.Artifacts,
		Cached:    result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit,
	})
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docs.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	if err := s.docs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWindows(w http.ResponseWriter, r *http.Request) {
	var req WindowRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := req.load()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	steps, err := pipeline.ParseSteps(req.Steps)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	persist := req.AnchorID != "" || req.Save
	if persist && s.anchors == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "anchor storage is not configured"))
		return
	}

	ctx := r.Context()
	resp := WindowResponse{AnchorID: req.AnchorID}
	if req.AnchorID != "" {
		if err := errors.ValidateAnchorID(req.AnchorID); err != nil {
			s.writeError(w, r, err)
			return
		}
		a, err := s.anchors.Get(ctx, req.AnchorID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if a != nil {
			steps = restoreFirst(steps, a.Saved())
			resp.Restored = true
		}
	}
	if resp.AnchorID == "" && req.Save {
		resp.AnchorID = session.NewID()
	}

	opts := req.Options
	opts.Logger = s.logger
	// SaveAnchor requires stable order.
	opts.StableOrder = opts.StableOrder || persist

	trace, cached, err := s.runner.SimulateWithCacheInfo(ctx, m, opts, steps)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp.Trace = trace
	resp.Cached = cached

	if persist && trace.Anchor != nil {
		a := session.New(resp.AnchorID, m.Hash(), *trace.Anchor, s.cfg.AnchorTTL)
		if err := s.anchors.Set(ctx, a); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAnchor(w http.ResponseWriter, r *http.Request) {
	if s.anchors == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "anchor storage is not configured"))
		return
	}
	id := chi.URLParam(r, "id")
	if err := errors.ValidateAnchorID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.anchors.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if a == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeAnchorNotFound, "anchor not found: %s", id))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAnchor(w http.ResponseWriter, r *http.Request) {
	if s.anchors == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "anchor storage is not configured"))
		return
	}
	id := chi.URLParam(r, "id")
	if err := errors.ValidateAnchorID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.anchors.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

// load parses the manifest input.
func (in ManifestInput) load() (*manifest.Manifest, error) {
	if in.Demo {
		return manifest.Demo(), nil
	}
	raw := bytes.TrimSpace(in.Manifest)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "manifest is required (or set demo)")
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode manifest string")
		}
		return manifest.Parse([]byte(text), manifest.FormatTOML)
	}
	return manifest.Parse(raw, manifest.FormatJSON)
}

// restoreFirst makes a restore of saved the first step. A lone rebuild is
// replaced since the restore already rebuilds.
func restoreFirst(steps []pipeline.Step, saved engine.SavedState) []pipeline.Step {
	restore := pipeline.Step{Kind: pipeline.StepRestore, Arg: saved.FirstVisibleIndex, HasArg: true}
	if len(steps) == 1 && steps[0].Kind == pipeline.StepRebuild {
		return []pipeline.Step{restore}
	}
	return append([]pipeline.Step{restore}, steps...)
}

// decode reads a JSON body into v, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return false
	}
	return true
}

// statusOf maps error codes to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeUnsupported):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
		msg = "internal error"
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
