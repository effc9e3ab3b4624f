package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Keith994/everyone-can-use-english/internal/domain"
	"github.com/Keith994/everyone-can-use-english/internal/service/batch"
	"github.com/Keith994/everyone-can-use-english/internal/service/pipeline"
)

type coordinator interface {
	Activate(ctx context.Context, storyID string)
	Snapshot() pipeline.Snapshot
	RefreshMeanings(ctx context.Context) (*domain.MeaningPage, error)
	ResolveLookup(ctx context.Context, lookupID string) error
	ToggleStar(ctx context.Context)
	Share(ctx context.Context) error
	TogglePanel() bool
}

type batchController interface {
	Start(ctx context.Context) bool
	Stop()
	State() batch.State
}

// PipelineHandler exposes the vocabulary pipeline over HTTP.
type PipelineHandler struct {
	pipeline coordinator
	batch    batchController
}

// NewPipelineHandler creates a PipelineHandler.
func NewPipelineHandler(p coordinator, b batchController) *PipelineHandler {
	return &PipelineHandler{pipeline: p, batch: b}
}

// Register mounts all pipeline routes on the mux.
func (h *PipelineHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/pipeline", h.GetState)
	mux.HandleFunc("POST /api/pipeline/story", h.ActivateStory)
	mux.HandleFunc("POST /api/pipeline/refresh", h.Refresh)
	mux.HandleFunc("POST /api/pipeline/star", h.ToggleStar)
	mux.HandleFunc("POST /api/pipeline/share", h.Share)
	mux.HandleFunc("POST /api/pipeline/panel", h.TogglePanel)
	mux.HandleFunc("POST /api/pipeline/lookups/{id}/resolve", h.ResolveLookup)
	mux.HandleFunc("POST /api/pipeline/batch/start", h.StartBatch)
	mux.HandleFunc("POST /api/pipeline/batch/stop", h.StopBatch)
}

// StateResponse is the JSON view of the pipeline and batch state.
type StateResponse struct {
	Status         string                  `json:"status"`
	Story          *StoryResponse          `json:"story,omitempty"`
	Meanings       []MeaningResponse       `json:"meanings"`
	PendingLookups []PendingLookupResponse `json:"pending_lookups"`
	Scanning       bool                    `json:"scanning"`
	Extracting     bool                    `json:"extracting"`
	PanelVisible   bool                    `json:"panel_visible"`
	BatchState     string                  `json:"batch_state"`
	LastError      string                  `json:"last_error,omitempty"`
}

// StoryResponse is the JSON view of the active story.
type StoryResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Extracted bool   `json:"extracted"`
	Starred   bool   `json:"starred"`
}

// MeaningResponse is the JSON view of a resolved meaning.
type MeaningResponse struct {
	ID          string `json:"id"`
	Word        string `json:"word"`
	Pos         string `json:"pos,omitempty"`
	Definition  string `json:"definition,omitempty"`
	Translation string `json:"translation,omitempty"`
}

// PendingLookupResponse is the JSON view of a queued lookup.
type PendingLookupResponse struct {
	ID      string `json:"id"`
	Word    string `json:"word"`
	Context string `json:"context"`
}

// GetState returns the current pipeline snapshot plus the batch state.
func (h *PipelineHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStateResponse(h.pipeline.Snapshot(), h.batch.State()))
}

// ActivateStory switches the pipeline to a new story.
func (h *PipelineHandler) ActivateStory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoryID string `json:"story_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StoryID == "" {
		writeError(w, http.StatusBadRequest, "story_id is required")
		return
	}

	h.pipeline.Activate(context.WithoutCancel(r.Context()), req.StoryID)
	writeJSON(w, http.StatusAccepted, toStateResponse(h.pipeline.Snapshot(), h.batch.State()))
}

// Refresh re-fetches the meanings page synchronously.
func (h *PipelineHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if _, err := h.pipeline.RefreshMeanings(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(h.pipeline.Snapshot(), h.batch.State()))
}

// ToggleStar flips the star on the active story.
func (h *PipelineHandler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	h.pipeline.ToggleStar(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusAccepted, toStateResponse(h.pipeline.Snapshot(), h.batch.State()))
}

// Share publishes the active story.
func (h *PipelineHandler) Share(w http.ResponseWriter, r *http.Request) {
	if err := h.pipeline.Share(r.Context()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no active story")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TogglePanel flips the vocabulary panel visibility.
func (h *PipelineHandler) TogglePanel(w http.ResponseWriter, r *http.Request) {
	visible := h.pipeline.TogglePanel()
	writeJSON(w, http.StatusOK, map[string]bool{"panel_visible": visible})
}

// ResolveLookup resolves one pending lookup synchronously.
func (h *PipelineHandler) ResolveLookup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.pipeline.ResolveLookup(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "lookup not found")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(h.pipeline.Snapshot(), h.batch.State()))
}

// StartBatch starts draining the lookup queue. 409 if already running.
func (h *PipelineHandler) StartBatch(w http.ResponseWriter, r *http.Request) {
	if !h.batch.Start(context.WithoutCancel(r.Context())) {
		writeError(w, http.StatusConflict, "batch already running")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"batch_state": string(h.batch.State())})
}

// StopBatch requests the running drain to stop after the current lookup.
func (h *PipelineHandler) StopBatch(w http.ResponseWriter, r *http.Request) {
	h.batch.Stop()
	writeJSON(w, http.StatusAccepted, map[string]string{"batch_state": string(h.batch.State())})
}

func toStateResponse(snap pipeline.Snapshot, bs batch.State) StateResponse {
	resp := StateResponse{
		Status:         string(snap.Status),
		Meanings:       make([]MeaningResponse, 0, len(snap.Meanings)),
		PendingLookups: make([]PendingLookupResponse, 0, len(snap.PendingLookups)),
		Scanning:       snap.Scanning,
		Extracting:     snap.Extracting,
		PanelVisible:   snap.PanelVisible,
		BatchState:     string(bs),
		LastError:      snap.LastError,
	}
	if snap.Story != nil {
		resp.Story = &StoryResponse{
			ID:        snap.Story.ID,
			Title:     snap.Story.Title,
			Extracted: snap.Story.HasExtraction(),
			Starred:   snap.Story.Starred,
		}
	}
	for _, m := range snap.Meanings {
		resp.Meanings = append(resp.Meanings, MeaningResponse{
			ID:          m.ID,
			Word:        m.Word,
			Pos:         m.Pos,
			Definition:  m.Definition,
			Translation: m.Translation,
		})
	}
	for _, pl := range snap.PendingLookups {
		resp.PendingLookups = append(resp.PendingLookups, PendingLookupResponse{
			ID:      pl.ID,
			Word:    pl.Word,
			Context: pl.Context,
		})
	}
	return resp
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
