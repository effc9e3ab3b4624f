//go:build e2e

package e2e_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Keith994/everyone-can-use-english/internal/adapter/ai"
	"github.com/Keith994/everyone-can-use-english/internal/adapter/storeapi"
	"github.com/Keith994/everyone-can-use-english/internal/config"
	"github.com/Keith994/everyone-can-use-english/internal/service/batch"
	"github.com/Keith994/everyone-can-use-english/internal/service/extraction"
	"github.com/Keith994/everyone-can-use-english/internal/service/lookup"
	"github.com/Keith994/everyone-can-use-english/internal/service/pipeline"
	"github.com/Keith994/everyone-can-use-english/internal/textindex"
	"github.com/Keith994/everyone-can-use-english/internal/transport/middleware"
	"github.com/Keith994/everyone-can-use-english/internal/transport/rest"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory stand-in for the upstream data store. It
// serves the subset of the store API the pipeline talks to and records
// mutations for assertions.
type fakeStore struct {
	mu sync.Mutex

	stories  map[string]storyDoc
	meanings map[string][]meaningDoc
	pending  map[string][]pendingDoc
	starred  map[string]bool
	posts    []string

	nextLookupID int
}

type storyDoc struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Words   []string `json:"-"`
	Idioms  []string `json:"-"`
}

type meaningDoc struct {
	ID   string `json:"id"`
	Word string `json:"word"`
}

type pendingDoc struct {
	ID         string `json:"id"`
	Word       string `json:"word"`
	Context    string `json:"context"`
	SourceID   string `json:"source_id"`
	SourceType string `json:"source_type"`
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		stories:      map[string]storyDoc{},
		meanings:     map[string][]meaningDoc{},
		pending:      map[string][]pendingDoc{},
		starred:      map[string]bool{},
		nextLookupID: 1,
	}
}

func (f *fakeStore) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /api/stories/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		s, ok := f.stories[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		extracted := len(s.Words) > 0 || len(s.Idioms) > 0
		body := map[string]any{
			"id":        s.ID,
			"title":     s.Title,
			"content":   s.Content,
			"extracted": extracted,
			"starred":   f.starred[s.ID],
		}
		if extracted {
			body["extraction"] = map[string]any{"words": s.Words, "idioms": s.Idioms}
		}
		writeDoc(w, body)
	})

	mux.HandleFunc("GET /api/stories/{id}/meanings", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		writeDoc(w, map[string]any{
			"meanings":        orEmptyMeanings(f.meanings[id]),
			"pending_lookups": orEmptyPending(f.pending[id]),
		})
	})

	mux.HandleFunc("POST /api/lookups/batch", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Lookups []pendingDoc `json:"lookups"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, l := range req.Lookups {
			l.ID = "pl-" + strconv.Itoa(f.nextLookupID)
			f.nextLookupID++
			f.pending[l.SourceID] = append(f.pending[l.SourceID], l)
		}
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("POST /api/stories/{id}/star", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		f.starred[id] = true
		writeDoc(w, map[string]any{"starred": true})
	})

	mux.HandleFunc("DELETE /api/stories/{id}/star", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		f.starred[id] = false
		writeDoc(w, map[string]any{"starred": false})
	})

	mux.HandleFunc("POST /api/posts", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TargetID string `json:"target_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.posts = append(f.posts, req.TargetID)
		w.WriteHeader(http.StatusCreated)
	})

	return mux
}

func writeDoc(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func orEmptyMeanings(in []meaningDoc) []meaningDoc {
	if in == nil {
		return []meaningDoc{}
	}
	return in
}

func orEmptyPending(in []pendingDoc) []pendingDoc {
	if in == nil {
		return []pendingDoc{}
	}
	return in
}

// testServer bundles the application server and its fake upstream store.
type testServer struct {
	URL    string
	Client *http.Client
	Store  *fakeStore
}

// setupTestServer wires the real pipeline stack against a fake upstream
// store. The AI credential is left unset so extraction and resolution
// surface configuration errors instead of calling out.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store := newFakeStore()
	upstream := httptest.NewServer(store.handler())
	t.Cleanup(upstream.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	storeCfg := config.StoreConfig{BaseURL: upstream.URL, Timeout: 5 * time.Second, MeaningsLimit: 500}
	aiCfg := config.AIConfig{Model: "claude-sonnet-4-20250514", MaxTokens: 2048}

	client := storeapi.NewClient(storeCfg, logger)
	aiClient := ai.New(aiCfg, logger)

	indexes, err := textindex.NewCache(8)
	require.NoError(t, err)

	extractionSvc := extraction.NewService(logger, client, aiClient, aiCfg)
	builder := lookup.NewBuilder(logger, client)
	resolver := lookup.NewResolver(logger, client, aiClient, aiCfg)

	coordinator := pipeline.New(logger, client, extractionSvc, builder, resolver, indexes, storeCfg.MeaningsLimit)
	controller := batch.NewController(logger, resolver, coordinator)

	mux := http.NewServeMux()
	health := rest.NewHealthHandler(client, "e2e")
	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)
	rest.NewPipelineHandler(coordinator, controller).Register(mux)

	handler := middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.CORS("*"),
	)(mux)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{URL: srv.URL, Client: srv.Client(), Store: store}
}
