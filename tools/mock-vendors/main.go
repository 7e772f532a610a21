// Package main implements mock vendor APIs for local development. Each
// vendor is served under its own path prefix, so a config can point every
// base_url at one process:
//
//	services:
//	  tinker:
//	    base_url: http://localhost:8089/tinker
//
// Research jobs and training runs advance one step per status request and
// finish after -steps requests.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	steps := flag.Int("steps", 3, "status requests before a job finishes")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock vendor server", "addr", addr, "steps", *steps)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, newMux(logger, newState(*steps))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMux(logger *slog.Logger, st *state) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /elevenlabs/v1/speech-to-text", transcribeHandler)
	mux.HandleFunc("POST /elevenlabs/v1/text-to-speech/{voice}/stream", speechHandler)
	mux.HandleFunc("GET /elevenlabs/v1/voices", voicesHandler)
	mux.HandleFunc("GET /elevenlabs/v1/user", okHandler)

	mux.HandleFunc("POST /anthropic/v1/messages", messagesHandler(logger))

	mux.HandleFunc("POST /tonic/v1/fabricate/generate", generateHandler)
	mux.HandleFunc("POST /tonic/v1/fabricate/preview", previewHandler)
	mux.HandleFunc("GET /tonic/v1/health", okHandler)

	mux.HandleFunc("POST /yutori/v1/research", st.startResearch)
	mux.HandleFunc("GET /yutori/v1/research/{id}", st.getResearch)
	mux.HandleFunc("GET /yutori/v1/health", okHandler)

	mux.HandleFunc("POST /tinker/v1/training/runs", st.createRun)
	mux.HandleFunc("GET /tinker/v1/training/runs", st.listRuns)
	mux.HandleFunc("GET /tinker/v1/training/runs/{id}", st.getRun)
	mux.HandleFunc("POST /tinker/v1/training/runs/{id}/cancel", st.cancelRun)
	mux.HandleFunc("GET /tinker/v1/training/runs/{id}/checkpoints", st.listCheckpoints)
	mux.HandleFunc("GET /tinker/v1/training/runs/{id}/checkpoints/{checkpoint}", st.getCheckpoint)
	mux.HandleFunc("GET /tinker/v1/models", modelsHandler)
	mux.HandleFunc("POST /tinker/v1/datasets/upload", uploadHandler)
	mux.HandleFunc("GET /tinker/v1/health", okHandler)

	return mux
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ElevenLabs.

func transcribeHandler(w http.ResponseWriter, r *http.Request) {
	f, _, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "missing audio file"})
		return
	}
	defer f.Close() //nolint:errcheck // read-only multipart file
	writeJSON(w, http.StatusOK, map[string]any{
		"text":          "fine tune llama on my support tickets",
		"language_code": "en",
	})
}

func speechHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "audio/mpeg")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	w.Write([]byte("ID3\x04\x00mock-audio"))
}

func voicesHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"voices": []map[string]string{
		{"voice_id": "21m00Tcm4TlvDq8ikWAM", "name": "Rachel", "category": "premade"},
		{"voice_id": "mock-voice", "name": "Mock", "category": "generated"},
	}})
}

// Anthropic.

// agentReplies maps a phrase of each agent's system prompt to a canned
// reply.
var agentReplies = []struct {
	match string
	reply string
}{
	{
		match: "intent parser",
		reply: `{"intent":"create_training","entities":{"model":"llama","task":"support tickets"},"confidence":0.92}`,
	},
	{
		match: "review training datasets",
		reply: `{"valid":true,"issues":[],"stats":{"samples_reviewed":3},"recommendations":["add more edge cases"]}`,
	},
	{
		match: "recommend fine-tuning configurations",
		reply: "```json\n" + `{"recommended_config":{"model":"llama-3-8b","training_type":"sft",` +
			`"hyperparameters":{"learning_rate":0.0002,"batch_size":8,"num_epochs":3}},` +
			`"reasoning":"small dataset, short sequences","alternatives":[],"warnings":[]}` + "\n```",
	},
}

func messagesHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			System string `json:"system"`
			Model  string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"type":  "error",
				"error": map[string]string{"type": "invalid_request_error", "message": err.Error()},
			})
			return
		}

		text := "Sure. Tell me what the model should do and I'll set up a run."
		for _, a := range agentReplies {
			if strings.Contains(req.System, a.match) {
				text = a.reply
				break
			}
		}
		logger.Info("message", "model", req.Model, "reply_bytes", len(text))

		writeJSON(w, http.StatusOK, map[string]any{
			"content": []map[string]string{{"type": "text", "text": text}},
			"model":   req.Model,
			"usage":   map[string]int{"input_tokens": 100, "output_tokens": len(text) / 4},
		})
	}
}

// Tonic.

func generateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NumRecords int `json:"num_records"`
	}
	//nolint:errcheck,gosec // zero value is handled below
	json.NewDecoder(r.Body).Decode(&req)
	n := min(max(req.NumRecords, 1), 1000)

	var b strings.Builder
	for i := range n {
		line, _ := json.Marshal(map[string]string{ //nolint:errcheck // map of strings always encodes
			"input":  fmt.Sprintf("Sample question %d", i+1),
			"output": fmt.Sprintf("Sample answer %d", i+1),
		})
		b.Write(line)
		b.WriteByte('\n')
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":          b.String(),
		"record_count":  n,
		"generation_id": "gen-" + strconv.FormatInt(time.Now().UnixNano(), 36),
		"duration_ms":   25 * n,
	})
}

func previewHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NumRecords int `json:"num_records"`
	}
	//nolint:errcheck,gosec // zero value is handled below
	json.NewDecoder(r.Body).Decode(&req)
	writeJSON(w, http.StatusOK, map[string]any{
		"estimated_tokens":           req.NumRecords * 120,
		"estimated_cost":             float64(req.NumRecords) * 0.0004,
		"estimated_duration_seconds": max(req.NumRecords/20, 1),
	})
}

// Tinker.

func modelsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]any{
		{
			"id": "llama-3-8b", "name": "Llama 3 8B", "parameters": "8B",
			"supported_training_types": []string{"sft", "dpo", "grpo"},
			"max_lora_rank":            64, "price_per_million_tokens": 0.4,
		},
		{
			"id": "mistral-7b", "name": "Mistral 7B", "parameters": "7B",
			"supported_training_types": []string{"sft", "dpo"},
			"max_lora_rank":            64, "price_per_million_tokens": 0.35,
		},
	})
}

func uploadHandler(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "missing file"})
		return
	}
	defer f.Close() //nolint:errcheck // read-only multipart file

	data, err := io.ReadAll(f)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	rows := strings.Count(strings.TrimSpace(string(data)), "\n") + 1
	id := "ds-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	writeJSON(w, http.StatusOK, map[string]any{
		"dataset_id": id,
		"path":       "datasets/" + id + "/" + hdr.Filename,
		"size_bytes": len(data),
		"row_count":  rows,
	})
}

// state holds research jobs and training runs between requests.
type state struct {
	mu       sync.Mutex
	steps    int
	nextID   int
	research map[string]*job
	runs     map[string]*run
	order    []string
}

type job struct {
	query   string
	fetches int
}

type run struct {
	ID           string         `json:"id"`
	Name         string         `json:"name,omitempty"`
	Status       string         `json:"status"`
	Model        string         `json:"model"`
	TrainingType string         `json:"training_type"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Progress     map[string]any `json:"progress,omitempty"`
	fetches      int
}

func newState(steps int) *state {
	return &state{
		steps:    max(steps, 1),
		research: make(map[string]*job),
		runs:     make(map[string]*run),
	}
}

func (s *state) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *state) startResearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "query is required"})
		return
	}

	s.mu.Lock()
	id := s.id("r")
	s.research[id] = &job{query: req.Query}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"research_id": id, "status": "queued"})
}

func (s *state) getResearch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	var j job
	stored, ok := s.research[id]
	if ok {
		stored.fetches++
		j = *stored
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "research not found"})
		return
	}
	if j.fetches < s.steps {
		writeJSON(w, http.StatusOK, map[string]string{"research_id": id, "status": "running"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"research_id": id,
		"status":      "completed",
		"summary":     "Findings for " + j.query + ": LoRA rank 16 with learning rate 2e-4 is a common starting point.",
		"insights": []string{
			"LoRA rank 16 balances quality and cost for 7-8B models",
			"A learning rate of 2e-4 is typical for LoRA fine-tuning",
			"Three epochs usually suffice for a few thousand examples",
		},
		"sources": []map[string]any{
			{"url": "https://example.com/lora-guide", "title": "A practical guide to LoRA", "relevance_score": 0.91},
		},
		"findings": []map[string]any{
			{"content": "rank 16 matched rank 64 quality", "source_url": "https://example.com/lora-guide", "confidence": 0.8},
		},
		"duration_ms":       1200 * s.steps,
		"sources_consulted": 1,
	})
}

func (s *state) createRun(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	var cfg struct {
		Model        string `json:"model"`
		TrainingType string `json:"training_type"`
		Name         string `json:"name"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil || cfg.Model == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "model is required"})
		return
	}

	now := time.Now().UTC()
	s.mu.Lock()
	rn := &run{
		ID:           s.id("run"),
		Name:         cfg.Name,
		Status:       "pending",
		Model:        cfg.Model,
		TrainingType: cfg.TrainingType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.runs[rn.ID] = rn
	s.order = append(s.order, rn.ID)
	out := *rn
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

// advance moves a running run one step forward. Callers hold s.mu.
func (s *state) advance(rn *run) {
	if rn.Status == "completed" || rn.Status == "cancelled" {
		return
	}
	rn.fetches++
	rn.UpdatedAt = time.Now().UTC()
	total := s.steps * 100
	current := min(rn.fetches*100, total)
	rn.Progress = map[string]any{
		"current_step":  current,
		"total_steps":   total,
		"current_epoch": min(rn.fetches, s.steps),
		"total_epochs":  s.steps,
		"loss":          2.0 / float64(rn.fetches+1),
	}
	if current >= total {
		rn.Status = "completed"
	} else {
		rn.Status = "running"
	}
}

func (s *state) getRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rn, ok := s.runs[r.PathValue("id")]
	var out run
	if ok {
		s.advance(rn)
		out = *rn
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *state) listRuns(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)

	s.mu.Lock()
	all := make([]run, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, *s.runs[id])
	}
	s.mu.Unlock()

	start := min((page-1)*perPage, len(all))
	end := min(start+perPage, len(all))
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":     all[start:end],
		"total":    len(all),
		"page":     page,
		"per_page": perPage,
	})
}

func (s *state) cancelRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rn, ok := s.runs[r.PathValue("id")]
	var out run
	if ok {
		if rn.Status != "completed" {
			rn.Status = "cancelled"
			rn.UpdatedAt = time.Now().UTC()
		}
		out = *rn
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// checkpoints returns one checkpoint per completed step of run id.
func (s *state) checkpoints(id string) ([]map[string]any, bool) {
	s.mu.Lock()
	rn, ok := s.runs[id]
	var fetches int
	var created time.Time
	if ok {
		fetches = min(rn.fetches, s.steps)
		created = rn.CreatedAt
	}
	s.mu.Unlock()

	if !ok {
		return nil, false
	}

	cps := make([]map[string]any, 0, fetches)
	for i := 1; i <= fetches; i++ {
		cps = append(cps, map[string]any{
			"id":         fmt.Sprintf("ck-%d", i*100),
			"run_id":     id,
			"step":       i * 100,
			"path":       fmt.Sprintf("checkpoints/%s/%d", id, i*100),
			"size_bytes": 64 << 20,
			"created_at": created.Add(time.Duration(i) * time.Minute),
			"metrics":    map[string]float64{"loss": 2.0 / float64(i+1)},
		})
	}
	return cps, true
}

func (s *state) listCheckpoints(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)
	cps, ok := s.checkpoints(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "run not found"})
		return
	}

	start := min((page-1)*perPage, len(cps))
	end := min(start+perPage, len(cps))
	writeJSON(w, http.StatusOK, map[string]any{
		"checkpoints": cps[start:end],
		"total":       len(cps),
		"page":        page,
		"per_page":    perPage,
	})
}

func (s *state) getCheckpoint(w http.ResponseWriter, r *http.Request) {
	cps, _ := s.checkpoints(r.PathValue("id"))
	for _, cp := range cps {
		if cp["id"] == r.PathValue("checkpoint") {
			writeJSON(w, http.StatusOK, cp)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "checkpoint not found"})
}

func pageParams(r *http.Request) (page, perPage int) {
	page, perPage = 1, 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 {
		perPage = v
	}
	return page, perPage
}
