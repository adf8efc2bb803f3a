package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Bapt252/nextvision/internal/domain"
	"github.com/Bapt252/nextvision/internal/health"
	"github.com/Bapt252/nextvision/internal/scoring"
	"github.com/Bapt252/nextvision/pkg/logger"
)

// Handler serves the matching engine's scoring, batch, and health surface
// over plain JSON/HTTP.
type Handler struct {
	match  *scoring.MatchEngine
	batch  batchOrchestrator
	health *health.Reporter
}

// batchOrchestrator is the subset of *batch.Orchestrator a Handler calls.
type batchOrchestrator interface {
	MatchCandidateAgainstJobs(ctx context.Context, candidate domain.CandidateProfile, jobs []domain.JobRequirement, departure time.Time) domain.BatchResult
	MatchJobAgainstCandidates(ctx context.Context, job domain.JobRequirement, candidates []domain.CandidateProfile, departure time.Time) domain.BatchResult
}

// NewHandler builds a Handler over the engine's composed components.
func NewHandler(match *scoring.MatchEngine, orchestrator batchOrchestrator, reporter *health.Reporter) *Handler {
	return &Handler{match: match, batch: orchestrator, health: reporter}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/score", h.handleScore)
	mux.HandleFunc("/v1/batch/candidate", h.handleBatchCandidate)
	mux.HandleFunc("/v1/batch/job", h.handleBatchJob)
	mux.HandleFunc("/healthz", h.handleHealth)
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	candidate, job, ok := h.decodePair(w, req.Candidate, req.Job)
	if !ok {
		return
	}

	result := h.match.Match(r.Context(), candidate, job, departureOrNow(req.DepartureAt))
	writeJSON(r.Context(), w, http.StatusOK, fromMatchResult(result))
}

func (h *Handler) handleBatchCandidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req batchCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	candidate, err := toCandidate(req.Candidate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := domain.ValidateCandidateProfile(&candidate); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	jobs := make([]domain.JobRequirement, 0, len(req.Jobs))
	for _, jd := range req.Jobs {
		job, err := toJob(jd)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := domain.ValidateJobRequirement(&job); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		jobs = append(jobs, job)
	}

	result := h.batch.MatchCandidateAgainstJobs(r.Context(), candidate, jobs, departureOrNow(req.DepartureAt))
	writeJSON(r.Context(), w, http.StatusOK, fromBatchResult(result))
}

func (h *Handler) handleBatchJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req batchJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	job, err := toJob(req.Job)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := domain.ValidateJobRequirement(&job); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	candidates := make([]domain.CandidateProfile, 0, len(req.Candidates))
	for _, cd := range req.Candidates {
		candidate, err := toCandidate(cd)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := domain.ValidateCandidateProfile(&candidate); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		candidates = append(candidates, candidate)
	}

	result := h.batch.MatchJobAgainstCandidates(r.Context(), job, candidates, departureOrNow(req.DepartureAt))
	writeJSON(r.Context(), w, http.StatusOK, fromBatchResult(result))
}

type healthResponseDTO struct {
	State    string              `json:"state"`
	Services []serviceHealthDTO  `json:"services"`
}

type serviceHealthDTO struct {
	Service string `json:"service"`
	State   string `json:"state"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		writeJSON(r.Context(), w, http.StatusOK, healthResponseDTO{State: "UNSPECIFIED"})
		return
	}
	snap := h.health.Snapshot()
	services := make([]serviceHealthDTO, len(snap.Services))
	for i, s := range snap.Services {
		services[i] = serviceHealthDTO{Service: s.Service, State: s.State.String()}
	}

	status := http.StatusOK
	if snap.State == domain.ServiceDown || snap.State == domain.ServiceFailing {
		status = http.StatusServiceUnavailable
	}
	writeJSON(r.Context(), w, status, healthResponseDTO{State: snap.State.String(), Services: services})
}

func (h *Handler) decodePair(w http.ResponseWriter, cd candidateDTO, jd jobDTO) (domain.CandidateProfile, domain.JobRequirement, bool) {
	candidate, err := toCandidate(cd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return domain.CandidateProfile{}, domain.JobRequirement{}, false
	}
	if err := domain.ValidateCandidateProfile(&candidate); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return domain.CandidateProfile{}, domain.JobRequirement{}, false
	}

	job, err := toJob(jd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return domain.CandidateProfile{}, domain.JobRequirement{}, false
	}
	if err := domain.ValidateJobRequirement(&job); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return domain.CandidateProfile{}, domain.JobRequirement{}, false
	}

	return candidate, job, true
}

func departureOrNow(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return time.Now()
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.FromContext(ctx).Error("encoding response", "error", err)
	}
}
