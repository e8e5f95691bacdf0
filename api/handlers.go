package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tradeworks-estimate/db/postgres"
	"tradeworks-estimate/pkg/api"
	"tradeworks-estimate/pkg/render"
)

const pricingFailureDetails = "Failed to price repairs and generate narrative"

// handlePriceAndNarrate runs the full pipeline: resolve price book, price
// tiers, apply default spread, then generate the narrative from the final
// prices.
func (s *Server) handlePriceAndNarrate(w http.ResponseWriter, r *http.Request) {
	if !s.llmClient.Configured() {
		s.log.Error().Msg("OPENAI_API_KEY is not configured")
		s.jsonError(w, http.StatusInternalServerError, "OPENAI_API_KEY environment variable is required", pricingFailureDetails)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	var req api.PriceAndNarrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err), pricingFailureDetails)
		return
	}

	pricedTiers, err := s.engine.Price(r.Context(), req)
	if err != nil {
		s.log.Error().Err(err).Msg("tier pricing failed")
		s.jsonError(w, http.StatusBadRequest, err.Error(), pricingFailureDetails)
		return
	}

	narrativeText, err := s.narrator.Generate(r.Context(), pricedTiers, req.JobMeta)
	if err != nil {
		s.log.Error().Err(err).Msg("narrative generation failed")
		s.jsonError(w, http.StatusInternalServerError, err.Error(), pricingFailureDetails)
		return
	}

	for _, t := range pricedTiers {
		s.log.Info().Str("tier", t.TierName).Float64("total", t.TotalAmount).Msg("tier priced")
	}

	s.jsonResponse(w, http.StatusOK, api.PriceAndNarrateResponse{
		Narrative:   narrativeText,
		PricedTiers: pricedTiers,
	})
}

// handleEstimatePDF runs the pricing pipeline without the narrative call and
// streams the rendered PDF as an attachment.
func (s *Server) handleEstimatePDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	var req api.PriceAndNarrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err), "Failed to render estimate PDF")
		return
	}

	pricedTiers, err := s.engine.Price(r.Context(), req)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), "Failed to render estimate PDF")
		return
	}

	pdf, err := render.EstimatePDF(pricedTiers, req.JobMeta, "")
	if err != nil {
		s.log.Error().Err(err).Msg("PDF rendering failed")
		s.jsonError(w, http.StatusInternalServerError, err.Error(), "Failed to render estimate PDF")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=estimate.pdf")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.Write(pdf)
}

// handleAnalyze runs the document/photo analysis pipeline and archives the
// result when a jobId and an archive are present. Archival is best-effort:
// a storage failure is logged but does not fail an analysis that already
// succeeded.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.llmClient.Configured() {
		s.analyzeError(w, http.StatusInternalServerError, "OpenAI API key not configured. Please set the OPENAI_API_KEY environment variable.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	var req api.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.analyzeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	resp, err := s.analyzer.Run(r.Context(), req)
	if err != nil {
		s.log.Error().Err(err).Str("analysis_type", req.AnalysisType).Msg("analysis failed")
		s.analyzeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.archive != nil && req.JobID != "" {
		results, _ := json.Marshal(resp)
		rec := postgres.AnalysisRecord{
			JobID:        req.JobID,
			AnalysisType: resp.AnalysisType,
			DocumentURL:  req.DocumentURL,
			PhotoURLs:    req.PhotoURLs,
			Results:      results,
		}
		if err := s.archive.SaveAnalysis(r.Context(), rec); err != nil {
			s.log.Warn().Err(err).Str("job_id", req.JobID).Msg("failed to archive analysis")
		}
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleListAnalyses returns the archived analyses for a job, newest first.
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.analyzeError(w, http.StatusServiceUnavailable, "Analysis archive not configured. Set the DATABASE_URL environment variable.")
		return
	}

	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		s.analyzeError(w, http.StatusBadRequest, "jobId query parameter is required")
		return
	}

	records, err := s.archive.ListAnalyses(r.Context(), jobID)
	if err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("failed to list analyses")
		s.analyzeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"jobId":    jobID,
		"analyses": records,
	})
}

func (s *Server) analyzeError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
