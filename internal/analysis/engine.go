// Package analysis implements the AI document/photo analysis pipeline:
// vision analysis of job photos, diagnosis generation, and Good/Better/Best
// pricing suggestions with degraded-but-usable fallbacks when the model's
// JSON cannot be parsed.
package analysis

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tradeworks-estimate/internal/llm"
	"tradeworks-estimate/pkg/api"
)

// Engine orchestrates the analysis calls. It holds no per-request state.
type Engine struct {
	client *llm.Client
	log    zerolog.Logger
}

// NewEngine creates an analysis engine over an LLM client.
func NewEngine(client *llm.Client) *Engine {
	return &Engine{client: client, log: log.Logger}
}

// Run dispatches on the requested analysis type. An empty type means "full".
func (e *Engine) Run(ctx context.Context, req api.AnalyzeRequest) (*api.AnalyzeResponse, error) {
	switch req.AnalysisType {
	case api.AnalysisComprehensivePricing:
		return e.comprehensivePricing(ctx, req)
	case api.AnalysisPricing:
		return e.basicPricing(ctx, req)
	case api.AnalysisDocument, api.AnalysisPhotos, api.AnalysisFull, "":
		return e.diagnostics(ctx, req)
	default:
		return nil, fmt.Errorf("unknown analysisType: %s", req.AnalysisType)
	}
}

// comprehensivePricing analyzes every photo with the vision model, then asks
// for tiered pricing grounded in those findings. A failed photo analysis is
// recorded in place of the analysis text rather than failing the request.
func (e *Engine) comprehensivePricing(ctx context.Context, req api.AnalyzeRequest) (*api.AnalyzeResponse, error) {
	var photoAnalyses []api.PhotoAnalysis
	for i, url := range req.PhotoURLs {
		e.log.Info().Int("photo", i+1).Int("total", len(req.PhotoURLs)).Msg("analyzing job photo")
		text, err := e.analyzeVision(ctx, url, photoAnalysisPrompt(req.JobDetails))
		if err != nil {
			e.log.Error().Err(err).Int("photo", i+1).Msg("photo analysis failed")
			text = fmt.Sprintf("Photo analysis failed: %s", err.Error())
		}
		photoAnalyses = append(photoAnalyses, api.PhotoAnalysis{PhotoIndex: i + 1, URL: url, Analysis: text})
	}

	content, err := e.generateDiagnosis(ctx, comprehensivePricingPrompt(req.JobDetails, serializePhotoAnalyses(photoAnalyses)))
	if err != nil {
		return nil, err
	}

	tiers, source := ParsePricingSuggestions(content)
	e.log.Info().Str("source", source).Int("tiers", len(tiers)).Msg("pricing suggestions ready")

	return &api.AnalyzeResponse{
		Success:            true,
		AnalysisType:       api.AnalysisComprehensivePricing,
		PricingSuggestions: tiers,
		PhotoAnalysis:      photoAnalyses,
	}, nil
}

func (e *Engine) basicPricing(ctx context.Context, req api.AnalyzeRequest) (*api.AnalyzeResponse, error) {
	content, err := e.generateDiagnosis(ctx, basicPricingPrompt(req.JobDetails))
	if err != nil {
		return nil, err
	}
	tiers, source := ParsePricingSuggestions(content)
	e.log.Info().Str("source", source).Int("tiers", len(tiers)).Msg("pricing suggestions ready")

	return &api.AnalyzeResponse{
		Success:            true,
		AnalysisType:       api.AnalysisPricing,
		PricingSuggestions: tiers,
	}, nil
}

// diagnostics covers the document/photos/full analysis types, combining a
// document pass and a photo pass into a joint diagnosis when both ran.
func (e *Engine) diagnostics(ctx context.Context, req api.AnalyzeRequest) (*api.AnalyzeResponse, error) {
	analysisType := req.AnalysisType
	if analysisType == "" {
		analysisType = api.AnalysisFull
	}

	results := &api.AnalysisResults{}

	if req.DocumentURL != "" && (analysisType == api.AnalysisDocument || analysisType == api.AnalysisFull) {
		text, err := e.analyzeVision(ctx, req.DocumentURL, documentPrompt)
		if err != nil {
			return nil, err
		}
		results.DocumentAnalysis = text
	}

	if len(req.PhotoURLs) > 0 && (analysisType == api.AnalysisPhotos || analysisType == api.AnalysisFull) {
		for _, url := range req.PhotoURLs {
			text, err := e.analyzeVision(ctx, url, photoPrompt)
			if err != nil {
				return nil, err
			}
			results.PhotoAnalysis = append(results.PhotoAnalysis, text)
		}
	}

	if results.DocumentAnalysis != "" && len(results.PhotoAnalysis) > 0 {
		text, err := e.generateDiagnosis(ctx, combinedPrompt(results.DocumentAnalysis, serializeStrings(results.PhotoAnalysis)))
		if err != nil {
			return nil, err
		}
		results.CombinedDiagnosis = text
	}

	return &api.AnalyzeResponse{
		Success:      true,
		AnalysisType: analysisType,
		Analysis:     results,
	}, nil
}

func (e *Engine) analyzeVision(ctx context.Context, imageURL, prompt string) (string, error) {
	resp, err := e.client.Chat(ctx, llm.ChatRequest{
		Model:     llm.ModelVision,
		Messages:  []llm.Message{llm.VisionMessage(prompt, imageURL)},
		MaxTokens: 1000,
	})
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}

// generateDiagnosis uses a low temperature for consistent technical output.
func (e *Engine) generateDiagnosis(ctx context.Context, prompt string) (string, error) {
	resp, err := e.client.Chat(ctx, llm.ChatRequest{
		Model: llm.ModelDiagnosis,
		Messages: []llm.Message{
			llm.TextMessage("system", diagnosisPersona),
			llm.TextMessage("user", prompt),
		},
		MaxTokens:   1500,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}
