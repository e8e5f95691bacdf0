package narrative

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeworks-estimate/internal/llm"
	"tradeworks-estimate/pkg/api"
)

func ptr(v float64) *float64 { return &v }

func sampleTiers() []api.PricedTier {
	return []api.PricedTier{
		{
			TierName:    "Good",
			Description: "Essential repairs and code compliance",
			TotalAmount: 800,
			LineItems: []api.LineItem{
				{Description: "Replace GFCI outlet", Quantity: 2, Unit: "each", UnitPrice: ptr(400), TotalPrice: ptr(800)},
			},
		},
		{
			TierName:    "Better",
			Description: "Enhanced safety with modern upgrades",
			TotalAmount: 1040,
			LineItems: []api.LineItem{
				{Description: "Replace GFCI outlet", Quantity: 2, Unit: "each", UnitPrice: ptr(520), TotalPrice: ptr(1040)},
			},
		},
	}
}

func TestSerializeTiers(t *testing.T) {
	got := SerializeTiers(sampleTiers())
	want := "Good: $800 - Essential repairs and code compliance\n" +
		"  • Replace GFCI outlet (2 each) - $800.00\n" +
		"\n" +
		"Better: $1,040 - Enhanced safety with modern upgrades\n" +
		"  • Replace GFCI outlet (2 each) - $1040.00"
	assert.Equal(t, want, got)
}

func TestSerializeTiers_NilPriceRendersZero(t *testing.T) {
	tiers := []api.PricedTier{{
		TierName:    "Good",
		Description: "Essential repairs and code compliance",
		TotalAmount: 0,
		LineItems:   []api.LineItem{{Description: "Mystery item", Quantity: 1, Unit: "ea"}},
	}}
	got := SerializeTiers(tiers)
	assert.Contains(t, got, "  • Mystery item (1 ea) - $0.00")
}

func TestFormatAmount(t *testing.T) {
	cases := map[float64]string{
		0:          "0",
		24:         "24",
		800:        "800",
		1040:       "1,040",
		1234567.5:  "1,234,567.5",
		999.999:    "999.999",
		1000.12345: "1,000.123",
		-12500:     "-12,500",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatAmount(in), "FormatAmount(%v)", in)
	}
}

func TestBuildPrompt_UsesMetaWithDefaults(t *testing.T) {
	meta := &api.JobMeta{ServiceType: "electrical", Location: "Austin, TX"}
	prompt := BuildPrompt("TIERS", meta)
	assert.Contains(t, prompt, "for a electrical estimate")
	assert.Contains(t, prompt, "TIERS")
	assert.Contains(t, prompt, "Location: Austin, TX")
	assert.Contains(t, prompt, "Complexity: Standard")

	prompt = BuildPrompt("TIERS", &api.JobMeta{})
	assert.Contains(t, prompt, "for a repair service estimate")
	assert.Contains(t, prompt, "Service Type: General Repair")
	assert.Contains(t, prompt, "Location: Midwest US")
}

func TestGenerate_SendsNarrativeRequest(t *testing.T) {
	var captured llm.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"## Your Estimate"}}],"usage":{"total_tokens":42}}`))
	}))
	defer srv.Close()

	gen := NewGenerator(llm.NewClient("test-key", srv.URL))
	out, err := gen.Generate(context.Background(), sampleTiers(), &api.JobMeta{ServiceType: "electrical"})
	require.NoError(t, err)
	assert.Equal(t, "## Your Estimate", out)

	assert.Equal(t, "gpt-4o", captured.Model)
	assert.Equal(t, 600, captured.MaxTokens)
	assert.Equal(t, 0.6, captured.Temperature)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	user, _ := captured.Messages[1].Content.(string)
	assert.Contains(t, user, "Good: $800")
}

func TestGenerate_EmptyContentFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	gen := NewGenerator(llm.NewClient("test-key", srv.URL))
	out, err := gen.Generate(context.Background(), sampleTiers(), &api.JobMeta{ServiceType: "plumbing"})
	require.NoError(t, err)
	assert.Equal(t, "Professional plumbing estimate with tiered pricing options.", out)
}

func TestGenerate_UpstreamErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	gen := NewGenerator(llm.NewClient("test-key", srv.URL))
	_, err := gen.Generate(context.Background(), sampleTiers(), &api.JobMeta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API error: 429")
}
