// Package narrative serializes priced tiers into a prompt and asks the text
// model for a customer-facing estimate narrative.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"tradeworks-estimate/internal/llm"
	"tradeworks-estimate/pkg/api"
)

// Generator produces the marketing narrative for a priced estimate.
type Generator struct {
	client *llm.Client
	model  string
}

// NewGenerator creates a generator over an LLM client.
func NewGenerator(client *llm.Client) *Generator {
	return &Generator{client: client, model: llm.ModelNarrative}
}

// Generate builds the prompt from the final priced tiers and requests the
// narrative. Upstream failures propagate; an empty completion degrades to a
// generic one-liner.
func (g *Generator) Generate(ctx context.Context, tiers []api.PricedTier, meta *api.JobMeta) (string, error) {
	tiersText := SerializeTiers(tiers)
	log.Debug().Str("tiers", tiersText).Msg("final pricing for narrative generation")

	resp, err := g.client.Chat(ctx, llm.ChatRequest{
		Model: g.model,
		Messages: []llm.Message{
			llm.TextMessage("system", systemPersona(meta)),
			llm.TextMessage("user", BuildPrompt(tiersText, meta)),
		},
		MaxTokens:   600,
		Temperature: 0.6,
	})
	if err != nil {
		return "", err
	}

	narrative := resp.Content()
	if narrative == "" {
		narrative = fmt.Sprintf("Professional %s estimate with tiered pricing options.", meta.ServiceTypeOr("service"))
	}

	log.Info().Int("tiers", len(tiers)).RawJSON("usage", usageOrNull(resp)).Msg("narrative generated")
	return narrative, nil
}

func usageOrNull(resp *llm.ChatResponse) []byte {
	if len(resp.Usage) == 0 {
		return []byte("null")
	}
	return resp.Usage
}

// SerializeTiers renders tiers as "{name}: ${total} - {description}" with an
// indented bullet per line item.
func SerializeTiers(tiers []api.PricedTier) string {
	blocks := make([]string, len(tiers))
	for i, tier := range tiers {
		var b strings.Builder
		fmt.Fprintf(&b, "%s: $%s - %s\n", tier.TierName, FormatAmount(tier.TotalAmount), tier.Description)
		lines := make([]string, len(tier.LineItems))
		for j, item := range tier.LineItems {
			var total float64
			if item.TotalPrice != nil {
				total = *item.TotalPrice
			}
			lines[j] = fmt.Sprintf("  • %s (%s %s) - $%.2f", item.Description, trimFloat(item.Quantity), item.Unit, total)
		}
		b.WriteString(strings.Join(lines, "\n"))
		blocks[i] = b.String()
	}
	return strings.Join(blocks, "\n\n")
}

// FormatAmount renders a currency value the way en-US number localization
// does: thousands separators, at most 3 fraction digits, no trailing zeros.
func FormatAmount(v float64) string {
	s := decimal.NewFromFloat(v).Round(3).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

func trimFloat(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func systemPersona(meta *api.JobMeta) string {
	return fmt.Sprintf(
		"You are a professional %s contractor writing estimate narratives. Create compelling, informative content in Markdown format appropriate for %s.",
		meta.ServiceTypeOr("service"), meta.ServiceTypeOr("the specific trade"))
}

// BuildPrompt assembles the narrative request around the serialized tiers.
func BuildPrompt(tiersText string, meta *api.JobMeta) string {
	return fmt.Sprintf(`Create a 150-200 word professional Markdown narrative for a %s estimate with these tiers:

%s

Service Type: %s
Location: %s
Complexity: %s

Write a compelling narrative that:
- Explains the value proposition of each tier
- Highlights safety and code compliance benefits
- Uses professional terminology appropriate for %s
- Includes 2-3 relevant emojis
- Emphasizes quality workmanship and materials
- Mentions warranty/guarantee briefly
- Uses Markdown formatting (headers, bullets, emphasis)

Make it sound professional but approachable, suitable for homeowners.`,
		meta.ServiceTypeOr("repair service"),
		tiersText,
		meta.ServiceTypeOr("General Repair"),
		meta.LocationOr("Midwest US"),
		meta.ComplexityOr("Standard"),
		meta.ServiceTypeOr("the service type"))
}
