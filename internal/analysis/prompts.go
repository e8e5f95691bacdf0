package analysis

import (
	"fmt"

	"tradeworks-estimate/pkg/api"
)

func detail(d *api.JobDetails) api.JobDetails {
	if d == nil {
		return api.JobDetails{}
	}
	return *d
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func jobContext(d *api.JobDetails) string {
	jd := detail(d)
	return fmt.Sprintf(`- Title: %s
- Description: %s
- Service Type: %s
- Location: %s
- Technician Notes: %s`,
		orDefault(jd.Title, "Service Call"),
		orDefault(jd.Description, "No description provided"),
		orDefault(jd.ServiceType, "general"),
		orDefault(jd.Location, "Unknown location"),
		orDefault(jd.Notes, "No additional notes"))
}

func photoAnalysisPrompt(d *api.JobDetails) string {
	return fmt.Sprintf(`You are an expert electrical contractor analyzing photos of damaged electrical equipment. Provide specific detailed analysis of what you see in these photos.

Job Context:
%s

For each photo, identify SPECIFICALLY:

What You See:
- Exact equipment type (panel brand, amperage, age)
- Visible damage (corrosion, scorching, arc damage, burnt components)
- Safety hazards (exposed wiring, fire damage, code violations)
- Component condition (breakers, lugs, bus bars, wiring type)

Required Work:
- Specific parts that need replacement
- Safety issues that must be addressed
- Code compliance requirements
- Labor complexity (hours needed)

Mention specific findings like "severe corrosion on main lugs", "arc damage visible on bus bar", "cloth wiring visible - code violation", "no AFCI/GFCI protection".

Provide detailed technical analysis for pricing purposes.`, jobContext(d))
}

const tierJSONFormat = `[
  {
    "tier_name": "Good",
    "description": "Minimal repair addressing immediate safety",
    "total_amount": 0,
    "line_items": [
      {"description": "Clean and replace fire-damaged main lugs", "quantity": 1, "unit_price": 150, "total_price": 150, "item_type": "labor"}
    ]
  },
  {
    "tier_name": "Better",
    "description": "Comprehensive repair with partial code compliance",
    "total_amount": 0,
    "line_items": [
      {"description": "Replace damaged panel components and upgrade grounding", "quantity": 1, "unit_price": 400, "total_price": 400, "item_type": "labor"}
    ]
  },
  {
    "tier_name": "Best",
    "description": "Complete replacement with full code compliance",
    "total_amount": 0,
    "line_items": [
      {"description": "Install new 200A panel with AFCI/GFCI protection", "quantity": 1, "unit_price": 1200, "total_price": 1200, "item_type": "material"}
    ]
  }
]`

func comprehensivePricingPrompt(d *api.JobDetails, photoAnalysis string) string {
	jd := detail(d)
	return fmt.Sprintf(`You are an expert contractor analyzing photos of damaged equipment. Provide a detailed Good/Better/Best estimate with SPECIFIC line items based on ACTUAL visible conditions.

Job Details:
%s
- Estimated Cost: %s

Photo Analysis Results:
%s

Based on the ACTUAL CONDITIONS visible in the photos, create realistic pricing for the SPECIFIC repairs needed. Identify actual components that need replacement, safety issues, and code compliance requirements. Say "Replace fire-damaged main lugs", not "Electrical repair".

Respond in this exact JSON format:
%s

CRITICAL: Base all line items on actual visible damage and required repairs from the photos. Calculate total_amount as exact sum of line_items.`,
		jobContext(d),
		orDefault(jd.EstimatedCost, "Not provided"),
		orDefault(photoAnalysis, "No photos analyzed"),
		tierJSONFormat)
}

func basicPricingPrompt(d *api.JobDetails) string {
	return fmt.Sprintf(`You are an expert contractor providing pricing estimates. Based on the job details below, create a Good/Better/Best pricing structure with specific line items.

Job Details:
%s

Please provide pricing in this exact JSON format:
%s

Important:
- Use realistic market pricing for your region
- Include appropriate labor, materials, and markup
- Each tier should have 2-5 relevant line items
- Calculate total_amount as sum of all line_items
- Use item_type: "service", "labor", "material", or "other"
- Be specific about what's included in each tier`, jobContext(d), tierJSONFormat)
}

const documentPrompt = `Analyze this document and extract the following information:
1. Document type (invoice, work order, inspection report, etc.)
2. Key dates and reference numbers
3. Equipment or system information
4. Reported issues or work performed
5. Any costs, parts, or materials mentioned
6. Contact information
7. Any warranty or service agreement details

Provide the analysis in a structured JSON format.`

const photoPrompt = `Analyze these photos of HVAC/plumbing/electrical equipment and provide:
1. Equipment identification (type, brand if visible, model if visible)
2. Visible issues or damage (be specific about location and severity)
3. Condition assessment (rate 1-10 with explanation)
4. Safety concerns if any
5. Recommended repairs or maintenance
6. Estimated remaining lifespan
7. Whether immediate action is required

For each photo, describe what you see and any diagnostic insights.`

func combinedPrompt(documentFindings, photoFindings string) string {
	return fmt.Sprintf(`Based on the document analysis and photo evidence, provide:
1. Root cause diagnosis
2. Severity assessment (critical/high/medium/low)
3. Recommended repair approach
4. Required parts and materials
5. Estimated labor hours
6. Total cost estimate range
7. Priority of repairs
8. Any code compliance issues
9. Warranty considerations
10. Preventive maintenance recommendations

Document findings: %s
Photo findings: %s`, documentFindings, photoFindings)
}

const diagnosisPersona = `You are an expert HVAC/plumbing/electrical technician with 20 years of experience. Provide detailed, accurate diagnostics based on the evidence provided. ALWAYS respond with valid JSON format.`
