// Package api defines the wire contracts shared by the HTTP server, the CLI,
// and the pricing pipeline.
package api

// LineItem is a single repair/service line within a tier. Quantity and unit
// are caller-authored; unit is informational only and never dimensionally
// checked. UnitPrice and TotalPrice are nil on input and always set once the
// pricing engine has run.
type LineItem struct {
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit"`
	ItemType    string   `json:"item_type"` // labor, material, service, other
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	TotalPrice  *float64 `json:"total_price,omitempty"`
}

// Tier is an input quality tier, conventionally Good/Better/Best.
type Tier struct {
	TierName  string     `json:"tier_name"`
	LineItems []LineItem `json:"line_items"`
}

// PricedTier is a tier after pricing: every line item carries prices, and
// TotalAmount is the sum of line totals or the caller-supplied target.
type PricedTier struct {
	TierName    string     `json:"tier_name"`
	Description string     `json:"description"`
	TotalAmount float64    `json:"total_amount"`
	LineItems   []LineItem `json:"line_items"`
}

// TargetPrices maps a tier name (exact match, e.g. "Good") to a caller target
// total. A key that is present but zero counts as "custom pricing supplied"
// without overriding that tier's total.
type TargetPrices map[string]float64

// HasCustom reports whether any target key was supplied at all.
func (t TargetPrices) HasCustom() bool { return len(t) > 0 }

// JobMeta carries optional job context used for price book selection and
// narrative generation.
type JobMeta struct {
	ServiceType string `json:"serviceType,omitempty"`
	Location    string `json:"location,omitempty"`
	Complexity  string `json:"complexity,omitempty"`
}

// ServiceTypeOr returns the service type, or def when meta or the field is
// absent.
func (m *JobMeta) ServiceTypeOr(def string) string {
	if m == nil || m.ServiceType == "" {
		return def
	}
	return m.ServiceType
}

// LocationOr returns the location or def.
func (m *JobMeta) LocationOr(def string) string {
	if m == nil || m.Location == "" {
		return def
	}
	return m.Location
}

// ComplexityOr returns the complexity or def.
func (m *JobMeta) ComplexityOr(def string) string {
	if m == nil || m.Complexity == "" {
		return def
	}
	return m.Complexity
}

// PriceAndNarrateRequest is the body of POST /api/v1/price-and-narrate.
type PriceAndNarrateRequest struct {
	Tiers        []Tier             `json:"tiers"`
	PriceBook    map[string]float64 `json:"priceBook,omitempty"`
	TargetPrices TargetPrices       `json:"targetPrices,omitempty"`
	JobMeta      *JobMeta           `json:"jobMeta,omitempty"`
}

// PriceAndNarrateResponse is the success body of POST /api/v1/price-and-narrate.
type PriceAndNarrateResponse struct {
	Narrative   string       `json:"narrative"`
	PricedTiers []PricedTier `json:"priced_tiers"`
}

// ErrorResponse is the error envelope for the pricing endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// JobDetails is the free-form job context attached to analysis requests.
type JobDetails struct {
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	ServiceType   string `json:"serviceType,omitempty"`
	Location      string `json:"location,omitempty"`
	EstimatedCost string `json:"estimatedCost,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// Analysis types accepted by POST /api/v1/analyze.
const (
	AnalysisDocument             = "document"
	AnalysisPhotos               = "photos"
	AnalysisFull                 = "full"
	AnalysisPricing              = "pricing"
	AnalysisComprehensivePricing = "comprehensive_pricing"
)

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	JobID        string      `json:"jobId,omitempty"`
	DocumentURL  string      `json:"documentUrl,omitempty"`
	PhotoURLs    []string    `json:"photoUrls,omitempty"`
	AnalysisType string      `json:"analysisType,omitempty"` // defaults to "full"
	JobDetails   *JobDetails `json:"jobDetails,omitempty"`
}

// PhotoAnalysis is the vision-model output for one photo.
type PhotoAnalysis struct {
	PhotoIndex int    `json:"photoIndex"`
	URL        string `json:"url"`
	Analysis   string `json:"analysis"`
}

// AnalysisResults aggregates the document/photo/full analysis outputs.
type AnalysisResults struct {
	DocumentAnalysis  string   `json:"documentAnalysis,omitempty"`
	PhotoAnalysis     []string `json:"photoAnalysis,omitempty"`
	CombinedDiagnosis string   `json:"combinedDiagnosis,omitempty"`
}

// AnalyzeResponse is the success body of POST /api/v1/analyze.
type AnalyzeResponse struct {
	Success            bool             `json:"success"`
	AnalysisType       string           `json:"analysisType"`
	PricingSuggestions []PricedTier     `json:"pricingSuggestions,omitempty"`
	PhotoAnalysis      []PhotoAnalysis  `json:"photoAnalysis,omitempty"`
	Analysis           *AnalysisResults `json:"analysis,omitempty"`
}
