package model

// Outcome is the terminal state of a single candidate resolution.
type Outcome string

const (
	OutcomeExactHit       Outcome = "exact_hit"
	OutcomeStructuralRisk Outcome = "structural_risk"
	OutcomeCategoryHit    Outcome = "category_hit"
	OutcomeKeywordHit     Outcome = "keyword_hit"
	OutcomeNoMatch        Outcome = "no_match"
)

// Outcomes lists every terminal state in evaluation order.
var Outcomes = []Outcome{
	OutcomeExactHit,
	OutcomeStructuralRisk,
	OutcomeCategoryHit,
	OutcomeKeywordHit,
	OutcomeNoMatch,
}

// Confidence is the confidence tier attached to a resolved material.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Taxonomy groups outcomes into the four reportable resolution classes.
type Taxonomy string

const (
	TaxonomyResolvedConfident        Taxonomy = "resolved_confident"
	TaxonomyResolvedProxy            Taxonomy = "resolved_proxy"
	TaxonomyUnresolvedAmbiguous      Taxonomy = "unresolved_ambiguous"
	TaxonomyUnresolvedUnsafeEstimate Taxonomy = "unresolved_unsafe_estimate"
)

// Confidence returns the confidence tier implied by the outcome.
func (o Outcome) Confidence() Confidence {
	switch o {
	case OutcomeExactHit:
		return ConfidenceHigh
	case OutcomeCategoryHit, OutcomeKeywordHit:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Taxonomy returns the reporting class of the outcome.
func (o Outcome) Taxonomy() Taxonomy {
	switch o {
	case OutcomeExactHit:
		return TaxonomyResolvedConfident
	case OutcomeCategoryHit, OutcomeKeywordHit:
		return TaxonomyResolvedProxy
	case OutcomeStructuralRisk:
		return TaxonomyUnresolvedUnsafeEstimate
	default:
		return TaxonomyUnresolvedAmbiguous
	}
}

// RequiresReview reports whether the outcome always escalates to a human.
func (o Outcome) RequiresReview() bool {
	return o == OutcomeStructuralRisk || o == OutcomeNoMatch
}

// IsProxy reports whether the outcome resolved through a same-category or
// keyword stand-in rather than the exact record.
func (o Outcome) IsProxy() bool {
	return o == OutcomeCategoryHit || o == OutcomeKeywordHit
}

// ResolvedMaterial is the annotated output for one candidate. It is produced
// once per resolution pass and never modified afterwards.
type ResolvedMaterial struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	TypeID   string  `json:"typeId"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`

	Factor          *float64   `json:"factor"`
	IsCustom        bool       `json:"isCustom"`
	Source          string     `json:"source"`
	EPDNumber       *string    `json:"epdNumber"`
	Manufacturer    *string    `json:"manufacturer,omitempty"`
	ConfidenceLevel Confidence `json:"confidenceLevel"`
	RequiresReview  bool       `json:"requiresReview"`
	ReviewReason    string     `json:"reviewReason,omitempty"`
	Outcome         Outcome    `json:"outcome"`

	ProxyMaterialID   string `json:"proxyMaterialId,omitempty"`
	ProxyMaterialName string `json:"proxyMaterialName,omitempty"`

	UnitConversionApplied bool    `json:"unitConversionApplied,omitempty"`
	ConversionNote        string  `json:"conversionNote,omitempty"`
	ConversionRule        string  `json:"conversionRule,omitempty"`
	OriginalQuantity      float64 `json:"originalQuantity"`
	OriginalUnit          string  `json:"originalUnit"`

	// NormalizedFactor is the factor per kg when the matched record is
	// expressed per tonne; otherwise it equals Factor.
	NormalizedFactor *float64 `json:"normalizedFactor,omitempty"`
	NormalizedUnit   string   `json:"normalizedUnit,omitempty"`

	IsOutlier     bool   `json:"isOutlier,omitempty"`
	OutlierReason string `json:"outlierReason,omitempty"`
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
