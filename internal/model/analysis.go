package model

// Dimension is one analytical angle a document is summarized along.
type Dimension string

const (
	DimensionBackground Dimension = "background"
	DimensionTechnology Dimension = "technology"
	DimensionExperiment Dimension = "experiment"
	DimensionResult     Dimension = "result"
)

// AllDimensions returns the four dimensions in their report order.
func AllDimensions() []Dimension {
	return []Dimension{
		DimensionBackground,
		DimensionTechnology,
		DimensionExperiment,
		DimensionResult,
	}
}

// Confidence marks whether a finding carries generated content or is an
// empty placeholder recorded after a failed generation.
type Confidence string

const (
	ConfidenceNone Confidence = "none"
	ConfidenceFull Confidence = "full"
)

// DimensionFinding is the single analytical result for one (document,
// dimension) pair. A failed generation still yields a finding, with no
// content and ConfidenceNone.
type DimensionFinding struct {
	DocumentID string         `json:"document_id"`
	Dimension  Dimension      `json:"dimension"`
	Summary    string         `json:"summary"`
	Details    map[string]any `json:"details,omitempty"`
	Confidence Confidence     `json:"confidence"`
}

// Empty reports whether the finding is a failure placeholder.
func (f DimensionFinding) Empty() bool {
	return f.Confidence == ConfidenceNone
}

// ResourceSelection lists the resources judged most salient for the
// report, by id, in rank order. Every id refers to a resource of the
// same document.
type ResourceSelection struct {
	FigureIDs   []string `json:"figure_ids"`
	TableIDs    []string `json:"table_ids"`
	EquationIDs []string `json:"equation_ids"`
}

// IsEmpty reports whether nothing was selected.
func (s ResourceSelection) IsEmpty() bool {
	return len(s.FigureIDs) == 0 && len(s.TableIDs) == 0 && len(s.EquationIDs) == 0
}

// DocumentAnalysis bundles everything generated for one document.
type DocumentAnalysis struct {
	Document  *Document                      `json:"document"`
	Findings  map[Dimension]DimensionFinding `json:"findings"`
	Keywords  []string                       `json:"keywords,omitempty"`
	Summary   string                         `json:"summary,omitempty"`
	Resources ResourceSelection              `json:"resources"`
	Usage     TokenUsage                     `json:"usage"`
}

// Finding returns the finding for a dimension, or an empty placeholder
// if the dimension was never recorded.
func (a *DocumentAnalysis) Finding(dim Dimension) DimensionFinding {
	if f, ok := a.Findings[dim]; ok {
		return f
	}
	return DimensionFinding{
		DocumentID: a.Document.ID,
		Dimension:  dim,
		Confidence: ConfidenceNone,
	}
}
