package model

import "time"

// AggregateMode selects the cross-document artifact a run produces.
type AggregateMode string

const (
	// ModeSingle produces per-document reports only; no aggregation runs.
	ModeSingle     AggregateMode = "single"
	ModeComparison AggregateMode = "comparison"
	ModeTrend      AggregateMode = "trend"
	// ModeCustom replaces the fixed aggregation prompts with a caller
	// directive and yields a free-form narrative.
	ModeCustom AggregateMode = "custom"
)

// ParseAggregateMode validates a mode string from the CLI or config.
func ParseAggregateMode(s string) (AggregateMode, bool) {
	switch AggregateMode(s) {
	case ModeSingle, ModeComparison, ModeTrend, ModeCustom:
		return AggregateMode(s), true
	}
	return "", false
}

// ComparisonRow is one axis of the comparison matrix: a cell of prose
// per document id.
type ComparisonRow struct {
	Axis  string            `json:"axis"`
	Cells map[string]string `json:"cells"`
}

// TimelineEntry places one document in the inferred chronology.
type TimelineEntry struct {
	Order        int    `json:"order"`
	DocumentID   string `json:"document_id"`
	Title        string `json:"title"`
	Date         string `json:"date,omitempty"`
	Contribution string `json:"contribution,omitempty"`
}

// Trend is one development identified across the document set.
type Trend struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Evidence    []string `json:"evidence,omitempty"`
}

// AggregateResult is the cross-document artifact. It references
// documents by id and never duplicates their structural content.
type AggregateResult struct {
	Mode           AggregateMode   `json:"mode"`
	OverallSummary string          `json:"overall_summary,omitempty"`
	Matrix         []ComparisonRow `json:"matrix,omitempty"`
	Timeline       []TimelineEntry `json:"timeline,omitempty"`
	Trends         []Trend         `json:"trends,omitempty"`
	CommonThemes   []string        `json:"common_themes,omitempty"`
	KeyDifferences []string        `json:"key_differences,omitempty"`
	Narrative      string          `json:"narrative,omitempty"`
	Usage          TokenUsage      `json:"usage"`
}

// TokenUsage accumulates generation-service consumption.
type TokenUsage struct {
	InputTokens         int     `json:"input_tokens"`
	OutputTokens        int     `json:"output_tokens"`
	CacheCreationTokens int     `json:"cache_creation_tokens,omitempty"`
	CacheReadTokens     int     `json:"cache_read_tokens,omitempty"`
	Cost                float64 `json:"cost"`
}

// Add merges token usage from another instance.
func (t *TokenUsage) Add(other TokenUsage) {
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.CacheCreationTokens += other.CacheCreationTokens
	t.CacheReadTokens += other.CacheReadTokens
	t.Cost += other.Cost
}

// PhaseStatus represents the terminal state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of one pipeline phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DocumentFailure records a document that was excluded from the run.
type DocumentFailure struct {
	SourcePath string `json:"source_path"`
	Stage      string `json:"stage"`
	Reason     string `json:"reason"`
	Transient  bool   `json:"transient"`
}

// RunResult is the complete outcome of one analysis run.
type RunResult struct {
	RunID     string              `json:"run_id"`
	Mode      AggregateMode       `json:"mode"`
	Analyses  []*DocumentAnalysis `json:"analyses"`
	Aggregate *AggregateResult    `json:"aggregate,omitempty"`
	Failed    []DocumentFailure   `json:"failed,omitempty"`
	Phases    []PhaseResult       `json:"phases"`
	Usage     TokenUsage          `json:"usage"`
	Duration  int64               `json:"duration_ms"`
}

// Report is a rendered artifact ready to be written to disk.
type Report struct {
	Type        AggregateMode     `json:"report_type"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	GeneratedAt time.Time         `json:"generated_at"`
	Documents   []string          `json:"papers"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}
