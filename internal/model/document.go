package model

import "strings"

// SectionClass is the structural role assigned to a section header.
type SectionClass string

const (
	SectionClassUnknown    SectionClass = "unknown"
	SectionClassBackground SectionClass = "background"
	SectionClassTechnology SectionClass = "technology"
	SectionClassExperiment SectionClass = "experiment"
	SectionClassResult     SectionClass = "result"
	SectionClassOther      SectionClass = "other"
)

// AllSectionClasses returns the classes a header can resolve to.
// Unknown is excluded: it is the absence of a match, not a class.
func AllSectionClasses() []SectionClass {
	return []SectionClass{
		SectionClassBackground,
		SectionClassTechnology,
		SectionClassExperiment,
		SectionClassResult,
		SectionClassOther,
	}
}

// SectionKind is the finer-grained vocabulary a header resolves to.
// Kinds drive per-dimension context assembly; classes group kinds.
type SectionKind string

const (
	KindAbstract        SectionKind = "abstract"
	KindIntroduction    SectionKind = "introduction"
	KindRelatedWork     SectionKind = "related_work"
	KindMethod          SectionKind = "method"
	KindExperiment      SectionKind = "experiment"
	KindResult          SectionKind = "result"
	KindDiscussion      SectionKind = "discussion"
	KindConclusion      SectionKind = "conclusion"
	KindReferences      SectionKind = "references"
	KindAppendix        SectionKind = "appendix"
	KindAcknowledgments SectionKind = "acknowledgments"
)

// Class maps a kind onto its structural class.
func (k SectionKind) Class() SectionClass {
	switch k {
	case KindAbstract, KindIntroduction, KindRelatedWork:
		return SectionClassBackground
	case KindMethod:
		return SectionClassTechnology
	case KindExperiment:
		return SectionClassExperiment
	case KindResult, KindDiscussion, KindConclusion:
		return SectionClassResult
	case KindReferences, KindAppendix, KindAcknowledgments:
		return SectionClassOther
	default:
		return SectionClassUnknown
	}
}

// Section is one header-delimited span of document text.
type Section struct {
	Name    string       `json:"name"`
	Kind    SectionKind  `json:"kind,omitempty"`
	Class   SectionClass `json:"class"`
	Content string       `json:"content"`
	Index   int          `json:"index"`
	Page    int          `json:"page"`
}

// Region is an axis-aligned area on a page, in page points with a
// top-left origin. Zero value means "no location known".
type Region struct {
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
}

// IsZero reports whether the region carries no geometry.
func (r Region) IsZero() bool {
	return r.W == 0 && r.H == 0
}

// Intersects reports whether two regions on the same page overlap.
func (r Region) Intersects(o Region) bool {
	if r.Page != o.Page {
		return false
	}
	return r.X < o.X+o.W && r.X+r.W > o.X &&
		r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// Pad grows the region by p points on every side.
func (r Region) Pad(p float64) Region {
	r.X -= p
	r.Y -= p
	r.W += 2 * p
	r.H += 2 * p
	return r
}

// Clamp restricts the region to a page of the given dimensions.
func (r Region) Clamp(pageW, pageH float64) Region {
	if r.X < 0 {
		r.W += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.H += r.Y
		r.Y = 0
	}
	if r.X+r.W > pageW {
		r.W = pageW - r.X
	}
	if r.Y+r.H > pageH {
		r.H = pageH - r.Y
	}
	if r.W < 0 {
		r.W = 0
	}
	if r.H < 0 {
		r.H = 0
	}
	return r
}

// FidelityState tells report rendering whether a table's extracted rows
// are trustworthy or whether the rendered image must be used instead.
type FidelityState string

const (
	// FidelityTextReliable means the extracted rows represent the table.
	FidelityTextReliable FidelityState = "text_reliable"
	// FidelityScreenshotFallback means extraction degenerated and the
	// rendered region image is the authoritative representation.
	FidelityScreenshotFallback FidelityState = "screenshot_fallback"
)

// Table is a detected table with its extracted cell grid.
type Table struct {
	ID        string        `json:"id"`
	Page      int           `json:"page"`
	Caption   string        `json:"caption,omitempty"`
	Rows      [][]string    `json:"rows"`
	Region    Region        `json:"region"`
	Fidelity  FidelityState `json:"fidelity"`
	Image     []byte        `json:"-"`
	ImagePath string        `json:"image_path,omitempty"`
}

// RowCount returns the number of extracted rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the widest row's cell count.
func (t *Table) ColCount() int {
	max := 0
	for _, row := range t.Rows {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// Figure is an embedded image with its caption, when one was found nearby.
type Figure struct {
	ID        string `json:"id"`
	Page      int    `json:"page"`
	Caption   string `json:"caption,omitempty"`
	Region    Region `json:"region"`
	Image     []byte `json:"-"`
	ImagePath string `json:"image_path,omitempty"`
}

// Equation is a display equation line, numbered when the source numbers it.
type Equation struct {
	ID     string `json:"id"`
	Page   int    `json:"page"`
	Text   string `json:"text"`
	Number string `json:"number,omitempty"`
	Region Region `json:"region"`
}

// Reference is one bibliography entry.
type Reference struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Year  int    `json:"year,omitempty"`
}

// Document is the structural view of one source PDF. It is assembled by
// structural extraction, finalized by fidelity resolution, and read-only
// for every later stage.
type Document struct {
	ID         string      `json:"id"`
	SourcePath string      `json:"source_path"`
	Title      string      `json:"title"`
	Authors    []string    `json:"authors,omitempty"`
	Abstract   string      `json:"abstract,omitempty"`
	Sections   []Section   `json:"sections"`
	Tables     []Table     `json:"tables"`
	Figures    []Figure    `json:"figures"`
	Equations  []Equation  `json:"equations"`
	References []Reference `json:"references"`
	FullText   string      `json:"-"`
	Pages      int         `json:"pages"`
}

// SectionsByClass returns the sections of one class, in document order.
func (d *Document) SectionsByClass(c SectionClass) []Section {
	var out []Section
	for _, s := range d.Sections {
		if s.Class == c {
			out = append(out, s)
		}
	}
	return out
}

// ContentByKind joins the content of every section of one kind, in
// document order. Missing kinds yield "".
func (d *Document) ContentByKind(k SectionKind) string {
	var parts []string
	for _, s := range d.Sections {
		if s.Kind == k && s.Content != "" {
			parts = append(parts, s.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// SectionByName returns the first section whose lowercased name contains
// the given fragment, or nil.
func (d *Document) SectionByName(fragment string) *Section {
	fragment = strings.ToLower(fragment)
	for i := range d.Sections {
		if strings.Contains(strings.ToLower(d.Sections[i].Name), fragment) {
			return &d.Sections[i]
		}
	}
	return nil
}

// Figure returns the figure with the given id.
func (d *Document) Figure(id string) (*Figure, bool) {
	for i := range d.Figures {
		if d.Figures[i].ID == id {
			return &d.Figures[i], true
		}
	}
	return nil, false
}

// Table returns the table with the given id.
func (d *Document) Table(id string) (*Table, bool) {
	for i := range d.Tables {
		if d.Tables[i].ID == id {
			return &d.Tables[i], true
		}
	}
	return nil, false
}

// Equation returns the equation with the given id.
func (d *Document) Equation(id string) (*Equation, bool) {
	for i := range d.Equations {
		if d.Equations[i].ID == id {
			return &d.Equations[i], true
		}
	}
	return nil, false
}
