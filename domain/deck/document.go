package deck

import "fmt"

// ElementKind discriminates page element types as reported by the document
// service.
type ElementKind string

const (
	ElementTextBox ElementKind = "TEXT_BOX"
	ElementShape   ElementKind = "SHAPE"
	ElementImage   ElementKind = "IMAGE"
	ElementVideo   ElementKind = "VIDEO"
	ElementTable   ElementKind = "TABLE"
	ElementUnknown ElementKind = "UNKNOWN"
)

// PageElement is one element on a slide. Text carries the run-concatenated
// text for text-bearing elements; Left/Top are the placement transform.
type PageElement struct {
	ID   string
	Kind ElementKind
	Text string
	Left float64
	Top  float64
}

// Slide is one page of a fetched presentation.
type Slide struct {
	ID       string
	Elements []PageElement
}

// Document is a full presentation snapshot: an ordered list of slides. It is
// fetched once per run and reused for every slide update.
type Document struct {
	ID     string
	Title  string
	Slides []Slide
}

// SlideAt returns the slide at a zero-based index, failing when the index is
// outside the document. An out-of-range slide index is a layout fault, fatal
// to the run.
func (d *Document) SlideAt(index int) (*Slide, error) {
	if index < 0 || index >= len(d.Slides) {
		return nil, fmt.Errorf("slide index %d out of range: presentation has %d slides", index, len(d.Slides))
	}
	return &d.Slides[index], nil
}

// TextRegions collects the slide's text boxes as placeholder regions, sorted
// into reading order.
func (s *Slide) TextRegions() []PlaceholderRegion {
	var regions []PlaceholderRegion
	for _, el := range s.Elements {
		if el.Kind != ElementTextBox {
			continue
		}
		regions = append(regions, PlaceholderRegion{
			ID:   el.ID,
			Text: el.Text,
			Top:  el.Top,
			Left: el.Left,
		})
	}
	SortRegions(regions)
	return regions
}

// ElementSummary is one row of a read-only slide inspection.
type ElementSummary struct {
	ObjectID string `json:"object_id"`
	Kind     string `json:"type"`
	Text     string `json:"text"`
}

// SlideSummary describes one slide's elements for template authoring.
type SlideSummary struct {
	SlideIndex int              `json:"slide_index"`
	SlideID    string           `json:"slide_id"`
	Elements   []ElementSummary `json:"elements"`
}

// Inspect returns a structured summary of one slide: element ids, type
// discriminators, and concatenated text. No mutations, no API calls.
func (d *Document) Inspect(index int) (*SlideSummary, error) {
	slide, err := d.SlideAt(index)
	if err != nil {
		return nil, err
	}

	summary := &SlideSummary{
		SlideIndex: index,
		SlideID:    slide.ID,
		Elements:   make([]ElementSummary, 0, len(slide.Elements)),
	}
	for _, el := range slide.Elements {
		summary.Elements = append(summary.Elements, ElementSummary{
			ObjectID: el.ID,
			Kind:     string(el.Kind),
			Text:     el.Text,
		})
	}
	return summary, nil
}

// InspectAll summarizes every slide in the document.
func (d *Document) InspectAll() []*SlideSummary {
	summaries := make([]*SlideSummary, 0, len(d.Slides))
	for i := range d.Slides {
		summary, _ := d.Inspect(i)
		summaries = append(summaries, summary)
	}
	return summaries
}
