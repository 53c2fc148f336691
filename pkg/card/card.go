// Package card holds the value types shared by every stage of the
// transformation workflow: the card artifacts themselves, the workflow
// settings they are produced under, and rendered preview artifacts.
package card

import "time"

// Data describes a single card artifact on a sheet. Position and size are
// expressed in pixels at the workflow DPI.
type Data struct {
	ID        string
	X         float64
	Y         float64
	Width     float64
	Height    float64
	Rotation  float64
	Selected  bool
	Extracted bool
	// ImageRef points at the extracted image artifact, when one exists.
	ImageRef string
}

// CloneCards returns an independent copy of a card collection.
func CloneCards(cards []Data) []Data {
	if cards == nil {
		return nil
	}
	out := make([]Data, len(cards))
	copy(out, cards)
	return out
}

// PreviewData is a rendered visual approximation of a step's output.
// Exactly one of Image (base64 payload) or URL is normally set.
type PreviewData struct {
	StepID      string
	Image       string
	URL         string
	Width       int
	Height      int
	CardCount   int
	DeltaRender bool
	GeneratedAt time.Time
	Metadata    map[string]any
}

// Clone returns an independent copy, including the metadata map.
func (p PreviewData) Clone() PreviewData {
	out := p
	if p.Metadata != nil {
		out.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
