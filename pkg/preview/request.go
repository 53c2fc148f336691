// Package preview produces and caches rendered step previews. The actual
// rasterisation is an external collaborator supplied as a RenderFunc; this
// package owns cache-key derivation, de-duplication of concurrent renders,
// delta re-rendering for presentation-only changes and the background
// render queue.
package preview

import (
	"context"
	"time"

	"github.com/jedundon/card-game-pdf-transformer-sub005/internal/keyhash"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/card"
)

// Priority orders queued background renders.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// Options are presentation-only render parameters. Changing any of them
// never changes the underlying card data, which is what makes delta
// re-rendering possible.
type Options struct {
	Zoom          float64
	ShowGrid      bool
	ShowSelection bool
	SelectedCards []string
}

// OptionsPatch is a partial update to Options.
type OptionsPatch struct {
	Zoom          *float64
	ShowGrid      *bool
	ShowSelection *bool
	SelectedCards []string
}

// Request describes one preview render.
type Request struct {
	StepID   string
	Input    []card.Data
	Settings card.WorkflowSettings
	Options  Options
	Priority Priority
	// CacheKey overrides the derived key when set.
	CacheKey string
}

// RequestPatch is a partial update to a Request. Nil fields keep the base
// value; the Options patch merges field by field.
type RequestPatch struct {
	StepID   *string
	Input    []card.Data
	Settings *card.WorkflowSettings
	Options  *OptionsPatch
	Priority *Priority
}

// Apply merges the patch into a copy of r. The derived cache key is
// cleared, since the merged request generally maps to a different one.
func (r Request) Apply(p RequestPatch) Request {
	out := r
	out.CacheKey = ""
	if p.StepID != nil {
		out.StepID = *p.StepID
	}
	if p.Input != nil {
		out.Input = p.Input
	}
	if p.Settings != nil {
		out.Settings = *p.Settings
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Options != nil {
		if p.Options.Zoom != nil {
			out.Options.Zoom = *p.Options.Zoom
		}
		if p.Options.ShowGrid != nil {
			out.Options.ShowGrid = *p.Options.ShowGrid
		}
		if p.Options.ShowSelection != nil {
			out.Options.ShowSelection = *p.Options.ShowSelection
		}
		if p.Options.SelectedCards != nil {
			out.Options.SelectedCards = p.Options.SelectedCards
		}
	}
	return out
}

// Result is the outcome of one preview request. Failures are reported
// through Err; GeneratePreview never propagates an error any other way.
type Result struct {
	Success    bool
	Data       *card.PreviewData
	Err        error
	Cached     bool
	CacheHit   bool
	RenderTime time.Duration
}

// RenderFunc is the external render collaborator. Its timing
// characteristics are opaque to this package.
type RenderFunc func(ctx context.Context, req Request) (card.PreviewData, error)

// keyFields is the canonical subset of a request that a cache key is
// derived from. Field order here is the hash order, so keys stay stable
// regardless of how the request was assembled.
type keyFields struct {
	StepID      string
	InputCount  int
	LeadingIDs  []string
	GridColumns int
	GridRows    int
	DPI         int
	Quality     int
	Format      string
	Options     Options
}

// DeriveKey computes the deterministic cache key for a request: step id,
// input length, the first five card ids, the render-relevant settings and
// the presentation options.
func DeriveKey(req Request) string {
	lead := make([]string, 0, 5)
	for i, c := range req.Input {
		if i == 5 {
			break
		}
		lead = append(lead, c.ID)
	}
	return keyhash.Join("preview", keyFields{
		StepID:      req.StepID,
		InputCount:  len(req.Input),
		LeadingIDs:  lead,
		GridColumns: req.Settings.GridColumns,
		GridRows:    req.Settings.GridRows,
		DPI:         req.Settings.DPI,
		Quality:     req.Settings.Quality,
		Format:      req.Settings.Format,
		Options:     req.Options,
	})
}

// EstimateSize estimates the byte cost of a preview artifact: base64
// payloads decode to roughly three quarters of their encoded length, URLs
// and serialised metadata count two bytes per character.
func EstimateSize(p card.PreviewData) int64 {
	var size int64
	if p.Image != "" {
		size += int64(float64(len(p.Image)) * 0.75)
	}
	if p.URL != "" {
		size += int64(2 * len(p.URL))
	}
	if len(p.Metadata) > 0 {
		size += int64(2 * len(keyhash.Canonical(p.Metadata)))
	}
	return size
}
