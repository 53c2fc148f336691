package card

// PageSettings overrides behaviour for a single source page.
type PageSettings struct {
	Skip     bool
	Rotation float64
}

// OutputSettings describes the geometry of the exported card images.
type OutputSettings struct {
	Width   float64
	Height  float64
	OffsetX float64
	OffsetY float64
}

// WorkflowSettings is the single configuration record the pipeline holds.
// It is treated as an opaque value by the orchestration layer; only steps
// interpret individual fields.
type WorkflowSettings struct {
	GridColumns int
	GridRows    int
	DPI         int
	Quality     int
	Format      string
	// Document is an opaque handle to the source document.
	Document string
	Pages    map[int]PageSettings
	Output   OutputSettings
}

// Clone returns an independent copy, including the per-page map.
func (s WorkflowSettings) Clone() WorkflowSettings {
	out := s
	if s.Pages != nil {
		out.Pages = make(map[int]PageSettings, len(s.Pages))
		for k, v := range s.Pages {
			out.Pages[k] = v
		}
	}
	return out
}

// SettingsPatch is a partial update to WorkflowSettings. Nil fields leave
// the current value untouched; set fields overwrite it.
type SettingsPatch struct {
	GridColumns *int
	GridRows    *int
	DPI         *int
	Quality     *int
	Format      *string
	Document    *string
	Pages       map[int]PageSettings
	Output      *OutputSettings
}

// Apply merges the patch into a copy of s and returns it. The merge is
// shallow: a set Pages map or Output record replaces the previous one
// wholesale.
func (s WorkflowSettings) Apply(p SettingsPatch) WorkflowSettings {
	out := s.Clone()
	if p.GridColumns != nil {
		out.GridColumns = *p.GridColumns
	}
	if p.GridRows != nil {
		out.GridRows = *p.GridRows
	}
	if p.DPI != nil {
		out.DPI = *p.DPI
	}
	if p.Quality != nil {
		out.Quality = *p.Quality
	}
	if p.Format != nil {
		out.Format = *p.Format
	}
	if p.Document != nil {
		out.Document = *p.Document
	}
	if p.Pages != nil {
		out.Pages = make(map[int]PageSettings, len(p.Pages))
		for k, v := range p.Pages {
			out.Pages[k] = v
		}
	}
	if p.Output != nil {
		out.Output = *p.Output
	}
	return out
}

// Int returns a pointer to v, for building patches inline.
func Int(v int) *int { return &v }

// Str returns a pointer to v, for building patches inline.
func Str(v string) *string { return &v }

// Bool returns a pointer to v, for building patches inline.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v, for building patches inline.
func Float(v float64) *float64 { return &v }
