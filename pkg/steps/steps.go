// Package steps contains the concrete workflow stages: import, extract,
// configure and export. Each satisfies the step contract; the pipeline
// itself never depends on any of them.
package steps

import (
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/card"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/registry"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/step"
)

// Card sheets are letter-sized.
const (
	pageWidthInches  = 8.5
	pageHeightInches = 11.0
)

func pagePixels(settings card.WorkflowSettings) (w, h int) {
	return int(pageWidthInches * float64(settings.DPI)), int(pageHeightInches * float64(settings.DPI))
}

func requirePositive(v int, field string, issues []step.ValidationIssue) []step.ValidationIssue {
	if v <= 0 {
		issues = append(issues, step.ValidationIssue{
			Field:   field,
			Message: "must be greater than zero",
			Code:    "out-of-range",
		})
	}
	return issues
}

func result(errs, warns []step.ValidationIssue) step.ValidationResult {
	return step.ValidationResult{Valid: len(errs) == 0, Errors: errs, Warnings: warns}
}

// RegisterDefaults registers the four stages with their descriptors and
// dependency chain (import -> extract -> configure -> export).
func RegisterDefaults(r *registry.Registry) error {
	regs := []struct {
		s    step.Step
		info step.Info
	}{
		{ImportStep{}, step.Info{
			Name:        "Import document",
			Description: "Loads the card sheet document and seeds the card collection",
			Category:    "input",
			Version:     "1.0.0",
			Tags:        []string{"document", "grid"},
		}},
		{ExtractStep{}, step.Info{
			Name:         "Extract cards",
			Description:  "Computes per-card position and size from the sheet grid",
			Category:     "transform",
			Version:      "1.0.0",
			Dependencies: []string{"import"},
			Tags:         []string{"grid", "geometry"},
		}},
		{ConfigureStep{}, step.Info{
			Name:         "Configure cards",
			Description:  "Applies page rotation and output geometry to the cards",
			Category:     "transform",
			Version:      "1.0.0",
			Dependencies: []string{"extract"},
			Tags:         []string{"geometry"},
		}},
		{ExportStep{}, step.Info{
			Name:         "Export cards",
			Description:  "Marks selected cards extracted and assigns image references",
			Category:     "output",
			Version:      "1.0.0",
			Dependencies: []string{"configure"},
			Tags:         []string{"output"},
		}},
	}
	for _, reg := range regs {
		if err := r.Register(reg.s, reg.info); err != nil {
			return err
		}
	}
	return nil
}
