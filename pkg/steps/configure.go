package steps

import (
	"context"

	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/card"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/step"
)

// ConfigureStep applies per-page rotation and the output geometry offsets
// to the extracted cards.
type ConfigureStep struct{}

func (ConfigureStep) ID() string { return "configure" }

func (ConfigureStep) Execute(_ context.Context, input []card.Data, settings card.WorkflowSettings) ([]card.Data, error) {
	perPage := settings.GridColumns * settings.GridRows
	out := card.CloneCards(input)
	for i := range out {
		if perPage > 0 {
			page := i / perPage
			if ps, ok := settings.Pages[page]; ok {
				if ps.Skip {
					out[i].Selected = false
				}
				out[i].Rotation = ps.Rotation
			}
		}
		out[i].X += settings.Output.OffsetX
		out[i].Y += settings.Output.OffsetY
		if settings.Output.Width > 0 {
			out[i].Width = settings.Output.Width
		}
		if settings.Output.Height > 0 {
			out[i].Height = settings.Output.Height
		}
	}
	return out, nil
}

func (ConfigureStep) GeneratePreview(_ context.Context, input []card.Data, settings card.WorkflowSettings) (card.PreviewData, error) {
	selected := 0
	for _, c := range input {
		if c.Selected {
			selected++
		}
	}
	w, h := pagePixels(settings)
	return card.PreviewData{
		StepID:    "configure",
		URL:       "preview/configure/layout",
		Width:     w,
		Height:    h,
		CardCount: selected,
		Metadata:  map[string]any{"output": settings.Output},
	}, nil
}

func (ConfigureStep) Validate(settings card.WorkflowSettings) step.ValidationResult {
	var errs, warns []step.ValidationIssue
	if settings.Output.Width < 0 || settings.Output.Height < 0 {
		errs = append(errs, step.ValidationIssue{
			Field:   "output",
			Message: "output dimensions cannot be negative",
			Code:    "out-of-range",
		})
	}
	if settings.Output.Width == 0 && settings.Output.Height == 0 {
		warns = append(warns, step.ValidationIssue{
			Field:   "output",
			Message: "no output size set, keeping extracted card size",
			Code:    "defaulted",
		})
	}
	return result(errs, warns)
}
