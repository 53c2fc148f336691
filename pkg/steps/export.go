package steps

import (
	"context"
	"fmt"

	"github.com/jedundon/card-game-pdf-transformer-sub005/internal/logging"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/card"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/step"
)

// ExportStep marks the selected cards extracted and assigns each an image
// reference in the configured format. Results are cached.
type ExportStep struct{}

func (ExportStep) ID() string { return "export" }

func (ExportStep) ShouldCache() bool { return true }

func (ExportStep) Execute(_ context.Context, input []card.Data, settings card.WorkflowSettings) ([]card.Data, error) {
	format := settings.Format
	if format == "" {
		format = "png"
	}
	out := card.CloneCards(input)
	for i := range out {
		if !out[i].Selected {
			continue
		}
		out[i].Extracted = true
		out[i].ImageRef = fmt.Sprintf("cards/%s.%s", out[i].ID, format)
	}
	return out, nil
}

// OnAfterExecute reports how many cards were exported.
func (ExportStep) OnAfterExecute(_ context.Context, output []card.Data, _ card.WorkflowSettings) error {
	exported := 0
	for _, c := range output {
		if c.Extracted {
			exported++
		}
	}
	logging.L().Info("cards exported", "count", exported)
	return nil
}

func (ExportStep) GeneratePreview(_ context.Context, input []card.Data, settings card.WorkflowSettings) (card.PreviewData, error) {
	w, h := pagePixels(settings)
	return card.PreviewData{
		StepID:    "export",
		URL:       "preview/export/cards",
		Width:     w,
		Height:    h,
		CardCount: len(input),
		Metadata:  map[string]any{"format": settings.Format, "quality": settings.Quality},
	}, nil
}

func (ExportStep) Validate(settings card.WorkflowSettings) step.ValidationResult {
	var errs, warns []step.ValidationIssue
	switch settings.Format {
	case "", "png", "jpg", "jpeg":
	default:
		errs = append(errs, step.ValidationIssue{
			Field:   "format",
			Message: fmt.Sprintf("unsupported image format %q", settings.Format),
			Code:    "unsupported",
		})
	}
	if settings.Quality < 0 || settings.Quality > 100 {
		errs = append(errs, step.ValidationIssue{
			Field:   "quality",
			Message: "quality must be between 0 and 100",
			Code:    "out-of-range",
		})
	} else if settings.Quality > 0 && settings.Quality < 50 {
		warns = append(warns, step.ValidationIssue{
			Field:   "quality",
			Message: "quality below 50 degrades card images noticeably",
			Code:    "low-quality",
		})
	}
	return result(errs, warns)
}
