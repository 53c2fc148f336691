package steps

import (
	"context"
	"fmt"

	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/card"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/step"
)

// ImportStep seeds the card collection from the document's sheet grid: one
// card per grid slot, geometry left for the extract stage.
type ImportStep struct{}

func (ImportStep) ID() string { return "import" }

func (ImportStep) Execute(_ context.Context, _ []card.Data, settings card.WorkflowSettings) ([]card.Data, error) {
	slots := settings.GridColumns * settings.GridRows
	cards := make([]card.Data, 0, slots)
	for i := 0; i < slots; i++ {
		cards = append(cards, card.Data{
			ID:       fmt.Sprintf("card-%d", i+1),
			Selected: true,
		})
	}
	return cards, nil
}

func (ImportStep) GeneratePreview(_ context.Context, _ []card.Data, settings card.WorkflowSettings) (card.PreviewData, error) {
	w, h := pagePixels(settings)
	return card.PreviewData{
		StepID:    "import",
		URL:       "preview/import/sheet",
		Width:     w,
		Height:    h,
		CardCount: settings.GridColumns * settings.GridRows,
		Metadata:  map[string]any{"document": settings.Document},
	}, nil
}

func (ImportStep) Validate(settings card.WorkflowSettings) step.ValidationResult {
	var errs, warns []step.ValidationIssue
	if settings.Document == "" {
		errs = append(errs, step.ValidationIssue{
			Field:   "document",
			Message: "a source document is required",
			Code:    "required",
		})
	}
	errs = requirePositive(settings.GridColumns, "gridColumns", errs)
	errs = requirePositive(settings.GridRows, "gridRows", errs)
	if settings.DPI > 0 && settings.DPI < 150 {
		warns = append(warns, step.ValidationIssue{
			Field:   "dpi",
			Message: "below 150 DPI card images will be blurry",
			Code:    "low-dpi",
		})
	}
	return result(errs, warns)
}
