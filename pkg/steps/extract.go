package steps

import (
	"context"

	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/card"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/step"
)

// ExtractStep assigns each card its slot geometry on the sheet: position
// and size in pixels at the workflow DPI. Results are cached; the same
// input under the same grid always extracts identically.
type ExtractStep struct{}

func (ExtractStep) ID() string { return "extract" }

func (ExtractStep) ShouldCache() bool { return true }

func (ExtractStep) Execute(_ context.Context, input []card.Data, settings card.WorkflowSettings) ([]card.Data, error) {
	pageW, pageH := pagePixels(settings)
	cols, rows := settings.GridColumns, settings.GridRows
	cardW := float64(pageW) / float64(cols)
	cardH := float64(pageH) / float64(rows)

	out := card.CloneCards(input)
	for i := range out {
		slot := i % (cols * rows)
		col := slot % cols
		row := slot / cols
		out[i].X = float64(col) * cardW
		out[i].Y = float64(row) * cardH
		out[i].Width = cardW
		out[i].Height = cardH
	}
	return out, nil
}

func (ExtractStep) GeneratePreview(_ context.Context, input []card.Data, settings card.WorkflowSettings) (card.PreviewData, error) {
	w, h := pagePixels(settings)
	return card.PreviewData{
		StepID:    "extract",
		URL:       "preview/extract/grid",
		Width:     w,
		Height:    h,
		CardCount: len(input),
		Metadata: map[string]any{
			"gridColumns": settings.GridColumns,
			"gridRows":    settings.GridRows,
		},
	}, nil
}

func (ExtractStep) Validate(settings card.WorkflowSettings) step.ValidationResult {
	var errs []step.ValidationIssue
	errs = requirePositive(settings.GridColumns, "gridColumns", errs)
	errs = requirePositive(settings.GridRows, "gridRows", errs)
	errs = requirePositive(settings.DPI, "dpi", errs)
	return result(errs, nil)
}
