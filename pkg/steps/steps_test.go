package steps_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/card"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/registry"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/steps"
)

func sheetSettings() card.WorkflowSettings {
	return card.WorkflowSettings{
		GridColumns: 3,
		GridRows:    2,
		DPI:         300,
		Document:    "sheet.pdf",
		Format:      "png",
	}
}

func TestImportSeedsCards(t *testing.T) {
	out, err := steps.ImportStep{}.Execute(context.Background(), nil, sheetSettings())
	require.NoError(t, err)
	require.Len(t, out, 6)
	assert.Equal(t, "card-1", out[0].ID)
	assert.Equal(t, "card-6", out[5].ID)
	for _, c := range out {
		assert.True(t, c.Selected)
		assert.False(t, c.Extracted)
	}
}

func TestImportValidate(t *testing.T) {
	tcs := map[string]struct {
		mutate    func(*card.WorkflowSettings)
		wantValid bool
		wantWarn  bool
	}{
		"valid":            {mutate: func(*card.WorkflowSettings) {}, wantValid: true},
		"missing document": {mutate: func(s *card.WorkflowSettings) { s.Document = "" }, wantValid: false},
		"zero grid":        {mutate: func(s *card.WorkflowSettings) { s.GridColumns = 0 }, wantValid: false},
		"low dpi warns":    {mutate: func(s *card.WorkflowSettings) { s.DPI = 72 }, wantValid: true, wantWarn: true},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			s := sheetSettings()
			tc.mutate(&s)
			v := steps.ImportStep{}.Validate(s)
			assert.Equal(t, tc.wantValid, v.Valid)
			if tc.wantWarn {
				assert.NotEmpty(t, v.Warnings)
			}
		})
	}
}

func TestExtractAssignsSlotGeometry(t *testing.T) {
	settings := sheetSettings()
	input, err := steps.ImportStep{}.Execute(context.Background(), nil, settings)
	require.NoError(t, err)

	out, err := steps.ExtractStep{}.Execute(context.Background(), input, settings)
	require.NoError(t, err)
	require.Len(t, out, 6)

	// Letter sheet at 300 DPI is 2550x3300; a 3x2 grid gives 850x1650
	// slots.
	assert.Equal(t, 0.0, out[0].X)
	assert.Equal(t, 850.0, out[1].X)
	assert.Equal(t, 1700.0, out[2].X)
	assert.Equal(t, 0.0, out[2].Y)
	assert.Equal(t, 1650.0, out[3].Y)
	for _, c := range out {
		assert.Equal(t, 850.0, c.Width)
		assert.Equal(t, 1650.0, c.Height)
	}
	// Input is never mutated.
	assert.Zero(t, input[1].X)
}

func TestExtractOptsIntoCaching(t *testing.T) {
	assert.True(t, steps.ExtractStep{}.ShouldCache())
	assert.True(t, steps.ExportStep{}.ShouldCache())
}

func TestConfigureAppliesPageAndOutputSettings(t *testing.T) {
	settings := sheetSettings()
	settings.GridColumns, settings.GridRows = 2, 1
	settings.Pages = map[int]card.PageSettings{
		0: {Rotation: 90},
		1: {Skip: true},
	}
	settings.Output = card.OutputSettings{Width: 750, Height: 1050, OffsetX: 10, OffsetY: -5}

	input := []card.Data{
		{ID: "card-1", X: 0, Y: 0, Selected: true},
		{ID: "card-2", X: 100, Y: 0, Selected: true},
		{ID: "card-3", X: 0, Y: 0, Selected: true},
		{ID: "card-4", X: 100, Y: 0, Selected: true},
	}
	out, err := steps.ConfigureStep{}.Execute(context.Background(), input, settings)
	require.NoError(t, err)

	// First page rotates, second page is skipped.
	assert.Equal(t, 90.0, out[0].Rotation)
	assert.Equal(t, 90.0, out[1].Rotation)
	assert.True(t, out[0].Selected)
	assert.False(t, out[2].Selected)
	assert.False(t, out[3].Selected)

	assert.Equal(t, 110.0, out[1].X)
	assert.Equal(t, -5.0, out[1].Y)
	assert.Equal(t, 750.0, out[1].Width)
	assert.Equal(t, 1050.0, out[1].Height)
}

func TestConfigureValidate(t *testing.T) {
	s := sheetSettings()
	s.Output = card.OutputSettings{Width: -1}
	assert.False(t, steps.ConfigureStep{}.Validate(s).Valid)

	s.Output = card.OutputSettings{}
	v := steps.ConfigureStep{}.Validate(s)
	assert.True(t, v.Valid)
	assert.NotEmpty(t, v.Warnings)
}

func TestExportMarksSelectedCards(t *testing.T) {
	settings := sheetSettings()
	settings.Format = "jpg"
	input := []card.Data{
		{ID: "card-1", Selected: true},
		{ID: "card-2", Selected: false},
	}

	out, err := steps.ExportStep{}.Execute(context.Background(), input, settings)
	require.NoError(t, err)
	assert.True(t, out[0].Extracted)
	assert.Equal(t, "cards/card-1.jpg", out[0].ImageRef)
	assert.False(t, out[1].Extracted)
	assert.Empty(t, out[1].ImageRef)

	require.NoError(t, steps.ExportStep{}.OnAfterExecute(context.Background(), out, settings))
}

func TestExportDefaultsToPNG(t *testing.T) {
	settings := sheetSettings()
	settings.Format = ""
	out, err := steps.ExportStep{}.Execute(context.Background(), []card.Data{{ID: "card-1", Selected: true}}, settings)
	require.NoError(t, err)
	assert.Equal(t, "cards/card-1.png", out[0].ImageRef)
}

func TestExportValidate(t *testing.T) {
	tcs := map[string]struct {
		format    string
		quality   int
		wantValid bool
		wantWarn  bool
	}{
		"png":              {format: "png", quality: 80, wantValid: true},
		"jpeg":             {format: "jpeg", quality: 80, wantValid: true},
		"unknown format":   {format: "webp", quality: 80, wantValid: false},
		"quality too high": {format: "png", quality: 101, wantValid: false},
		"low quality":      {format: "png", quality: 30, wantValid: true, wantWarn: true},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			s := sheetSettings()
			s.Format = tc.format
			s.Quality = tc.quality
			v := steps.ExportStep{}.Validate(s)
			assert.Equal(t, tc.wantValid, v.Valid)
			if tc.wantWarn {
				assert.NotEmpty(t, v.Warnings)
			}
		})
	}
}

func TestPreviews(t *testing.T) {
	settings := sheetSettings()
	input, err := steps.ImportStep{}.Execute(context.Background(), nil, settings)
	require.NoError(t, err)

	pv, err := steps.ExtractStep{}.GeneratePreview(context.Background(), input, settings)
	require.NoError(t, err)
	assert.Equal(t, "extract", pv.StepID)
	assert.Equal(t, 2550, pv.Width)
	assert.Equal(t, 3300, pv.Height)
	assert.Equal(t, 6, pv.CardCount)
	assert.Equal(t, 3, pv.Metadata["gridColumns"])
}

func TestRegisterDefaults(t *testing.T) {
	r := registry.New()
	require.NoError(t, steps.RegisterDefaults(r))

	all := r.All()
	require.Len(t, all, 4)

	order, err := r.ExecutionOrder([]string{"export", "configure", "extract", "import"})
	require.NoError(t, err)
	assert.Equal(t, []string{"import", "extract", "configure", "export"}, order)

	// Registering twice collides on every id.
	assert.Error(t, steps.RegisterDefaults(r))
}
