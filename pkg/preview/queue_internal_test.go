package preview

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderQueueOrdering(t *testing.T) {
	var q renderQueue
	push := func(step string, pr Priority, seq uint64) {
		heap.Push(&q, &queued{req: Request{StepID: step, Priority: pr}, seq: seq})
	}

	push("low-first", PriorityLow, 0)
	push("high", PriorityHigh, 1)
	push("normal", PriorityNormal, 2)
	push("low-second", PriorityLow, 3)
	push("high-later", PriorityHigh, 4)

	var got []string
	for q.Len() > 0 {
		got = append(got, heap.Pop(&q).(*queued).req.StepID)
	}

	// Priority wins; equal priorities pop in insertion order.
	assert.Equal(t, []string{"high", "high-later", "normal", "low-first", "low-second"}, got)
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "high", PriorityHigh.String())
	assert.Equal(t, "normal", PriorityNormal.String())
	assert.Equal(t, "low", PriorityLow.String())
	assert.Equal(t, "low", Priority(-1).String())
}

func TestRequestApply(t *testing.T) {
	base := Request{
		StepID:   "extract",
		Options:  Options{Zoom: 1.0, ShowGrid: true},
		Priority: PriorityNormal,
		CacheKey: "preview:extract",
	}

	got := base.Apply(RequestPatch{
		Options: &OptionsPatch{
			Zoom:          ptr(2.5),
			SelectedCards: []string{"card-1"},
		},
		Priority: ptr(PriorityHigh),
	})

	assert.Equal(t, "extract", got.StepID)
	assert.Equal(t, 2.5, got.Options.Zoom)
	assert.True(t, got.Options.ShowGrid)
	assert.Equal(t, []string{"card-1"}, got.Options.SelectedCards)
	assert.Equal(t, PriorityHigh, got.Priority)
	// A merged request maps to a different key, so the override is
	// dropped.
	assert.Empty(t, got.CacheKey)
}

func ptr[T any](v T) *T { return &v }
