package pipeline

import (
	"time"

	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/card"
	"github.com/jedundon/card-game-pdf-transformer-sub005/pkg/step"
)

// StepMetrics is the per-step entry of the performance map.
type StepMetrics struct {
	Duration    time.Duration
	MemoryUsage int64
	CacheHits   int64
}

// Metadata tracks processing history. StepHistory is append-only.
type Metadata struct {
	StartTime          time.Time
	LastModified       time.Time
	StepHistory        []string
	PerformanceMetrics map[string]StepMetrics
}

// State is the aggregate pipeline state. The pipeline is its only writer;
// readers receive defensive copies.
type State struct {
	Cards        []card.Data
	Settings     card.WorkflowSettings
	Metadata     Metadata
	StepResults  map[string]*step.Result
	CurrentStep  string
	IsProcessing bool
}

func newState(now time.Time) State {
	return State{
		Metadata: Metadata{
			StartTime:          now,
			LastModified:       now,
			PerformanceMetrics: make(map[string]StepMetrics),
		},
		StepResults: make(map[string]*step.Result),
	}
}

func (s State) snapshot() State {
	out := s
	out.Cards = card.CloneCards(s.Cards)
	out.Settings = s.Settings.Clone()
	out.Metadata.StepHistory = append([]string(nil), s.Metadata.StepHistory...)
	out.Metadata.PerformanceMetrics = make(map[string]StepMetrics, len(s.Metadata.PerformanceMetrics))
	for k, v := range s.Metadata.PerformanceMetrics {
		out.Metadata.PerformanceMetrics[k] = v
	}
	out.StepResults = make(map[string]*step.Result, len(s.StepResults))
	for k, v := range s.StepResults {
		res := v.Clone()
		out.StepResults[k] = &res
	}
	return out
}
