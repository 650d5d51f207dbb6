package core

import (
	"math"
	"sync"
)

// stageWeights is the relative cost of each stage in a full dub run.
// Pipelines that omit stages renormalize over the stages they include.
var stageWeights = map[string]int{
	StageDownload:   5,
	StageDecode:     5,
	StageRecognize:  20,
	StageSegment:    5,
	StagePostEdit:   10,
	StageTranslate:  10,
	StageSynthesize: 30,
	StageMux:        15,
}

// StageWeight returns a stage's weight in the overall progress calculation.
func StageWeight(stageID string) int {
	if w, ok := stageWeights[stageID]; ok {
		return w
	}
	return 1
}

// Tracker aggregates per-stage progress fractions into one 0-100 percent
// figure. The reported value is the floor of the weighted sum and never
// decreases.
type Tracker struct {
	mu        sync.Mutex
	weights   map[string]int
	total     int
	fractions map[string]float64
	last      int
	report    func(percent int)
}

// NewTracker creates a tracker over the given stage ids. report may be nil.
func NewTracker(stageIDs []string, report func(int)) *Tracker {
	t := &Tracker{
		weights:   make(map[string]int, len(stageIDs)),
		fractions: make(map[string]float64, len(stageIDs)),
		report:    report,
	}
	for _, id := range stageIDs {
		w := StageWeight(id)
		t.weights[id] = w
		t.total += w
	}
	return t
}

// Update records a stage's progress fraction (0.0-1.0) and reports the new
// overall percentage when it advanced.
func (t *Tracker) Update(stageID string, fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	t.mu.Lock()
	if _, ok := t.weights[stageID]; !ok {
		t.mu.Unlock()
		return
	}
	if fraction > t.fractions[stageID] {
		t.fractions[stageID] = fraction
	}
	pct := t.percentLocked()
	changed := pct > t.last
	if changed {
		t.last = pct
	}
	report := t.report
	t.mu.Unlock()

	if changed && report != nil {
		report(pct)
	}
}

// Complete marks a stage fully done.
func (t *Tracker) Complete(stageID string) {
	t.Update(stageID, 1)
}

// Percent returns the current overall percentage.
func (t *Tracker) Percent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percentLocked()
}

func (t *Tracker) percentLocked() int {
	if t.total == 0 {
		return 0
	}
	var sum float64
	for id, w := range t.weights {
		sum += float64(w) * t.fractions[id]
	}
	pct := int(math.Floor(sum / float64(t.total) * 100))
	if pct < t.last {
		return t.last
	}
	return pct
}
