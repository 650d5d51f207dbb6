// Package stages implements the pipeline steps that take a job from source
// URL to transcript, translation, synthesized audio and dubbed video.
package stages

import "context"

// baseStage provides stage identity and a no-op Cleanup.
type baseStage struct {
	id   string
	name string
}

func (s baseStage) ID() string   { return s.id }
func (s baseStage) Name() string { return s.name }

func (s baseStage) Cleanup(ctx context.Context) error { return nil }
