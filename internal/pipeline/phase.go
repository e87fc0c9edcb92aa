// Package pipeline tracks a video through its asynchronous processing
// phases: it reconciles local status against the transcoding provider,
// dispatches phase jobs onto the work queue, derives completeness from the
// stored artifacts, and allows idempotent re-triggering of phases.
package pipeline

import (
	"fmt"
)

// Phase is one discrete AI-processing step of the video pipeline.
type Phase string

const (
	PhaseTranscription   Phase = "transcription"
	PhaseTagging         Phase = "tagging"
	PhaseChapters        Phase = "chapters"
	PhaseAbstract        Phase = "abstract"
	PhaseTitleGeneration Phase = "title_generation"
	PhaseThumbnail       Phase = "thumbnail"

	// PhaseAll restarts the whole chain from transcription. It is accepted
	// by the retrigger entry point only and never dispatched as a job.
	PhaseAll Phase = "all"
)

// phaseChain is the fixed execution order. Each worker dispatches its
// successor after its own artifact write commits; there is no central
// orchestrator advancing the chain.
var phaseChain = []Phase{
	PhaseTranscription,
	PhaseTagging,
	PhaseChapters,
	PhaseAbstract,
	PhaseTitleGeneration,
	PhaseThumbnail,
}

// ParsePhase validates a raw phase value from a request or queue payload.
func ParsePhase(raw string) (Phase, error) {
	p := Phase(raw)
	if p == PhaseAll {
		return p, nil
	}
	for _, known := range phaseChain {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPhase, raw)
}

// Next returns the phase dispatched after p completes. ok is false for the
// final phase and for values outside the chain.
func (p Phase) Next() (Phase, bool) {
	for i, known := range phaseChain {
		if p == known {
			if i == len(phaseChain)-1 {
				return "", false
			}
			return phaseChain[i+1], true
		}
	}
	return "", false
}
