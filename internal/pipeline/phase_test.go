package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePhase(t *testing.T) {
	valid := []string{"transcription", "tagging", "chapters", "abstract", "title_generation", "thumbnail", "all"}
	for _, raw := range valid {
		p, err := ParsePhase(raw)
		require.NoError(t, err, raw)
		require.Equal(t, Phase(raw), p)
	}

	invalid := []string{"", "subtitles", "Transcription", "transcoding", "all ", "thumbnails"}
	for _, raw := range invalid {
		_, err := ParsePhase(raw)
		require.ErrorIs(t, err, ErrInvalidPhase, raw)
	}
}

func TestPhaseNext_Chain(t *testing.T) {
	order := []Phase{PhaseTranscription, PhaseTagging, PhaseChapters, PhaseAbstract, PhaseTitleGeneration, PhaseThumbnail}
	for i := 0; i < len(order)-1; i++ {
		next, ok := order[i].Next()
		require.True(t, ok, order[i])
		require.Equal(t, order[i+1], next)
	}

	// The final phase and the pseudo-phase have no successor.
	_, ok := PhaseThumbnail.Next()
	require.False(t, ok)
	_, ok = PhaseAll.Next()
	require.False(t, ok)
}
