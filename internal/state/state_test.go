package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corphon/novelgraph/internal/config"
	"github.com/corphon/novelgraph/internal/lexicon"
	"github.com/corphon/novelgraph/internal/models"
)

func tok(text, pos string) models.Token {
	return models.Token{Text: text, POS: pos}
}

func sentence(idx int, text string, tokens ...models.Token) models.Sentence {
	return models.Sentence{Index: idx, Text: text, Tokens: tokens}
}

func TestTrackOnlyCoversMainCharacters(t *testing.T) {
	novel := &models.Novel{
		Chapters: []models.Chapter{
			{Index: 1, Sentences: []models.Sentence{
				sentence(0, "李云与王芳一同赶路", tok("李云", "nr"), tok("王芳", "nr")),
			}},
		},
	}
	characters := []models.Character{
		{Name: "李云", Aliases: []string{"李云"}, Classification: models.ClassificationMain, FirstAppearance: 1},
		{Name: "王芳", Aliases: []string{"王芳"}, Classification: models.ClassificationSupporting, FirstAppearance: 1},
	}

	tr := NewTracker(lexicon.Default(), config.DefaultThresholds())
	result := tr.Track(novel, characters, nil)

	for _, s := range result.States {
		assert.Equal(t, "李云", s.Character)
	}
	require.Len(t, result.States, len(models.StateAxes))
}

func TestTrackRecordsTransitionOnInjury(t *testing.T) {
	novel := &models.Novel{
		Chapters: []models.Chapter{
			{Index: 1, Sentences: []models.Sentence{
				sentence(0, "李云受伤了", tok("李云", "nr")),
			}},
			{Index: 2, Sentences: []models.Sentence{
				sentence(0, "李云平静无事", tok("李云", "nr")),
			}},
		},
	}
	characters := []models.Character{
		{Name: "李云", Aliases: []string{"李云"}, Classification: models.ClassificationMain, FirstAppearance: 1},
	}
	events := []models.Event{
		{ID: "e-low", Chapter: 1, Participants: []string{"李云"}, ImportanceScore: 0.3},
		{ID: "e-high", Chapter: 1, Participants: []string{"李云"}, ImportanceScore: 0.9},
	}

	tr := NewTracker(lexicon.Default(), config.DefaultThresholds())
	result := tr.Track(novel, characters, events)

	require.Len(t, result.States, 2*len(models.StateAxes))
	for _, s := range result.States {
		assert.GreaterOrEqual(t, s.Value, 0.0)
		assert.LessOrEqual(t, s.Value, 1.0)
	}

	require.Len(t, result.Transitions, 1)
	transition := result.Transitions[0]
	assert.Equal(t, models.AxisHealth, transition.Axis)
	assert.Equal(t, 1, transition.FromChapter)
	assert.Equal(t, 1, transition.ToChapter)
	assert.InDelta(t, -0.2, transition.Delta, 1e-9)
	assert.Equal(t, "e-high", transition.CauseEventID)

	var healthCh1, healthCh2 models.CharacterState
	for _, s := range result.States {
		if s.Axis != models.AxisHealth {
			continue
		}
		if s.Chapter == 1 {
			healthCh1 = s
		} else if s.Chapter == 2 {
			healthCh2 = s
		}
	}
	assert.InDelta(t, 0.3, healthCh1.Value, 1e-9)
	assert.InDelta(t, 0.3, healthCh2.Value, 1e-9, "value carries forward when no new effect fires")
}

func TestTrackClampsValueAtLowerBound(t *testing.T) {
	novel := &models.Novel{
		Chapters: []models.Chapter{
			{Index: 1, Sentences: []models.Sentence{sentence(0, "李云重伤", tok("李云", "nr"))}},
			{Index: 2, Sentences: []models.Sentence{sentence(0, "李云重伤", tok("李云", "nr"))}},
			{Index: 3, Sentences: []models.Sentence{sentence(0, "李云重伤", tok("李云", "nr"))}},
		},
	}
	characters := []models.Character{
		{Name: "李云", Aliases: []string{"李云"}, Classification: models.ClassificationMain, FirstAppearance: 1},
	}

	tr := NewTracker(lexicon.Default(), config.DefaultThresholds())
	result := tr.Track(novel, characters, nil)

	var lastHealth models.CharacterState
	for _, s := range result.States {
		if s.Axis == models.AxisHealth && s.Chapter == 3 {
			lastHealth = s
		}
	}
	assert.Equal(t, 0.0, lastHealth.Value)
	assert.GreaterOrEqual(t, lastHealth.Value, 0.0)
}

func TestTrackEmptyCharactersProducesEmptyResult(t *testing.T) {
	novel := &models.Novel{Chapters: []models.Chapter{{Index: 1}}}
	tr := NewTracker(lexicon.Default(), config.DefaultThresholds())
	result := tr.Track(novel, nil, nil)
	assert.Empty(t, result.States)
	assert.Empty(t, result.Transitions)
}
