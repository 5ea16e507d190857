package emotion

import (
	"math"
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

func TestAnalyzeChapterDistributionSumsToOne(t *testing.T) {
	novel := &models.Novel{
		Chapters: []models.Chapter{
			{Index: 1, Sentences: []models.Sentence{
				sentence(0, "李云很开心", tok("李云", "nr")),
				sentence(1, "王芳有些害怕", tok("王芳", "nr")),
			}},
		},
	}
	characters := []models.Character{
		{Name: "李云", Aliases: []string{"李云"}},
		{Name: "王芳", Aliases: []string{"王芳"}},
	}

	a := NewAnalyzer(lexicon.Default(), config.DefaultThresholds())
	result := a.Analyze(novel, characters)
	require.Len(t, result.ChapterEmotions, 1)

	sum := 0.0
	for _, v := range result.ChapterEmotions[0].Distribution {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.GreaterOrEqual(t, result.ChapterEmotions[0].Sentiment, -1.0)
	assert.LessOrEqual(t, result.ChapterEmotions[0].Sentiment, 1.0)
}

func TestAnalyzeNeutralChapterIsUniformDistribution(t *testing.T) {
	novel := &models.Novel{
		Chapters: []models.Chapter{
			{Index: 1, Sentences: []models.Sentence{
				sentence(0, "天色渐渐暗了下来"),
			}},
		},
	}
	a := NewAnalyzer(lexicon.Default(), config.DefaultThresholds())
	result := a.Analyze(novel, nil)
	require.Len(t, result.ChapterEmotions, 1)
	assert.Equal(t, 0.0, result.ChapterEmotions[0].Sentiment)
	for _, cat := range models.EmotionCategories {
		assert.InDelta(t, 1.0/float64(len(models.EmotionCategories)), result.ChapterEmotions[0].Distribution[cat], 1e-9)
	}
}

func TestAnalyzeCharacterEmotionRequiresSharedSentence(t *testing.T) {
	novel := &models.Novel{
		Chapters: []models.Chapter{
			{Index: 1, Sentences: []models.Sentence{
				sentence(0, "李云独自开心", tok("李云", "nr")),
				sentence(1, "王芳独自害怕", tok("王芳", "nr")),
			}},
		},
	}
	characters := []models.Character{
		{Name: "李云", Aliases: []string{"李云"}},
		{Name: "王芳", Aliases: []string{"王芳"}},
	}
	a := NewAnalyzer(lexicon.Default(), config.DefaultThresholds())
	result := a.Analyze(novel, characters)
	assert.Empty(t, result.CharacterEmotions)
}

func TestAnalyzeCharacterEmotionOnSharedSentence(t *testing.T) {
	novel := &models.Novel{
		Chapters: []models.Chapter{
			{Index: 1, Sentences: []models.Sentence{
				sentence(0, "李云对王芳感到愤怒", tok("李云", "nr"), tok("王芳", "nr")),
			}},
		},
	}
	characters := []models.Character{
		{Name: "李云", Aliases: []string{"李云"}},
		{Name: "王芳", Aliases: []string{"王芳"}},
	}
	a := NewAnalyzer(lexicon.Default(), config.DefaultThresholds())
	result := a.Analyze(novel, characters)
	require.NotEmpty(t, result.CharacterEmotions)
	for _, ce := range result.CharacterEmotions {
		assert.GreaterOrEqual(t, ce.Intensity, 0.0)
		assert.LessOrEqual(t, ce.Intensity, 1.0)
	}
}

func TestDetectPeaksEmptyInputIsNil(t *testing.T) {
	a := NewAnalyzer(lexicon.Default(), config.DefaultThresholds())
	assert.Nil(t, a.detectPeaks(nil))
}

func TestDetectPeaksFlatCurveHasNoPeaks(t *testing.T) {
	chapters := []models.ChapterEmotion{
		{Chapter: 1, Sentiment: 0},
		{Chapter: 2, Sentiment: 0},
		{Chapter: 3, Sentiment: 0},
	}
	a := NewAnalyzer(lexicon.Default(), config.DefaultThresholds())
	assert.Empty(t, a.detectPeaks(chapters))
}

func TestDetectPeaksFindsHighOutlier(t *testing.T) {
	chapters := []models.ChapterEmotion{
		{Chapter: 1, Sentiment: 0},
		{Chapter: 2, Sentiment: 0},
		{Chapter: 3, Sentiment: 10},
		{Chapter: 4, Sentiment: 0},
		{Chapter: 5, Sentiment: 0},
	}
	a := NewAnalyzer(lexicon.Default(), config.DefaultThresholds())
	peaks := a.detectPeaks(chapters)
	require.NotEmpty(t, peaks)
	var sawHigh bool
	for _, p := range peaks {
		if p.Kind == models.PeakHigh {
			sawHigh = true
			assert.Equal(t, 3, p.Chapter)
		}
	}
	assert.True(t, sawHigh)
}

func TestMeanSentimentEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, meanSentiment(nil))
}

func TestAbsf(t *testing.T) {
	assert.Equal(t, 1.5, absf(-1.5))
	assert.Equal(t, math.Abs(-2.5), absf(-2.5))
}
