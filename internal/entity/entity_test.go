package entity

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

func TestExtractFindsCandidatesAboveMinMentions(t *testing.T) {
	novel := &models.Novel{
		ID: "n1",
		Chapters: []models.Chapter{
			{Index: 1, Sentences: []models.Sentence{
				sentence(0, "李云到了泰山", tok("李云", "nr"), tok("泰山", "ns")),
				sentence(1, "李云很高兴", tok("李云", "nr")),
				sentence(2, "李云离开了", tok("李云", "nr")),
				sentence(3, "王芳也来了", tok("王芳", "nr")),
				sentence(4, "王芳笑了", tok("王芳", "nr")),
				sentence(5, "王芳回家了", tok("王芳", "nr")),
			}},
		},
	}

	e := NewExtractor(lexicon.Default(), config.DefaultThresholds())
	characters, locations, err := e.Extract(novel)
	require.NoError(t, err)
	require.Len(t, characters, 2)
	assert.Equal(t, "李云", characters[0].Name)
	assert.Equal(t, "王芳", characters[1].Name)
	assert.Equal(t, 3, characters[0].MentionCount)
	require.Len(t, locations, 1)
	assert.Equal(t, "泰山", locations[0].Name)
	assert.Equal(t, models.LocationMountain, locations[0].Type)
}

func TestExtractFiltersBelowMinMentions(t *testing.T) {
	novel := &models.Novel{
		ID: "n1",
		Chapters: []models.Chapter{
			{Index: 1, Sentences: []models.Sentence{
				sentence(0, "李云来了", tok("李云", "nr")),
				sentence(1, "王芳来了一次", tok("王芳", "nr")),
				sentence(2, "王芳又来了", tok("王芳", "nr")),
				sentence(3, "王芳再来了", tok("王芳", "nr")),
			}},
		},
	}

	thresholds := config.DefaultThresholds()
	thresholds.MinMentions = 3
	e := NewExtractor(lexicon.Default(), thresholds)
	_, _, err := e.Extract(novel)
	require.Error(t, err, "李云 only has one mention and should be filtered, leaving fewer than two characters")
}

func TestExtractMergesAliasesBySuffixCoOccurrence(t *testing.T) {
	novel := &models.Novel{
		ID: "n1",
		Chapters: []models.Chapter{
			{Index: 1, Sentences: []models.Sentence{
				sentence(0, "李云和云一起", tok("李云", "nr"), tok("云", "nr")),
				sentence(1, "李云和云又见面", tok("李云", "nr"), tok("云", "nr")),
				sentence(2, "李云来了", tok("李云", "nr")),
				sentence(3, "云笑了", tok("云", "nr")),
				sentence(4, "王芳来了", tok("王芳", "nr")),
				sentence(5, "王芳又来了", tok("王芳", "nr")),
				sentence(6, "王芳再来了", tok("王芳", "nr")),
			}},
		},
	}

	thresholds := config.DefaultThresholds()
	thresholds.AliasCoOccurrenceK = 2
	e := NewExtractor(lexicon.Default(), thresholds)
	characters, _, err := e.Extract(novel)
	require.NoError(t, err)
	require.Len(t, characters, 2)

	var merged *models.Character
	for i := range characters {
		if characters[i].Name == "李云" {
			merged = &characters[i]
		}
	}
	require.NotNil(t, merged)
	assert.ElementsMatch(t, []string{"李云", "云"}, merged.Aliases)
}

func TestExtractNoEntitiesFoundOnDegenerateNovel(t *testing.T) {
	novel := &models.Novel{
		ID: "n1",
		Chapters: []models.Chapter{
			{Index: 1, Sentences: []models.Sentence{
				sentence(0, "什么都没有发生"),
			}},
		},
	}

	e := NewExtractor(lexicon.Default(), config.DefaultThresholds())
	_, _, err := e.Extract(novel)
	require.Error(t, err)
}

func TestPinyinKeyIsDeterministic(t *testing.T) {
	a := pinyinKey("李云")
	b := pinyinKey("李云")
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
}
