package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsStable(t *testing.T) {
	a := Default()
	b := Default()
	assert.Equal(t, a.StopWords, b.StopWords)
	assert.Equal(t, len(a.RelationPatterns), len(b.RelationPatterns))
}

func TestIsStopWord(t *testing.T) {
	lex := Default()
	assert.True(t, lex.IsStopWord("的"))
	assert.False(t, lex.IsStopWord("李云"))
}

func TestLooksLikeSurnameSingleChar(t *testing.T) {
	lex := Default()
	assert.True(t, lex.LooksLikeSurname("李云"))
	assert.True(t, lex.LooksLikeSurname("王芳"))
}

func TestLooksLikeSurnameCompound(t *testing.T) {
	lex := Default()
	assert.True(t, lex.LooksLikeSurname("欧阳锋"))
}

func TestLooksLikeSurnameRejectsUnknown(t *testing.T) {
	lex := Default()
	assert.False(t, lex.LooksLikeSurname("您好"))
}

func TestHasLocationSuffix(t *testing.T) {
	lex := Default()
	assert.True(t, lex.HasLocationSuffix("泰山"))
	assert.True(t, lex.HasLocationSuffix("长安城"))
	assert.False(t, lex.HasLocationSuffix("李云"))
}

func TestRelationPatternsCoverKinTypes(t *testing.T) {
	lex := Default()
	var sawKin bool
	for _, p := range lex.RelationPatterns {
		if p.Type == "kin" {
			sawKin = true
		}
	}
	assert.True(t, sawKin)
}

func TestEmotionWordsCoverAllCategories(t *testing.T) {
	lex := Default()
	seen := map[string]bool{}
	for _, w := range lex.EmotionWords {
		seen[w.Category] = true
	}
	for _, cat := range []string{"joy", "sadness", "anger", "fear", "surprise", "disgust"} {
		assert.True(t, seen[cat], "missing emotion words for category %s", cat)
	}
}
