package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyOrdersLexicographically(t *testing.T) {
	a, b := PairKey("王芳", "李云")
	x, y := PairKey("李云", "王芳")
	assert.Equal(t, a, x)
	assert.Equal(t, b, y)
}

func TestPairKeyIsIdempotentOnEqualNames(t *testing.T) {
	a, b := PairKey("李云", "李云")
	assert.Equal(t, "李云", a)
	assert.Equal(t, "李云", b)
}

func TestRelationPriorityOrdersKinAboveAcquaintance(t *testing.T) {
	assert.Less(t, RelationPriority(RelationKin), RelationPriority(RelationAcquaintance))
	assert.Less(t, RelationPriority(RelationMasterDisciple), RelationPriority(RelationFriend))
}

func TestRelationPriorityUnknownTypeSortsLast(t *testing.T) {
	known := RelationPriority(RelationUnknown)
	unknown := RelationPriority(RelationType("not-a-real-type"))
	assert.Greater(t, unknown, known)
}

func TestChapterWordCountFallsBackToRuneCountBeforeProcessing(t *testing.T) {
	c := Chapter{Text: "李云"}
	assert.Equal(t, 2, c.WordCount())
}

func TestChapterWordCountUsesTokensAfterProcessing(t *testing.T) {
	c := Chapter{
		Text: "李云走了",
		Sentences: []Sentence{
			{Tokens: []Token{{Text: "李云", POS: "nr"}, {Text: "走", POS: "v"}, {Text: "了", POS: "n"}}},
		},
	}
	assert.Equal(t, 3, c.WordCount())
}

func TestEventBeforeOrdersByChapterThenSequence(t *testing.T) {
	earlier := Event{Chapter: 1, Sequence: 2}
	later := Event{Chapter: 1, Sequence: 3}
	nextChapter := Event{Chapter: 2, Sequence: 0}

	assert.True(t, earlier.Before(later))
	assert.False(t, later.Before(earlier))
	assert.True(t, later.Before(nextChapter))
}
