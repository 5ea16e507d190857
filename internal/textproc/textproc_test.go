package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corphon/novelgraph/internal/lexicon"
	"github.com/corphon/novelgraph/internal/models"
)

func fakeSentences(n int) []models.Sentence {
	out := make([]models.Sentence, n)
	for i := range out {
		out[i] = models.Sentence{Index: i}
	}
	return out
}

func TestSegmentSentences(t *testing.T) {
	text := "李云在山中修炼。忽然一声巨响！他是谁？"
	got := SegmentSentences(text)
	assert.Equal(t, []string{"李云在山中修炼", "忽然一声巨响", "他是谁"}, got)
}

func TestSegmentSentencesFoldsFullWidth(t *testing.T) {
	got := SegmentSentences("你好！再见")
	assert.Equal(t, []string{"你好", "再见"}, got)
}

func TestSegmentSentencesDropsEmptyFragments(t *testing.T) {
	got := SegmentSentences("。。。只有这一句。。。")
	assert.Equal(t, []string{"只有这一句"}, got)
}

func TestTokenizeRecognizesDictionaryWords(t *testing.T) {
	p := NewProcessor(lexicon.Default())
	tokens := p.Tokenize("公子突然大怒")
	var texts []string
	for _, tok := range tokens {
		texts = append(texts, tok.Text)
	}
	assert.Contains(t, texts, "公子")
	assert.Contains(t, texts, "突然")
	assert.Contains(t, texts, "怒")
}

func TestTokenizeSurnameSpanTagsPersonName(t *testing.T) {
	p := NewProcessor(lexicon.Default())
	tokens := p.Tokenize("李云")
	require.Len(t, tokens, 1)
	assert.Equal(t, "李云", tokens[0].Text)
	assert.Equal(t, "nr", tokens[0].POS)
}

func TestTokenizeLocationSuffixTagsPlaceName(t *testing.T) {
	p := NewProcessor(lexicon.Default())
	tokens := p.Tokenize("泰山")
	require.NotEmpty(t, tokens)
	var sawLocation bool
	for _, tok := range tokens {
		if tok.POS == "ns" {
			sawLocation = true
		}
	}
	assert.True(t, sawLocation)
}

func TestProcessRejectsEmptyText(t *testing.T) {
	p := NewProcessor(lexicon.Default())
	_, err := p.Process("   ")
	require.Error(t, err)
}

func TestProcessProducesTaggedSentences(t *testing.T) {
	p := NewProcessor(lexicon.Default())
	sentences, err := p.Process("李云遇到了王芳。两人相谈甚欢。")
	require.NoError(t, err)
	require.Len(t, sentences, 2)
	assert.Equal(t, 0, sentences[0].Index)
	assert.Equal(t, 1, sentences[1].Index)
	assert.NotEmpty(t, sentences[0].Tokens)
}

func TestFilterStopWords(t *testing.T) {
	p := NewProcessor(lexicon.Default())
	tokens := []models.Token{
		{Text: "李云", POS: "nr"},
		{Text: "的", POS: "n"},
		{Text: "师父", POS: "n"},
	}
	filtered := p.FilterStopWords(tokens)
	require.Len(t, filtered, 2)
	for _, tok := range filtered {
		assert.False(t, p.lex.IsStopWord(tok.Text))
	}
}

func TestExtractDialogueCurlyQuotes(t *testing.T) {
	got := ExtractDialogue("李云说：“我要走了。”")
	require.Len(t, got, 1)
	assert.Equal(t, "我要走了。", got[0])
}

func TestExtractDialogueCornerQuotes(t *testing.T) {
	got := ExtractDialogue("她低声道：「别怕」")
	require.Len(t, got, 1)
	assert.Equal(t, "别怕", got[0])
}

func TestExtractDialogueUnterminatedIsTolerant(t *testing.T) {
	got := ExtractDialogue("他说：“没有结束的引号")
	require.Len(t, got, 1)
	assert.Equal(t, "没有结束的引号", got[0])
}

func TestExtractDialogueNoQuotesReturnsEmpty(t *testing.T) {
	got := ExtractDialogue("没有任何对话标记")
	assert.Empty(t, got)
}

func TestWindowSlidesWithStrideOne(t *testing.T) {
	ws := Window(fakeSentences(5), 3)
	require.Len(t, ws, 3)
	assert.Len(t, ws[0], 3)
	assert.Equal(t, 0, ws[0][0].Index)
	assert.Equal(t, 2, ws[0][2].Index)
	assert.Equal(t, 1, ws[1][0].Index)
}

func TestWindowSizeExceedingLengthReturnsSingleWindow(t *testing.T) {
	ws := Window(fakeSentences(2), 10)
	require.Len(t, ws, 1)
	assert.Len(t, ws[0], 2)
}

func TestWindowEmptyInput(t *testing.T) {
	assert.Nil(t, Window(nil, 3))
}

func TestWindowZeroSizeReturnsNil(t *testing.T) {
	assert.Nil(t, Window(fakeSentences(3), 0))
}
