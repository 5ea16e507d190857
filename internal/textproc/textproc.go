// Package textproc implements the novel's text-processing front end:
// sentence segmentation, dictionary-driven word segmentation, a light
// part-of-speech tagger, dialogue extraction and a sliding sentence window.
// Every exported function is pure — no hidden state survives between calls,
// other than the read-only Lexicon a Processor is constructed with.
package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"github.com/corphon/novelgraph/internal/errors"
	"github.com/corphon/novelgraph/internal/lexicon"
	"github.com/corphon/novelgraph/internal/models"
)

// Processor holds the read-only Lexicon used for tagging and stop-word
// filtering. It carries no mutable state.
type Processor struct {
	lex *lexicon.Lexicon
	dict map[string]struct{}
	maxWordLen int
}

// NewProcessor builds a Processor against lex, precomputing the maximum-match
// word dictionary once.
func NewProcessor(lex *lexicon.Lexicon) *Processor {
	p := &Processor{lex: lex, dict: make(map[string]struct{})}
	p.addWords(lex.PersonTitles)
	p.addWords(lex.LocationSuffixes)
	p.addWords(lex.TurningPointCues)
	p.addWords(lex.ConsequenceCues)
	p.addWords(lex.AbsoluteTimeCues)
	p.addWords(lex.RelativeTimeCues)
	for w := range lex.Surnames {
		p.addWord(w)
	}
	for w := range lex.HonorificRelations {
		p.addWord(w)
	}
	for _, ew := range lex.EmotionWords {
		p.addWord(ew.Word)
	}
	for _, se := range lex.StateEffects {
		p.addWord(se.Keyword)
	}
	for _, vc := range lex.EventVerbClasses {
		p.addWords(vc.Verbs)
	}
	return p
}

func (p *Processor) addWords(words []string) {
	for _, w := range words {
		p.addWord(w)
	}
}

func (p *Processor) addWord(w string) {
	if w == "" {
		return
	}
	p.dict[w] = struct{}{}
	if n := len([]rune(w)); n > p.maxWordLen {
		p.maxWordLen = n
	}
}

var sentenceBoundary = regexp.MustCompile(`[。！？!?\n]+`)

// SegmentSentences splits text on 。！？!? and newlines, dropping empty
// fragments. Pure: no state outside its argument.
func SegmentSentences(text string) []string {
	folded := width.Fold.String(text)
	raw := sentenceBoundary.Split(folded, -1)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Tokenize segments sentence into words by forward maximum match against the
// Processor's dictionary, falling back to single runes for anything
// unrecognized, and tags each token's part of speech.
func (p *Processor) Tokenize(sentence string) []models.Token {
	runes := []rune(sentence)
	tokens := make([]models.Token, 0, len(runes))

	for i := 0; i < len(runes); {
		matched := ""
		maxLen := p.maxWordLen
		if remaining := len(runes) - i; maxLen > remaining {
			maxLen = remaining
		}
		for l := maxLen; l >= 2; l-- {
			if i+l > len(runes) {
				continue
			}
			cand := string(runes[i : i+l])
			if _, ok := p.dict[cand]; ok {
				matched = cand
				break
			}
		}
		if matched == "" {
			// Try a 2-3 char surname-led span before falling back to a
			// single rune, so unlisted character names still tag as nr.
			if span, ok := p.surnameSpan(runes[i:]); ok {
				matched = span
			} else {
				matched = string(runes[i])
			}
		}
		tokens = append(tokens, models.Token{Text: matched, POS: p.tagPOS(matched)})
		i += len([]rune(matched))
	}
	return tokens
}

// surnameSpan looks for a surname-prefixed 2- or 3-rune span at the start of
// runes, which TagPOS will then recognize as person-name-like even when the
// full name never appears in the fixed dictionary.
func (p *Processor) surnameSpan(runes []rune) (string, bool) {
	for _, l := range []int{3, 2} {
		if len(runes) < l {
			continue
		}
		cand := string(runes[:l])
		if p.lex.LooksLikeSurname(cand) && allHan(cand) {
			return cand, true
		}
	}
	return "", false
}

func allHan(s string) bool {
	for _, r := range s {
		if !unicode.Is(unicode.Han, r) {
			return false
		}
	}
	return true
}

// tagPOS assigns a coarse part-of-speech tag: nr (person name-like), ns
// (place name), v (verb), w (punctuation), or n (other).
func (p *Processor) tagPOS(token string) string {
	runes := []rune(token)
	if len(runes) == 1 && isPunct(runes[0]) {
		return "w"
	}
	if p.lex.HasLocationSuffix(token) {
		return "ns"
	}
	if (len(runes) == 2 || len(runes) == 3) && p.lex.LooksLikeSurname(token) {
		return "nr"
	}
	for _, vc := range p.lex.EventVerbClasses {
		for _, v := range vc.Verbs {
			if v == token {
				return "v"
			}
		}
	}
	return "n"
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r)
}

// Process is the full front-end pipeline for one chapter's text: fold
// full-width punctuation, segment sentences, tokenize and tag each one.
// Fails with InvalidInput on empty text.
func (p *Processor) Process(text string) ([]models.Sentence, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewInvalidInput("chapter text is empty", nil)
	}

	raw := SegmentSentences(text)
	sentences := make([]models.Sentence, 0, len(raw))
	for i, s := range raw {
		sentences = append(sentences, models.Sentence{
			Index:  i,
			Text:   s,
			Tokens: p.Tokenize(s),
		})
	}
	return sentences, nil
}

// FilterStopWords returns tokens with the Processor's stop words removed.
func (p *Processor) FilterStopWords(tokens []models.Token) []models.Token {
	out := make([]models.Token, 0, len(tokens))
	for _, t := range tokens {
		if !p.lex.IsStopWord(t.Text) {
			out = append(out, t)
		}
	}
	return out
}

var dialoguePairs = [][2]rune{
	{'“', '”'},
	{'‘', '’'},
	{'「', '」'},
	{'『', '』'},
}

// ExtractDialogue returns the text found inside matched quote pairs
// (Chinese curly/corner quotes and straight quotes). Mismatched or
// mis-escaped quotes are tolerated: an unmatched opening quote extends to
// the next quote of either kind rather than failing.
func ExtractDialogue(sentence string) []string {
	runes := []rune(sentence)
	var out []string

	openToClose := map[rune]rune{}
	closeSet := map[rune]bool{}
	for _, pair := range dialoguePairs {
		openToClose[pair[0]] = pair[1]
		closeSet[pair[1]] = true
	}

	i := 0
	for i < len(runes) {
		r := runes[i]
		if close, isOpen := openToClose[r]; isOpen {
			j := i + 1
			for j < len(runes) && runes[j] != close && !closeSet[runes[j]] {
				j++
			}
			if j < len(runes) {
				out = append(out, string(runes[i+1:j]))
				i = j + 1
				continue
			}
			// Unterminated: tolerant fallback takes the rest of the sentence.
			out = append(out, string(runes[i+1:]))
			break
		}
		if r == '"' || r == '\'' {
			end := -1
			for k := i + 1; k < len(runes); k++ {
				if runes[k] == r {
					end = k
					break
				}
			}
			if end >= 0 {
				out = append(out, string(runes[i+1:end]))
				i = end + 1
				continue
			}
		}
		i++
	}
	return out
}

// Window returns every contiguous run of size consecutive sentences
// (stride 1). Partial windows at the end are never produced; if size >=
// len(sentences) a single window containing everything is returned.
func Window(sentences []models.Sentence, size int) [][]models.Sentence {
	if size <= 0 {
		return nil
	}
	if size >= len(sentences) {
		if len(sentences) == 0 {
			return nil
		}
		return [][]models.Sentence{sentences}
	}
	windows := make([][]models.Sentence, 0, len(sentences)-size+1)
	for i := 0; i+size <= len(sentences); i++ {
		windows = append(windows, sentences[i:i+size])
	}
	return windows
}
