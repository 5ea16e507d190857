// Package emotion implements EmotionAnalyzer: per-chapter sentiment and
// emotion-category decomposition, per-character-in-chapter aggregation,
// directed emotions, and the emotional curve's peaks and troughs.
package emotion

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/corphon/novelgraph/internal/config"
	"github.com/corphon/novelgraph/internal/lexicon"
	"github.com/corphon/novelgraph/internal/models"
)

// categoryPolarity maps each fixed emotion category to its signed
// contribution to sentence-level sentiment.
var categoryPolarity = map[models.EmotionCategory]float64{
	models.EmotionJoy:      1,
	models.EmotionSurprise: 0.2,
	models.EmotionSadness:  -1,
	models.EmotionAnger:    -1,
	models.EmotionFear:     -1,
	models.EmotionDisgust:  -1,
}

// Analyzer scores sentiment and emotion categories over a tokenized novel.
type Analyzer struct {
	lex        *lexicon.Lexicon
	thresholds config.Thresholds
}

// NewAnalyzer builds an Analyzer against lex and the given thresholds.
func NewAnalyzer(lex *lexicon.Lexicon, thresholds config.Thresholds) *Analyzer {
	return &Analyzer{lex: lex, thresholds: thresholds}
}

// Result bundles EmotionAnalyzer's output.
type Result struct {
	ChapterEmotions   []models.ChapterEmotion
	CharacterEmotions []models.CharacterEmotion
	Peaks             []models.EmotionalPeak
}

type sentenceScore struct {
	sentiment    float64
	distribution map[models.EmotionCategory]float64
}

// Analyze scores every chapter, every character-in-chapter, every directed
// character pair, and the curve of peaks and troughs.
func (a *Analyzer) Analyze(novel *models.Novel, characters []models.Character) Result {
	aliasToCanonical := map[string]string{}
	for _, c := range characters {
		for _, alias := range c.Aliases {
			aliasToCanonical[alias] = c.Name
		}
	}

	chapterEmotions := make([]models.ChapterEmotion, 0, len(novel.Chapters))
	var characterEmotions []models.CharacterEmotion

	for _, ch := range novel.Chapters {
		scores := make([]sentenceScore, len(ch.Sentences))
		for i, s := range ch.Sentences {
			scores[i] = a.scoreSentence(s.Text)
		}

		chapterEmotions = append(chapterEmotions, models.ChapterEmotion{
			Chapter:      ch.Index,
			Sentiment:    clamp(meanSentiment(scores), -1, 1),
			Distribution: aggregateDistribution(scores),
		})

		characterEmotions = append(characterEmotions, a.characterEmotionsForChapter(ch, scores, aliasToCanonical)...)
	}

	peaks := a.detectPeaks(chapterEmotions)

	return Result{ChapterEmotions: chapterEmotions, CharacterEmotions: characterEmotions, Peaks: peaks}
}

func (a *Analyzer) scoreSentence(text string) sentenceScore {
	weights := map[models.EmotionCategory]float64{}
	total := 0.0
	for _, ew := range a.lex.EmotionWords {
		if strings.Contains(text, ew.Word) {
			weights[models.EmotionCategory(ew.Category)] += ew.Weight
			total += ew.Weight
		}
	}

	if total == 0 {
		dist := map[models.EmotionCategory]float64{}
		for _, cat := range models.EmotionCategories {
			dist[cat] = 1.0 / float64(len(models.EmotionCategories))
		}
		return sentenceScore{sentiment: 0, distribution: dist}
	}

	dist := make(map[models.EmotionCategory]float64, len(weights))
	sentiment := 0.0
	for cat, w := range weights {
		dist[cat] = w / total
		sentiment += (w / total) * categoryPolarity[cat]
	}
	for _, cat := range models.EmotionCategories {
		if _, ok := dist[cat]; !ok {
			dist[cat] = 0
		}
	}

	return sentenceScore{sentiment: sentiment, distribution: dist}
}

func meanSentiment(scores []sentenceScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s.sentiment
	}
	return sum / float64(len(scores))
}

func aggregateDistribution(scores []sentenceScore) map[models.EmotionCategory]float64 {
	sum := map[models.EmotionCategory]float64{}
	for _, cat := range models.EmotionCategories {
		sum[cat] = 0
	}
	if len(scores) == 0 {
		uniform := 1.0 / float64(len(models.EmotionCategories))
		for _, cat := range models.EmotionCategories {
			sum[cat] = uniform
		}
		return sum
	}
	for _, s := range scores {
		for cat, w := range s.distribution {
			sum[cat] += w
		}
	}
	total := 0.0
	for _, w := range sum {
		total += w
	}
	if total == 0 {
		return sum
	}
	for cat := range sum {
		sum[cat] /= total
	}
	return sum
}

func (a *Analyzer) characterEmotionsForChapter(ch models.Chapter, scores []sentenceScore, aliasToCanonical map[string]string) []models.CharacterEmotion {
	charSentences := map[string][]int{}
	for i, s := range ch.Sentences {
		seen := map[string]struct{}{}
		for _, tok := range s.Tokens {
			if canon, ok := aliasToCanonical[tok.Text]; ok {
				if _, dup := seen[canon]; !dup {
					seen[canon] = struct{}{}
					charSentences[canon] = append(charSentences[canon], i)
				}
			}
		}
	}

	names := make([]string, 0, len(charSentences))
	for name := range charSentences {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []models.CharacterEmotion
	for i, source := range names {
		for j, target := range names {
			if i == j {
				continue
			}
			shared := intersect(charSentences[source], charSentences[target])
			if len(shared) == 0 {
				continue
			}
			sub := make([]sentenceScore, 0, len(shared))
			for _, idx := range shared {
				sub = append(sub, scores[idx])
			}
			dominant := dominantCategory(aggregateDistribution(sub))
			intensity := clamp(absf(meanSentiment(sub))*float64(len(shared)), 0, 1)
			out = append(out, models.CharacterEmotion{
				Source:    source,
				Target:    target,
				Chapter:   ch.Index,
				Type:      dominant,
				Intensity: intensity,
			})
		}
	}
	return out
}

func dominantCategory(dist map[models.EmotionCategory]float64) models.EmotionCategory {
	best := models.EmotionCategories[0]
	bestWeight := -1.0
	for _, cat := range models.EmotionCategories {
		if dist[cat] > bestWeight {
			bestWeight = dist[cat]
			best = cat
		}
	}
	return best
}

func intersect(a, b []int) []int {
	set := map[int]struct{}{}
	for _, v := range a {
		set[v] = struct{}{}
	}
	var out []int
	for _, v := range b {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// detectPeaks finds local extrema of the chapter sentiment curve whose
// deviation from a moving-average baseline exceeds σ (one standard
// deviation of the whole curve), scaled by EmotionPeakSigma. Plateaus
// resolve to their earliest chapter.
func (a *Analyzer) detectPeaks(chapters []models.ChapterEmotion) []models.EmotionalPeak {
	n := len(chapters)
	if n == 0 {
		return nil
	}
	values := make([]float64, n)
	for i, ce := range chapters {
		values[i] = ce.Sentiment
	}

	sigma := stat.StdDev(values, nil)
	if sigma == 0 {
		return nil
	}
	threshold := sigma * a.thresholds.EmotionPeakSigma

	window := a.thresholds.EmotionPeakWindow
	if window < 1 {
		window = 3
	}

	var peaks []models.EmotionalPeak
	lastKind := models.PeakKind("")
	lastChapter := -1

	for i := 0; i < n; i++ {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		hi := i + window + 1
		if hi > n {
			hi = n
		}
		baseline := stat.Mean(values[lo:hi], nil)
		deviation := values[i] - baseline
		isMax := (i == 0 || values[i] >= values[i-1]) && (i == n-1 || values[i] >= values[i+1])
		isMin := (i == 0 || values[i] <= values[i-1]) && (i == n-1 || values[i] <= values[i+1])

		var kind models.PeakKind
		switch {
		case deviation > threshold && isMax:
			kind = models.PeakHigh
		case deviation < -threshold && isMin:
			kind = models.PeakLow
		default:
			lastKind = ""
			continue
		}

		if kind == lastKind && chapters[i].Chapter == lastChapter+1 {
			// Plateau: keep the earliest chapter already recorded.
			lastChapter = chapters[i].Chapter
			continue
		}

		peaks = append(peaks, models.EmotionalPeak{
			Chapter:   chapters[i].Chapter,
			Sentiment: values[i],
			Kind:      kind,
		})
		lastKind = kind
		lastChapter = chapters[i].Chapter
	}

	return peaks
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
