// Package relation implements RelationExtractor: pairwise character
// relation discovery from co-occurrence, pattern matching and dialogue
// attribution evidence.
package relation

import (
	"math"
	"sort"
	"strings"

	"github.com/corphon/novelgraph/internal/config"
	"github.com/corphon/novelgraph/internal/lexicon"
	"github.com/corphon/novelgraph/internal/models"
	"github.com/corphon/novelgraph/internal/textproc"
)

// Extractor accumulates relation evidence across three channels and derives
// a directed-or-symmetric Relation per character pair.
type Extractor struct {
	lex        *lexicon.Lexicon
	thresholds config.Thresholds
}

// NewExtractor builds an Extractor against lex and the given thresholds.
func NewExtractor(lex *lexicon.Lexicon, thresholds config.Thresholds) *Extractor {
	return &Extractor{lex: lex, thresholds: thresholds}
}

type pairEvidence struct {
	from, to string
	evidence []models.Evidence
	typeWeight map[models.RelationType]float64
	// forwardWeight/backwardWeight accumulate only the weight of directed
	// pattern matches (lexicon.RelationPattern.Directed), in the order the
	// pattern actually matched the sentence (forward = from->to already
	// agrees with the from/to above, backward = the sentence matched the
	// other way around). A directed relation type's final From/To follows
	// whichever direction dominates; non-directed types never touch these.
	forwardWeight, backwardWeight float64
}

// Extract returns one Relation per unordered character pair that
// accumulated any evidence.
func (e *Extractor) Extract(novel *models.Novel, characters []models.Character) []models.Relation {
	aliasToCanonical := map[string]string{}
	for _, c := range characters {
		for _, a := range c.Aliases {
			aliasToCanonical[a] = c.Name
		}
	}

	pairs := map[[2]string]*pairEvidence{}
	getPair := func(a, b string) *pairEvidence {
		x, y := models.PairKey(a, b)
		key := [2]string{x, y}
		p, ok := pairs[key]
		if !ok {
			p = &pairEvidence{from: x, to: y, typeWeight: map[models.RelationType]float64{}}
			pairs[key] = p
		}
		return p
	}

	windowSize := e.thresholds.CoOccurrenceWindow
	if windowSize < 1 {
		windowSize = 3
	}

	for _, ch := range novel.Chapters {
		e.accumulateCoOccurrence(ch, aliasToCanonical, windowSize, getPair)
		e.accumulatePatterns(ch, aliasToCanonical, getPair)
		e.accumulateDialogue(ch, aliasToCanonical, getPair)
	}

	relations := make([]models.Relation, 0, len(pairs))
	for _, p := range pairs {
		relations = append(relations, e.finalize(p))
	}
	sort.Slice(relations, func(i, j int) bool {
		if relations[i].From != relations[j].From {
			return relations[i].From < relations[j].From
		}
		return relations[i].To < relations[j].To
	})
	return relations
}

func (e *Extractor) accumulateCoOccurrence(ch models.Chapter, aliasToCanonical map[string]string, windowSize int, getPair func(a, b string) *pairEvidence) {
	mentions := make([]map[string]struct{}, len(ch.Sentences))
	for i, s := range ch.Sentences {
		set := map[string]struct{}{}
		for _, tok := range s.Tokens {
			if canon, ok := aliasToCanonical[tok.Text]; ok {
				set[canon] = struct{}{}
			}
		}
		mentions[i] = set
	}

	for i := range mentions {
		for j := i; j < len(mentions) && j < i+windowSize; j++ {
			distance := j - i
			for a := range mentions[i] {
				for b := range mentions[j] {
					if a == b {
						continue
					}
					weight := 1.0 / float64(distance+1)
					p := getPair(a, b)
					p.evidence = append(p.evidence, models.Evidence{
						Chapter:   ch.Index,
						Source:    models.EvidenceCoOccurrence,
						Rationale: "co-occurrence",
						Weight:    weight,
					})
					p.typeWeight[models.RelationAcquaintance] += weight
				}
			}
		}
	}
}

func (e *Extractor) accumulatePatterns(ch models.Chapter, aliasToCanonical map[string]string, getPair func(a, b string) *pairEvidence) {
	for _, s := range ch.Sentences {
		for _, pat := range e.lex.RelationPatterns {
			if !containsFragmentsInOrder(s.Text, pat.Fragments) {
				continue
			}
			names := namesInSentence(s, aliasToCanonical)
			if len(names) < 2 {
				continue
			}
			from, to := names[0], names[1]
			weight := pat.Weight * e.thresholds.PatternWeightRatio
			p := getPair(from, to)
			p.evidence = append(p.evidence, models.Evidence{
				Chapter:   ch.Index,
				Source:    models.EvidencePattern,
				Rationale: "pattern:" + strings.Join(pat.Fragments, ""),
				Weight:    weight,
			})
			p.typeWeight[models.RelationType(pat.Type)] += weight
			if pat.Directed {
				if from == p.from {
					p.forwardWeight += weight
				} else {
					p.backwardWeight += weight
				}
			}
		}
	}
}

func (e *Extractor) accumulateDialogue(ch models.Chapter, aliasToCanonical map[string]string, getPair func(a, b string) *pairEvidence) {
	for _, s := range ch.Sentences {
		if len(textproc.ExtractDialogue(s.Text)) == 0 {
			continue
		}
		names := namesInSentence(s, aliasToCanonical)
		if len(names) < 2 {
			continue
		}
		for term, relType := range e.lex.HonorificRelations {
			if !strings.Contains(s.Text, term) {
				continue
			}
			from, to := names[0], names[1]
			weight := e.thresholds.DialogueAttributionWeight
			p := getPair(from, to)
			p.evidence = append(p.evidence, models.Evidence{
				Chapter:   ch.Index,
				Source:    models.EvidenceDialogue,
				Rationale: "dialogue:" + term,
				Weight:    weight,
			})
			p.typeWeight[models.RelationType(relType)] += weight
		}
	}
}

func containsFragmentsInOrder(text string, fragments []string) bool {
	pos := 0
	for _, f := range fragments {
		idx := strings.Index(text[pos:], f)
		if idx < 0 {
			return false
		}
		pos += idx + len(f)
	}
	return true
}

func namesInSentence(s models.Sentence, aliasToCanonical map[string]string) []string {
	seen := map[string]struct{}{}
	var names []string
	for _, tok := range s.Tokens {
		if canon, ok := aliasToCanonical[tok.Text]; ok {
			if _, dup := seen[canon]; !dup {
				seen[canon] = struct{}{}
				names = append(names, canon)
			}
		}
	}
	return names
}

func (e *Extractor) finalize(p *pairEvidence) models.Relation {
	sum := 0.0
	for _, ev := range p.evidence {
		sum += ev.Weight
	}

	bestType := models.RelationUnknown
	bestWeight := -1.0
	for t, w := range p.typeWeight {
		if w > bestWeight || (w == bestWeight && models.RelationPriority(t) < models.RelationPriority(bestType)) {
			bestWeight = w
			bestType = t
		}
	}

	k := e.thresholds.RelationStrengthK
	if k <= 0 {
		k = 3.5
	}
	strength := math.Tanh(sum / k)

	sort.Slice(p.evidence, func(i, j int) bool { return p.evidence[i].Chapter < p.evidence[j].Chapter })

	from, to := p.from, p.to
	if p.backwardWeight > p.forwardWeight {
		from, to = to, from
	}

	return models.Relation{
		From:     from,
		To:       to,
		Type:     bestType,
		Strength: strength,
		Evidence: p.evidence,
	}
}
