// Package entity implements EntityExtractor: candidate character and
// location discovery over a tokenized Novel, followed by alias merging into
// canonical Character identities.
package entity

import (
	"sort"
	"strings"

	"github.com/mozillazg/go-pinyin"

	"github.com/corphon/novelgraph/internal/config"
	"github.com/corphon/novelgraph/internal/errors"
	"github.com/corphon/novelgraph/internal/lexicon"
	"github.com/corphon/novelgraph/internal/models"
	"github.com/corphon/novelgraph/internal/textproc"
)

// Extractor scans a tokenized Novel for character and location candidates
// and merges aliases into canonical Characters.
type Extractor struct {
	lex        *lexicon.Lexicon
	thresholds config.Thresholds
}

// NewExtractor builds an Extractor against lex and the given thresholds.
func NewExtractor(lex *lexicon.Lexicon, thresholds config.Thresholds) *Extractor {
	return &Extractor{lex: lex, thresholds: thresholds}
}

type mentionStats struct {
	count           int
	firstChapter    int
	chaptersPresent map[int]struct{}
}

// Extract returns the merged, filtered character roster and the discovered
// location catalogue. Fails with NoEntitiesFound if fewer than two
// characters survive filtering.
func (e *Extractor) Extract(novel *models.Novel) ([]models.Character, []models.Location, error) {
	charStats := map[string]*mentionStats{}
	locStats := map[string]*mentionStats{}

	for _, ch := range novel.Chapters {
		for _, s := range ch.Sentences {
			for _, tok := range s.Tokens {
				switch tok.POS {
				case "nr":
					recordMention(charStats, tok.Text, ch.Index)
				case "ns":
					recordMention(locStats, tok.Text, ch.Index)
				}
			}
		}
	}

	candidates := make([]string, 0, len(charStats))
	for name, st := range charStats {
		if st.count >= e.thresholds.MinMentions {
			candidates = append(candidates, name)
		}
	}
	sort.Strings(candidates)

	groups := e.mergeAliases(novel, candidates)

	characters := make([]models.Character, 0, len(groups))
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			if len(group[i]) != len(group[j]) {
				return len(group[i]) > len(group[j])
			}
			return group[i] < group[j]
		})
		canonical := group[0]

		totalCount := 0
		firstChapter := -1
		present := map[int]struct{}{}
		for _, alias := range group {
			st := charStats[alias]
			totalCount += st.count
			if firstChapter == -1 || st.firstChapter < firstChapter {
				firstChapter = st.firstChapter
			}
			for c := range st.chaptersPresent {
				present[c] = struct{}{}
			}
		}

		aliases := append([]string(nil), group...)
		sort.Strings(aliases)

		characters = append(characters, models.Character{
			Name:            canonical,
			Aliases:         aliases,
			PinyinKey:       pinyinKey(canonical),
			MentionCount:    totalCount,
			FirstAppearance: firstChapter,
		})
	}

	sort.Slice(characters, func(i, j int) bool { return characters[i].Name < characters[j].Name })

	if len(characters) < 2 {
		return nil, nil, errors.NewNoEntitiesFound("fewer than two characters survived entity extraction")
	}

	locations := make([]models.Location, 0, len(locStats))
	for name := range locStats {
		locations = append(locations, models.Location{
			Name: name,
			Type: classifyLocation(name, e.lex),
		})
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i].Name < locations[j].Name })

	return characters, locations, nil
}

func recordMention(stats map[string]*mentionStats, name string, chapter int) {
	st, ok := stats[name]
	if !ok {
		st = &mentionStats{firstChapter: chapter, chaptersPresent: map[int]struct{}{}}
		stats[name] = st
	}
	st.count++
	if chapter < st.firstChapter {
		st.firstChapter = chapter
	}
	st.chaptersPresent[chapter] = struct{}{}
}

// unionFind is a minimal disjoint-set structure over candidate indices,
// used so alias merging produces the same equivalence classes regardless of
// the order pairs are examined.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		uf.parent[rb] = ra
	} else {
		uf.parent[ra] = rb
	}
}

// mergeAliases applies three merge rules — suffix co-occurrence, appositive
// patterns and dialogue-window pronoun resolution — via a union-find so the
// resulting equivalence classes are independent of the order pairs are
// visited.
func (e *Extractor) mergeAliases(novel *models.Novel, candidates []string) [][]string {
	index := map[string]int{}
	for i, c := range candidates {
		index[c] = i
	}
	uf := newUnionFind(len(candidates))

	windowSize := e.thresholds.CoOccurrenceWindow
	if windowSize < 1 {
		windowSize = 3
	}

	coOccur := e.coOccurrenceCounts(novel, candidates, index, windowSize)

	for i, a := range candidates {
		for j := i + 1; j < len(candidates); j++ {
			b := candidates[j]
			if !(strings.HasSuffix(b, a) || strings.HasSuffix(a, b)) {
				continue
			}
			key := pairKey(i, j)
			if coOccur[key] >= e.thresholds.AliasCoOccurrenceK {
				uf.union(i, j)
			}
		}
	}

	e.applyAppositiveMerges(novel, candidates, index, uf)
	e.applyPronounMerges(novel, candidates, index, uf, windowSize)

	groupsByRoot := map[int][]string{}
	for i, c := range candidates {
		root := uf.find(i)
		groupsByRoot[root] = append(groupsByRoot[root], c)
	}
	groups := make([][]string, 0, len(groupsByRoot))
	for _, g := range groupsByRoot {
		groups = append(groups, g)
	}
	return groups
}

func pairKey(i, j int) [2]int {
	if i < j {
		return [2]int{i, j}
	}
	return [2]int{j, i}
}

// coOccurrenceCounts counts, for each candidate pair, how many distinct
// sentences mention both — a per-sentence count, not a windowed one;
// RelationExtractor's windowed co-occurrence weighting is a separate,
// distance-weighted scheme in package relation.
func (e *Extractor) coOccurrenceCounts(novel *models.Novel, candidates []string, index map[string]int, _ int) map[[2]int]int {
	counts := map[[2]int]int{}
	for _, ch := range novel.Chapters {
		for _, s := range ch.Sentences {
			present := map[int]struct{}{}
			for _, tok := range s.Tokens {
				if idx, ok := index[tok.Text]; ok {
					present[idx] = struct{}{}
				}
			}
			ids := make([]int, 0, len(present))
			for id := range present {
				ids = append(ids, id)
			}
			sort.Ints(ids)
			for a := 0; a < len(ids); a++ {
				for b := a + 1; b < len(ids); b++ {
					counts[pairKey(ids[a], ids[b])]++
				}
			}
		}
	}
	return counts
}

// applyAppositiveMerges scans raw sentence text for "X，也就是Y" / "X，即Y"
// style connectives and unions any candidate pair found straddling one.
func (e *Extractor) applyAppositiveMerges(novel *models.Novel, candidates []string, index map[string]int, uf *unionFind) {
	for _, ch := range novel.Chapters {
		for _, s := range ch.Sentences {
			for _, conn := range e.lex.AppositivePatterns {
				connective := conn[0]
				if connective == "" {
					continue
				}
				pos := strings.Index(s.Text, connective)
				if pos < 0 {
					continue
				}
				before := s.Text[:pos]
				after := s.Text[pos+len(connective):]
				left := lastCandidateIn(before, candidates)
				right := firstCandidateIn(after, candidates)
				if left != "" && right != "" && left != right {
					uf.union(index[left], index[right])
				}
			}
		}
	}
}

func lastCandidateIn(text string, candidates []string) string {
	best := ""
	bestPos := -1
	for _, c := range candidates {
		if pos := strings.LastIndex(text, c); pos > bestPos {
			bestPos = pos
			best = c
		}
	}
	return best
}

func firstCandidateIn(text string, candidates []string) string {
	best := ""
	bestPos := len(text) + 1
	for _, c := range candidates {
		if pos := strings.Index(text, c); pos >= 0 && pos < bestPos {
			bestPos = pos
			best = c
		}
	}
	return best
}

// applyPronounMerges implements the "pronoun-resolution within a dialogue
// window consistently binds them" rule: within each dialogue-bearing
// sentence window, if exactly one candidate name is present alongside a
// third-person pronoun, that window is a "sole occupant" window for that
// name. Two names whose sole-occupant windows never overlap with each
// other's (and which never co-occur directly) are consistently bound to the
// same referent and are merged once they each clear AliasCoOccurrenceK such
// windows.
func (e *Extractor) applyPronounMerges(novel *models.Novel, candidates []string, index map[string]int, uf *unionFind, windowSize int) {
	pronouns := []string{"他", "她"}
	soleWindows := map[string]map[int]struct{}{}
	windowID := 0

	for _, ch := range novel.Chapters {
		for start := 0; start < len(ch.Sentences); start++ {
			end := start + windowSize
			if end > len(ch.Sentences) {
				end = len(ch.Sentences)
			}
			windowID++

			hasDialogue := false
			hasPronoun := false
			present := map[string]struct{}{}
			for _, s := range ch.Sentences[start:end] {
				if len(textproc.ExtractDialogue(s.Text)) > 0 {
					hasDialogue = true
				}
				for _, p := range pronouns {
					if strings.Contains(s.Text, p) {
						hasPronoun = true
					}
				}
				for _, tok := range s.Tokens {
					if _, ok := index[tok.Text]; ok {
						present[tok.Text] = struct{}{}
					}
				}
			}
			if !hasDialogue || !hasPronoun || len(present) != 1 {
				continue
			}
			for name := range present {
				if soleWindows[name] == nil {
					soleWindows[name] = map[int]struct{}{}
				}
				soleWindows[name][windowID] = struct{}{}
			}
		}
	}

	for i, a := range candidates {
		for j := i + 1; j < len(candidates); j++ {
			b := candidates[j]
			wa, wb := soleWindows[a], soleWindows[b]
			if len(wa) < e.thresholds.AliasCoOccurrenceK || len(wb) < e.thresholds.AliasCoOccurrenceK {
				continue
			}
			overlap := false
			for w := range wa {
				if _, ok := wb[w]; ok {
					overlap = true
					break
				}
			}
			if !overlap {
				uf.union(i, j)
			}
		}
	}
}

func classifyLocation(name string, lex *lexicon.Lexicon) models.LocationType {
	switch {
	case strings.HasSuffix(name, "省") || strings.HasSuffix(name, "域") || strings.HasSuffix(name, "川"):
		return models.LocationRegion
	case strings.HasSuffix(name, "市") || strings.HasSuffix(name, "城") || strings.HasSuffix(name, "镇") || strings.HasSuffix(name, "村"):
		return models.LocationCity
	case strings.HasSuffix(name, "山") || strings.HasSuffix(name, "岛") || strings.HasSuffix(name, "谷"):
		return models.LocationMountain
	case strings.HasSuffix(name, "府") || strings.HasSuffix(name, "宫") || strings.HasSuffix(name, "殿") || strings.HasSuffix(name, "寺") || strings.HasSuffix(name, "楼") || strings.HasSuffix(name, "阁"):
		return models.LocationBuilding
	default:
		return models.LocationOther
	}
}

func pinyinKey(name string) string {
	args := pinyin.NewArgs()
	args.Style = pinyin.Normal
	result := pinyin.Pinyin(name, args)
	parts := make([]string, 0, len(result))
	for _, syllables := range result {
		if len(syllables) > 0 {
			parts = append(parts, syllables[0])
		}
	}
	return strings.Join(parts, "")
}
