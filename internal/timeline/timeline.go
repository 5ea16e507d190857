// Package timeline implements TimelineAnalyzer: event ordering, hierarchy,
// causal links and main-plot contribution scoring.
package timeline

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/corphon/novelgraph/internal/config"
	"github.com/corphon/novelgraph/internal/lexicon"
	"github.com/corphon/novelgraph/internal/models"
)

// Analyzer orders events and derives hierarchy, causal links and main-plot
// contribution.
type Analyzer struct {
	lex        *lexicon.Lexicon
	thresholds config.Thresholds
}

// NewAnalyzer builds an Analyzer against lex and the given thresholds.
func NewAnalyzer(lex *lexicon.Lexicon, thresholds config.Thresholds) *Analyzer {
	return &Analyzer{lex: lex, thresholds: thresholds}
}

// Result bundles TimelineAnalyzer's output.
type Result struct {
	Events           []models.Event // re-ordered, ParentID/ContributionScore filled in
	CausalLinks      []models.CausalLink
	MainPlotEventIDs []string
}

// Analyze totally orders events, builds the sub-event forest in place (via
// Event.ParentID), infers causal links and scores main-plot contribution.
func (a *Analyzer) Analyze(events []models.Event, characters []models.Character) Result {
	ordered := append([]models.Event(nil), events...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	a.buildHierarchy(ordered)
	links := a.buildCausalLinks(ordered)
	a.scoreContribution(ordered, characters, links)

	mainPlot := make([]string, 0)
	theta := a.thresholds.ThetaMainPlot
	for _, e := range ordered {
		if e.ContributionScore >= theta {
			mainPlot = append(mainPlot, e.ID)
		}
	}

	return Result{Events: ordered, CausalLinks: links, MainPlotEventIDs: mainPlot}
}

// buildHierarchy attaches each event to the highest-importance qualifying
// parent within the same chapter (sub-events never cross chapter
// boundaries: an inter-chapter hierarchy has no stable sentence-distance
// measure once chapters are concatenated, so §4.6's "within W sentences"
// clause is read as intra-chapter).
func (a *Analyzer) buildHierarchy(ordered []models.Event) {
	delta := a.thresholds.HierarchyDelta
	window := a.thresholds.HierarchyWindow

	byChapter := map[int][]int{}
	for i, e := range ordered {
		byChapter[e.Chapter] = append(byChapter[e.Chapter], i)
	}

	for _, idxs := range byChapter {
		for _, i := range idxs {
			e := ordered[i]
			bestParent := -1
			bestImportance := -1.0
			for _, j := range idxs {
				if i == j {
					continue
				}
				f := ordered[j]
				if abs(f.Sequence-e.Sequence) > window {
					continue
				}
				if sharedParticipants(e, f) < 2 {
					continue
				}
				if f.ImportanceScore < e.ImportanceScore+delta {
					continue
				}
				if f.ImportanceScore > bestImportance {
					bestImportance = f.ImportanceScore
					bestParent = j
				}
			}
			if bestParent >= 0 {
				ordered[i].ParentID = ordered[bestParent].ID
			}
		}
	}
}

// buildCausalLinks adds a link for each ordered pair whose later event's
// description carries a consequence cue. §4.6 also allows a shared-state-
// transition trigger, but StateTracker runs after TimelineAnalyzer in the
// pipeline (§2) and so has no output available here; that trigger is
// therefore not evaluated.
func (a *Analyzer) buildCausalLinks(ordered []models.Event) []models.CausalLink {
	floor := a.thresholds.CausalImportanceFloor
	var links []models.CausalLink

	for i := 0; i < len(ordered); i++ {
		e := ordered[i]
		if e.ImportanceScore < floor {
			continue
		}
		for j := i + 1; j < len(ordered); j++ {
			f := ordered[j]
			if f.ImportanceScore < floor {
				continue
			}
			shared := sharedParticipants(e, f)
			if shared < 1 {
				continue
			}
			cue := matchesAny(f.Description, a.lex.ConsequenceCues)
			if !cue {
				continue
			}
			sharedWeight := float64(shared)
			if sharedWeight > 3 {
				sharedWeight = 3
			}
			strength := clamp01(0.6 + 0.4*(sharedWeight/3))
			links = append(links, models.CausalLink{
				CauseEventID:  e.ID,
				EffectEventID: f.ID,
				Strength:      strength,
			})
		}
	}
	return links
}

// scoreContribution runs a random-walk-with-restart over the bipartite
// Event∪Character participation graph plus the causal graph, restarted at
// events involving the most important characters, and writes the
// min-max-normalized steady-state probability into each event's
// ContributionScore.
func (a *Analyzer) scoreContribution(ordered []models.Event, characters []models.Character, links []models.CausalLink) {
	e := len(ordered)
	c := len(characters)
	n := e + c
	if n == 0 {
		return
	}

	eventIdx := make(map[string]int, e)
	for i, ev := range ordered {
		eventIdx[ev.ID] = i
	}
	charIdx := make(map[string]int, c)
	topImportance := 0.0
	for i, ch := range characters {
		charIdx[ch.Name] = e + i
		if ch.Importance > topImportance {
			topImportance = ch.Importance
		}
	}

	adj := mat.NewDense(n, n, nil)
	addEdge := func(i, j int, w float64) {
		adj.Set(i, j, adj.At(i, j)+w)
		adj.Set(j, i, adj.At(j, i)+w)
	}

	for i, ev := range ordered {
		for _, p := range ev.Participants {
			if j, ok := charIdx[p]; ok {
				addEdge(i, j, 1)
			}
		}
	}
	for _, link := range links {
		i, okI := eventIdx[link.CauseEventID]
		j, okJ := eventIdx[link.EffectEventID]
		if okI && okJ {
			addEdge(i, j, link.Strength)
		}
	}

	restart := mat.NewVecDense(n, nil)
	restartMass := 0.0
	importanceFloor := topImportance * 0.8
	topChars := map[string]struct{}{}
	for _, ch := range characters {
		if ch.Importance >= importanceFloor && ch.Importance > 0 {
			topChars[ch.Name] = struct{}{}
		}
	}
	for i, ev := range ordered {
		for _, p := range ev.Participants {
			if _, ok := topChars[p]; ok {
				restart.SetVec(i, 1)
				restartMass++
				break
			}
		}
	}
	if restartMass == 0 {
		for i := 0; i < n; i++ {
			restart.SetVec(i, 1)
		}
		restartMass = float64(n)
	}
	for i := 0; i < n; i++ {
		restart.SetVec(i, restart.AtVec(i)/restartMass)
	}

	trans := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		colSum := 0.0
		for i := 0; i < n; i++ {
			colSum += adj.At(i, j)
		}
		if colSum == 0 {
			for i := 0; i < n; i++ {
				trans.Set(i, j, restart.AtVec(i))
			}
			continue
		}
		for i := 0; i < n; i++ {
			trans.Set(i, j, adj.At(i, j)/colSum)
		}
	}

	beta := a.thresholds.RandomWalkRestart
	if beta <= 0 {
		beta = 0.15
	}
	iterations := a.thresholds.RandomWalkIterations
	if iterations <= 0 {
		iterations = 50
	}

	p := mat.VecDenseCopyOf(restart)
	for iter := 0; iter < iterations; iter++ {
		next := mat.NewVecDense(n, nil)
		next.MulVec(trans, p)
		next.ScaleVec(1-beta, next)
		next.AddScaledVec(next, beta, restart)
		p = next
	}

	minScore, maxScore := p.AtVec(0), p.AtVec(0)
	for i := 0; i < e; i++ {
		v := p.AtVec(i)
		if v < minScore {
			minScore = v
		}
		if v > maxScore {
			maxScore = v
		}
	}

	for i := range ordered {
		v := p.AtVec(i)
		score := 0.0
		if maxScore > minScore {
			score = (v - minScore) / (maxScore - minScore)
		}
		ordered[i].ContributionScore = score
	}
}

func sharedParticipants(a, b models.Event) int {
	set := map[string]struct{}{}
	for _, p := range a.Participants {
		set[p] = struct{}{}
	}
	count := 0
	for _, p := range b.Participants {
		if _, ok := set[p]; ok {
			count++
		}
	}
	return count
}

func matchesAny(text string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(text, c) {
			return true
		}
	}
	return false
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
