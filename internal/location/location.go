// Package location implements LocationAnalyzer: per-location importance,
// scene transitions and character-location visit tables.
package location

import (
	"sort"

	"github.com/corphon/novelgraph/internal/models"
)

// Analyzer scores locations and derives scene transitions and visit
// tables from the ordered event list.
type Analyzer struct{}

// NewAnalyzer builds a LocationAnalyzer. It holds no configuration: every
// quantity it derives is a direct aggregate over events, with no tunable
// threshold of its own.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Result bundles LocationAnalyzer's output.
type Result struct {
	Locations        []models.Location
	SceneTransitions []models.SceneTransition
	Visits           []models.CharacterLocationVisit
}

// Analyze fills in EventCount and Importance on each location and derives
// scene transitions and visit tables from the totally-ordered event list.
func (a *Analyzer) Analyze(events []models.Event, locations []models.Location) Result {
	ordered := append([]models.Event(nil), events...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	byName := make(map[string]*models.Location, len(locations))
	out := make([]models.Location, len(locations))
	for i, l := range locations {
		out[i] = l
		byName[l.Name] = &out[i]
	}

	type visitKey struct {
		character string
		location  string
		chapter   int
	}

	sumImportance := map[string]float64{}
	visitors := map[string]map[string]struct{}{}
	visitCounts := map[visitKey]int{}

	for _, e := range ordered {
		if e.Location == "" {
			continue
		}
		loc, ok := byName[e.Location]
		if !ok {
			continue
		}
		loc.EventCount++
		sumImportance[e.Location] += e.ImportanceScore

		if visitors[e.Location] == nil {
			visitors[e.Location] = map[string]struct{}{}
		}
		for _, p := range e.Participants {
			visitors[e.Location][p] = struct{}{}
			visitCounts[visitKey{p, e.Location, e.Chapter}]++
		}
	}

	minSum, maxSum := 0.0, 0.0
	first := true
	for _, v := range sumImportance {
		if first {
			minSum, maxSum = v, v
			first = false
			continue
		}
		if v < minSum {
			minSum = v
		}
		if v > maxSum {
			maxSum = v
		}
	}

	maxVisitors := 0
	for _, set := range visitors {
		if len(set) > maxVisitors {
			maxVisitors = len(set)
		}
	}

	for i := range out {
		name := out[i].Name
		raw := sumImportance[name]
		normalized := 0.0
		if maxSum > minSum {
			normalized = (raw - minSum) / (maxSum - minSum)
		} else if maxSum > 0 {
			normalized = 1
		}

		bonus := 0.0
		if maxVisitors > 0 {
			bonus = float64(len(visitors[name])) / float64(maxVisitors) * 0.2
		}

		out[i].Importance = clamp01(normalized*0.8 + bonus)
	}

	var transitions []models.SceneTransition
	for i := 1; i < len(ordered); i++ {
		prev, cur := ordered[i-1], ordered[i]
		if prev.Location == "" || cur.Location == "" || prev.Location == cur.Location {
			continue
		}
		transitions = append(transitions, models.SceneTransition{
			From:              prev.Location,
			To:                cur.Location,
			Chapter:           cur.Chapter,
			TriggeringEventID: cur.ID,
		})
	}

	visits := make([]models.CharacterLocationVisit, 0, len(visitCounts))
	for key, count := range visitCounts {
		visits = append(visits, models.CharacterLocationVisit{
			Character:  key.character,
			Location:   key.location,
			Chapter:    key.chapter,
			VisitCount: count,
		})
	}
	sort.Slice(visits, func(i, j int) bool {
		if visits[i].Character != visits[j].Character {
			return visits[i].Character < visits[j].Character
		}
		if visits[i].Location != visits[j].Location {
			return visits[i].Location < visits[j].Location
		}
		return visits[i].Chapter < visits[j].Chapter
	})

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return Result{Locations: out, SceneTransitions: transitions, Visits: visits}
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
