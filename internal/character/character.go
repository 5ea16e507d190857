// Package character implements CharacterAnalyzer: importance, degree
// centrality, main/supporting classification and community detection over
// the relation graph.
package character

import (
	"math/rand"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/corphon/novelgraph/internal/config"
	"github.com/corphon/novelgraph/internal/models"
)

// Analyzer computes character-level scores over the relation graph.
type Analyzer struct {
	thresholds config.Thresholds
}

// NewAnalyzer builds an Analyzer against the given thresholds.
func NewAnalyzer(thresholds config.Thresholds) *Analyzer {
	return &Analyzer{thresholds: thresholds}
}

// Analyze fills in Importance, DegreeCentrality, Classification and
// CommunityID on each character and returns the detected communities.
// characters and relations are not mutated; a new slice is returned.
func (a *Analyzer) Analyze(novel *models.Novel, characters []models.Character, relations []models.Relation) ([]models.Character, []models.Community) {
	n := len(characters)
	nameIndex := make(map[string]int64, n)
	out := make([]models.Character, n)
	for i, c := range characters {
		out[i] = c
		nameIndex[c.Name] = int64(i)
	}

	g := simple.NewWeightedUndirectedGraph(0, 0)
	for i := range out {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, r := range relations {
		from, okFrom := nameIndex[r.From]
		to, okTo := nameIndex[r.To]
		if !okFrom || !okTo || from == to {
			continue
		}
		w := r.Strength
		if existing := g.WeightedEdge(from, to); existing != nil {
			w += existing.Weight()
		}
		g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(from), T: simple.Node(to), W: w})
	}

	weightedDegree := make([]float64, n)
	for i := range out {
		nodeID := int64(i)
		it := g.From(nodeID)
		for it.Next() {
			other := it.Node().ID()
			if e := g.WeightedEdge(nodeID, other); e != nil {
				weightedDegree[i] += e.Weight()
			}
		}
	}
	maxDegree := 0.0
	for _, d := range weightedDegree {
		if d > maxDegree {
			maxDegree = d
		}
	}

	maxMentions := 0
	chapterCount := len(novel.Chapters)
	for _, c := range out {
		if c.MentionCount > maxMentions {
			maxMentions = c.MentionCount
		}
	}

	chaptersPresent := presenceCounts(novel, out)

	for i := range out {
		degreeCentrality := 0.0
		if maxDegree > 0 {
			degreeCentrality = weightedDegree[i] / maxDegree
		}

		normalizedMentions := 0.0
		if maxMentions > 0 {
			normalizedMentions = float64(out[i].MentionCount) / float64(maxMentions)
		}

		presenceFraction := 0.0
		if chapterCount > 0 {
			presenceFraction = float64(chaptersPresent[out[i].Name]) / float64(chapterCount)
		}

		importance := 0.5*normalizedMentions + 0.3*degreeCentrality + 0.2*presenceFraction

		out[i].DegreeCentrality = degreeCentrality
		out[i].Importance = importance

		thetaMain := a.thresholds.ThetaMain
		presenceRatio := a.thresholds.MainChapterPresenceRatio
		if importance >= thetaMain || presenceFraction >= presenceRatio {
			out[i].Classification = models.ClassificationMain
		} else {
			out[i].Classification = models.ClassificationSupporting
		}
	}

	communities := detectCommunities(g, out)
	for _, comm := range communities {
		for _, idx := range comm.memberIdx {
			out[idx].CommunityID = comm.id
		}
	}

	result := make([]models.Community, 0, len(communities))
	for _, comm := range communities {
		members := make([]string, 0, len(comm.memberIdx))
		for _, idx := range comm.memberIdx {
			members = append(members, out[idx].Name)
		}
		result = append(result, models.Community{ID: comm.id, Members: members})
	}

	return out, result
}

func presenceCounts(novel *models.Novel, characters []models.Character) map[string]int {
	aliasToCanonical := map[string]string{}
	for _, c := range characters {
		for _, alias := range c.Aliases {
			aliasToCanonical[alias] = c.Name
		}
	}
	counts := map[string]int{}
	for _, ch := range novel.Chapters {
		seen := map[string]struct{}{}
		for _, s := range ch.Sentences {
			for _, tok := range s.Tokens {
				if canon, ok := aliasToCanonical[tok.Text]; ok {
					seen[canon] = struct{}{}
				}
			}
		}
		for name := range seen {
			counts[name]++
		}
	}
	return counts
}

type communityGroup struct {
	id        int
	memberIdx []int64
}

// detectCommunities runs greedy modularity optimization over the relation
// graph via gonum/graph/community. A deterministic source keeps detection
// reproducible across runs of the same input.
func detectCommunities(g graph.Graph, characters []models.Character) []communityGroup {
	if g.Nodes().Len() == 0 {
		return nil
	}
	src := rand.NewSource(1)
	reduced := community.Modularize(g, 1.0, src)
	structure := reduced.Structure()

	groups := make([]communityGroup, 0, len(structure))
	for id, nodes := range structure {
		idx := make([]int64, 0, len(nodes))
		for _, n := range nodes {
			idx = append(idx, n.ID())
		}
		groups = append(groups, communityGroup{id: id, memberIdx: idx})
	}
	return groups
}
