package graphstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	appErrors "github.com/corphon/novelgraph/internal/errors"
	"github.com/corphon/novelgraph/internal/models"
	"github.com/corphon/novelgraph/internal/utils"
)

// Neo4jStore projects an AnalysisBundle onto Neo4j per the node/edge table:
// Novel, Chapter, Character, Event, Location, Emotion and State nodes keyed
// by (novel_id, ...), connected by HAS_CHAPTER, APPEARS_IN, KNOWS,
// PARTICIPATES_IN, HAPPENS_AT, NEXT, CAUSES, SUB_EVENT_OF, EMOTION_TOWARDS
// and VISITS edges.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore wraps an already-open driver. database may be "" for the
// server default.
func NewNeo4jStore(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{driver: driver, database: database}
}

// EnsureSchema creates the uniqueness constraints the upsert queries rely
// on for idempotent MERGE.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (n:Novel) REQUIRE n.id IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (c:Chapter) REQUIRE (c.novel_id, c.index) IS NODE KEY",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (c:Character) REQUIRE (c.novel_id, c.name) IS NODE KEY",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (e:Event) REQUIRE (e.novel_id, e.event_id) IS NODE KEY",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (l:Location) REQUIRE (l.novel_id, l.name) IS NODE KEY",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (em:Emotion) REQUIRE (em.novel_id, em.chapter) IS NODE KEY",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (st:State) REQUIRE (st.novel_id, st.character, st.chapter, st.axis) IS NODE KEY",
	}
	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	cfg := neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite}
	if s.database != "" {
		cfg.DatabaseName = s.database
	}
	return s.driver.NewSession(ctx, cfg)
}

// UpsertBundle deletes every node carrying this novel_id and rewrites the
// whole projection inside a single explicit transaction, so a re-run is
// idempotent and a failure midway leaves the prior write untouched.
func (s *Neo4jStore) UpsertBundle(ctx context.Context, novelID string, novel *models.Novel, bundle *models.AnalysisBundle) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := deleteNovelSubgraph(ctx, tx, novelID); err != nil {
			return nil, err
		}
		if err := writeNovelAndChapters(ctx, tx, novelID, novel); err != nil {
			return nil, err
		}
		if err := writeCharacters(ctx, tx, novelID, bundle.Characters); err != nil {
			return nil, err
		}
		if err := writeRelations(ctx, tx, novelID, bundle.Relations); err != nil {
			return nil, err
		}
		if err := writeLocations(ctx, tx, novelID, bundle.Locations); err != nil {
			return nil, err
		}
		if err := writeEvents(ctx, tx, novelID, bundle.Events); err != nil {
			return nil, err
		}
		if err := writeCausalAndNextLinks(ctx, tx, novelID, bundle.Events, bundle.CausalLinks); err != nil {
			return nil, err
		}
		if err := writeLocationVisits(ctx, tx, novelID, bundle.Visits); err != nil {
			return nil, err
		}
		if err := writeEmotions(ctx, tx, novelID, bundle.ChapterEmotions, bundle.CharacterEmotions); err != nil {
			return nil, err
		}
		if err := writeStates(ctx, tx, novelID, bundle.States); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		utils.GetLogger().Error("graph store upsert failed", map[string]interface{}{"novel_id": novelID, "error": err.Error()})
		return appErrors.NewGraphStoreError("failed to write bundle to graph store", err)
	}
	return nil
}

func deleteNovelSubgraph(ctx context.Context, tx neo4j.ManagedTransaction, novelID string) error {
	_, err := tx.Run(ctx, `
		MATCH (n {novel_id: $novel_id})
		DETACH DELETE n
	`, map[string]any{"novel_id": novelID})
	if err != nil {
		return fmt.Errorf("delete prior subgraph: %w", err)
	}
	// Novel itself is keyed by id, not novel_id.
	_, err = tx.Run(ctx, `MATCH (n:Novel {id: $id}) DETACH DELETE n`, map[string]any{"id": novelID})
	if err != nil {
		return fmt.Errorf("delete prior novel node: %w", err)
	}
	return nil
}

func writeNovelAndChapters(ctx context.Context, tx neo4j.ManagedTransaction, novelID string, novel *models.Novel) error {
	_, err := tx.Run(ctx, `
		MERGE (n:Novel {id: $id})
		SET n.title = $title, n.author = $author
	`, map[string]any{"id": novelID, "title": novel.Title, "author": novel.Author})
	if err != nil {
		return fmt.Errorf("upsert novel: %w", err)
	}

	for _, ch := range novel.Chapters {
		_, err := tx.Run(ctx, `
			MATCH (n:Novel {id: $novel_id})
			MERGE (c:Chapter {novel_id: $novel_id, index: $index})
			SET c.title = $title, c.word_count = $word_count
			MERGE (n)-[:HAS_CHAPTER]->(c)
		`, map[string]any{
			"novel_id":   novelID,
			"index":      ch.Index,
			"title":      ch.Title,
			"word_count": ch.WordCount(),
		})
		if err != nil {
			return fmt.Errorf("upsert chapter %d: %w", ch.Index, err)
		}
	}
	return nil
}

func writeCharacters(ctx context.Context, tx neo4j.ManagedTransaction, novelID string, characters []models.Character) error {
	for _, c := range characters {
		_, err := tx.Run(ctx, `
			MERGE (c:Character {novel_id: $novel_id, name: $name})
			SET c.aliases = $aliases,
			    c.importance = $importance,
			    c.degree_centrality = $degree_centrality,
			    c.mention_count = $mention_count,
			    c.first_appearance = $first_appearance,
			    c.classification = $classification
			WITH c
			MATCH (ch:Chapter {novel_id: $novel_id, index: $first_appearance})
			MERGE (c)-[:APPEARS_IN]->(ch)
		`, map[string]any{
			"novel_id":          novelID,
			"name":              c.Name,
			"aliases":           c.Aliases,
			"importance":        c.Importance,
			"degree_centrality": c.DegreeCentrality,
			"mention_count":     c.MentionCount,
			"first_appearance":  c.FirstAppearance,
			"classification":    string(c.Classification),
		})
		if err != nil {
			return fmt.Errorf("upsert character %s: %w", c.Name, err)
		}
	}
	return nil
}

func writeRelations(ctx context.Context, tx neo4j.ManagedTransaction, novelID string, relations []models.Relation) error {
	for _, r := range relations {
		_, err := tx.Run(ctx, `
			MATCH (a:Character {novel_id: $novel_id, name: $from})
			MATCH (b:Character {novel_id: $novel_id, name: $to})
			MERGE (a)-[k:KNOWS]->(b)
			SET k.type = $type, k.strength = $strength
		`, map[string]any{
			"novel_id": novelID,
			"from":     r.From,
			"to":       r.To,
			"type":     string(r.Type),
			"strength": r.Strength,
		})
		if err != nil {
			return fmt.Errorf("upsert relation %s->%s: %w", r.From, r.To, err)
		}
	}
	return nil
}

func writeLocations(ctx context.Context, tx neo4j.ManagedTransaction, novelID string, locations []models.Location) error {
	for _, l := range locations {
		_, err := tx.Run(ctx, `
			MERGE (l:Location {novel_id: $novel_id, name: $name})
			SET l.type = $type, l.importance = $importance, l.event_count = $event_count
		`, map[string]any{
			"novel_id":    novelID,
			"name":        l.Name,
			"type":        string(l.Type),
			"importance":  l.Importance,
			"event_count": l.EventCount,
		})
		if err != nil {
			return fmt.Errorf("upsert location %s: %w", l.Name, err)
		}
	}
	return nil
}

func writeEvents(ctx context.Context, tx neo4j.ManagedTransaction, novelID string, events []models.Event) error {
	for _, e := range events {
		_, err := tx.Run(ctx, `
			MERGE (e:Event {novel_id: $novel_id, event_id: $event_id})
			SET e.description = $description,
			    e.chapter = $chapter,
			    e.sequence = $sequence,
			    e.event_type = $event_type,
			    e.importance_score = $importance_score,
			    e.contribution_score = $contribution_score
		`, map[string]any{
			"novel_id":            novelID,
			"event_id":            e.ID,
			"description":         e.Description,
			"chapter":             e.Chapter,
			"sequence":            e.Sequence,
			"event_type":          string(e.Type),
			"importance_score":    e.ImportanceScore,
			"contribution_score":  e.ContributionScore,
		})
		if err != nil {
			return fmt.Errorf("upsert event %s: %w", e.ID, err)
		}

		for _, p := range e.Participants {
			_, err := tx.Run(ctx, `
				MATCH (c:Character {novel_id: $novel_id, name: $name})
				MATCH (e:Event {novel_id: $novel_id, event_id: $event_id})
				MERGE (c)-[:PARTICIPATES_IN]->(e)
			`, map[string]any{"novel_id": novelID, "name": p, "event_id": e.ID})
			if err != nil {
				return fmt.Errorf("link participant %s to event %s: %w", p, e.ID, err)
			}
		}

		if e.Location != "" {
			_, err := tx.Run(ctx, `
				MATCH (e:Event {novel_id: $novel_id, event_id: $event_id})
				MATCH (l:Location {novel_id: $novel_id, name: $location})
				MERGE (e)-[:HAPPENS_AT]->(l)
			`, map[string]any{"novel_id": novelID, "event_id": e.ID, "location": e.Location})
			if err != nil {
				return fmt.Errorf("link event %s to location %s: %w", e.ID, e.Location, err)
			}
		}

		if e.ParentID != "" {
			_, err := tx.Run(ctx, `
				MATCH (child:Event {novel_id: $novel_id, event_id: $child_id})
				MATCH (parent:Event {novel_id: $novel_id, event_id: $parent_id})
				MERGE (child)-[:SUB_EVENT_OF]->(parent)
			`, map[string]any{"novel_id": novelID, "child_id": e.ID, "parent_id": e.ParentID})
			if err != nil {
				return fmt.Errorf("link sub-event %s to %s: %w", e.ID, e.ParentID, err)
			}
		}
	}

	for i := 1; i < len(events); i++ {
		_, err := tx.Run(ctx, `
			MATCH (a:Event {novel_id: $novel_id, event_id: $prev})
			MATCH (b:Event {novel_id: $novel_id, event_id: $cur})
			MERGE (a)-[:NEXT]->(b)
		`, map[string]any{"novel_id": novelID, "prev": events[i-1].ID, "cur": events[i].ID})
		if err != nil {
			return fmt.Errorf("link NEXT %s->%s: %w", events[i-1].ID, events[i].ID, err)
		}
	}
	return nil
}

func writeCausalAndNextLinks(ctx context.Context, tx neo4j.ManagedTransaction, novelID string, events []models.Event, links []models.CausalLink) error {
	_ = events
	for _, link := range links {
		_, err := tx.Run(ctx, `
			MATCH (a:Event {novel_id: $novel_id, event_id: $cause})
			MATCH (b:Event {novel_id: $novel_id, event_id: $effect})
			MERGE (a)-[r:CAUSES]->(b)
			SET r.strength = $strength
		`, map[string]any{
			"novel_id": novelID,
			"cause":    link.CauseEventID,
			"effect":   link.EffectEventID,
			"strength": link.Strength,
		})
		if err != nil {
			return fmt.Errorf("upsert causal link %s->%s: %w", link.CauseEventID, link.EffectEventID, err)
		}
	}
	return nil
}

func writeLocationVisits(ctx context.Context, tx neo4j.ManagedTransaction, novelID string, visits []models.CharacterLocationVisit) error {
	type visitKey struct{ character, location string }
	totals := map[visitKey]int{}
	for _, v := range visits {
		totals[visitKey{v.Character, v.Location}] += v.VisitCount
	}
	for key, count := range totals {
		_, err := tx.Run(ctx, `
			MATCH (c:Character {novel_id: $novel_id, name: $character})
			MATCH (l:Location {novel_id: $novel_id, name: $location})
			MERGE (c)-[v:VISITS]->(l)
			SET v.visit_count = $visit_count
		`, map[string]any{
			"novel_id":    novelID,
			"character":   key.character,
			"location":    key.location,
			"visit_count": count,
		})
		if err != nil {
			return fmt.Errorf("upsert visit %s->%s: %w", key.character, key.location, err)
		}
	}
	return nil
}

func writeEmotions(ctx context.Context, tx neo4j.ManagedTransaction, novelID string, chapterEmotions []models.ChapterEmotion, characterEmotions []models.CharacterEmotion) error {
	for _, ce := range chapterEmotions {
		_, err := tx.Run(ctx, `
			MATCH (ch:Chapter {novel_id: $novel_id, index: $chapter})
			MERGE (em:Emotion {novel_id: $novel_id, chapter: $chapter})
			SET em.sentiment = $sentiment, em.distribution = $distribution
			MERGE (em)-[:OF_CHAPTER]->(ch)
		`, map[string]any{
			"novel_id":     novelID,
			"chapter":      ce.Chapter,
			"sentiment":    ce.Sentiment,
			"distribution": distributionJSON(ce.Distribution),
		})
		if err != nil {
			return fmt.Errorf("upsert chapter emotion %d: %w", ce.Chapter, err)
		}
	}

	for _, cemo := range characterEmotions {
		_, err := tx.Run(ctx, `
			MATCH (a:Character {novel_id: $novel_id, name: $source})
			MATCH (b:Character {novel_id: $novel_id, name: $target})
			MERGE (a)-[r:EMOTION_TOWARDS {chapter: $chapter}]->(b)
			SET r.type = $type, r.intensity = $intensity
		`, map[string]any{
			"novel_id":  novelID,
			"source":    cemo.Source,
			"target":    cemo.Target,
			"chapter":   cemo.Chapter,
			"type":      string(cemo.Type),
			"intensity": cemo.Intensity,
		})
		if err != nil {
			return fmt.Errorf("upsert character emotion %s->%s: %w", cemo.Source, cemo.Target, err)
		}
	}
	return nil
}

func writeStates(ctx context.Context, tx neo4j.ManagedTransaction, novelID string, states []models.CharacterState) error {
	for _, st := range states {
		_, err := tx.Run(ctx, `
			MATCH (c:Character {novel_id: $novel_id, name: $character})
			MERGE (s:State {novel_id: $novel_id, character: $character, chapter: $chapter, axis: $axis})
			SET s.value = $value
			MERGE (c)-[:HAS_STATE]->(s)
		`, map[string]any{
			"novel_id":  novelID,
			"character": st.Character,
			"chapter":   st.Chapter,
			"axis":      string(st.Axis),
			"value":     st.Value,
		})
		if err != nil {
			return fmt.Errorf("upsert state %s/%s@%d: %w", st.Character, st.Axis, st.Chapter, err)
		}
	}
	return nil
}

// distributionJSON flattens an emotion-category distribution into a flat
// list of alternating category and value, since Neo4j properties cannot
// nest maps.
func distributionJSON(dist map[models.EmotionCategory]float64) []any {
	out := make([]any, 0, len(dist)*2)
	for _, cat := range models.EmotionCategories {
		out = append(out, string(cat), dist[cat])
	}
	return out
}
