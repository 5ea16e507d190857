// Package pipeline wires the nine analysis stages into the sequential
// Orchestrator and tracks progress of each run.
package pipeline

import (
	"context"

	"github.com/corphon/novelgraph/internal/character"
	"github.com/corphon/novelgraph/internal/config"
	"github.com/corphon/novelgraph/internal/emotion"
	"github.com/corphon/novelgraph/internal/entity"
	"github.com/corphon/novelgraph/internal/errors"
	"github.com/corphon/novelgraph/internal/event"
	"github.com/corphon/novelgraph/internal/graphstore"
	"github.com/corphon/novelgraph/internal/lexicon"
	"github.com/corphon/novelgraph/internal/location"
	"github.com/corphon/novelgraph/internal/models"
	"github.com/corphon/novelgraph/internal/relation"
	"github.com/corphon/novelgraph/internal/state"
	"github.com/corphon/novelgraph/internal/textproc"
	"github.com/corphon/novelgraph/internal/timeline"
	"github.com/corphon/novelgraph/internal/utils"
)

// stage progress checkpoints, cumulative, matching the weights in §2.
const (
	progressTextProcessor   = 10
	progressEntityExtractor = 22
	progressRelation        = 34
	progressCharacter       = 46
	progressEvent           = 58
	progressTimeline        = 72
	progressLocation        = 80
	progressEmotion         = 90
	progressState           = 100
)

// Orchestrator runs the nine stages in order and writes the resulting
// bundle to the injected graph store. It holds no mutable state beyond the
// read-only lexicon, so one Orchestrator value is safe to reuse across
// concurrent analyses of distinct novels.
type Orchestrator struct {
	lex   *lexicon.Lexicon
	store graphstore.Store

	textproc  *textproc.Processor
	entity    *entity.Extractor
	relation  *relation.Extractor
	character *character.Analyzer
	event     *event.Analyzer
	timeline  *timeline.Analyzer
	location  *location.Analyzer
	emotion   *emotion.Analyzer
	state     *state.Tracker
}

// New builds an Orchestrator against lex, thresholds and store.
func New(lex *lexicon.Lexicon, thresholds config.Thresholds, store graphstore.Store) *Orchestrator {
	return &Orchestrator{
		lex:   lex,
		store: store,

		textproc:  textproc.NewProcessor(lex),
		entity:    entity.NewExtractor(lex, thresholds),
		relation:  relation.NewExtractor(lex, thresholds),
		character: character.NewAnalyzer(thresholds),
		event:     event.NewAnalyzer(lex, thresholds),
		timeline:  timeline.NewAnalyzer(lex, thresholds),
		location:  location.NewAnalyzer(),
		emotion:   emotion.NewAnalyzer(lex, thresholds),
		state:     state.NewTracker(lex, thresholds),
	}
}

// Analyze runs the full pipeline over novel, reporting progress through
// tracker (may be nil) and honoring ctx cancellation between stages. A
// degenerate novel that yields no characters terminates successfully with
// an empty-but-marked bundle. Any other stage error aborts the pipeline
// and is returned as a StageFailure; a graph-store write failure after a
// successful in-memory run is not fatal — the bundle is still returned,
// with Persisted=false.
func (o *Orchestrator) Analyze(ctx context.Context, novel *models.Novel, tracker *ProgressTracker) (*models.AnalysisBundle, error) {
	if novel == nil || len(novel.Chapters) == 0 {
		return nil, errors.NewInvalidInput("novel must contain at least one chapter", nil)
	}

	log := utils.GetLogger()
	log.Info("starting analysis", map[string]interface{}{"novel_id": novel.ID, "chapters": len(novel.Chapters)})

	// Stage 1: TextProcessor.
	totalWords := 0
	for i := range novel.Chapters {
		sentences, err := o.textproc.Process(novel.Chapters[i].Text)
		if err != nil {
			if errors.Is(err, errors.KindInvalidInput) {
				continue // an individual blank chapter does not invalidate the novel
			}
			return nil, errors.NewStageFailure("TextProcessor", "failed to tokenize chapter", err)
		}
		novel.Chapters[i].Sentences = sentences
		totalWords += novel.Chapters[i].WordCount()
	}
	report(tracker, progressTextProcessor, "TextProcessor")
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	// Stage 2: EntityExtractor.
	characters, locations, err := o.entity.Extract(novel)
	if err != nil {
		if errors.Is(err, errors.KindNoEntitiesFound) {
			log.Info("no entities found, returning empty bundle", map[string]interface{}{"novel_id": novel.ID})
			bundle := emptyBundle(novel, totalWords)
			return o.persist(ctx, novel, bundle), nil
		}
		return nil, errors.NewStageFailure("EntityExtractor", "failed to extract entities", err)
	}
	report(tracker, progressEntityExtractor, "EntityExtractor")
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	// Stage 3: RelationExtractor.
	relations := o.relation.Extract(novel, characters)
	report(tracker, progressRelation, "RelationExtractor")
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	// Stage 4: CharacterAnalyzer.
	characters, communities := o.character.Analyze(novel, characters, relations)
	report(tracker, progressCharacter, "CharacterAnalyzer")
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	// Stage 5: EventAnalyzer.
	events := o.event.Analyze(novel, characters, locations)
	report(tracker, progressEvent, "EventAnalyzer")
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	// Stage 6: TimelineAnalyzer.
	timelineResult := o.timeline.Analyze(events, characters)
	report(tracker, progressTimeline, "TimelineAnalyzer")
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	// Stage 7: LocationAnalyzer.
	locationResult := o.location.Analyze(timelineResult.Events, locations)
	report(tracker, progressLocation, "LocationAnalyzer")
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	// Stage 8: EmotionAnalyzer.
	emotionResult := o.emotion.Analyze(novel, characters)
	report(tracker, progressEmotion, "EmotionAnalyzer")
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	// Stage 9: StateTracker.
	stateResult := o.state.Track(novel, characters, timelineResult.Events)
	report(tracker, progressState, "StateTracker")

	bundle := &models.AnalysisBundle{
		NovelID: novel.ID,
		Title:   novel.Title,
		Statistics: models.Statistics{
			Chapters:       len(novel.Chapters),
			Words:          totalWords,
			Characters:     len(characters),
			Relations:      len(relations),
			Events:         len(timelineResult.Events),
			Locations:      len(locationResult.Locations),
			MainPlotEvents: len(timelineResult.MainPlotEventIDs),
		},
		Characters:        characters,
		Relations:         relations,
		Communities:       communities,
		Events:            timelineResult.Events,
		CausalLinks:       timelineResult.CausalLinks,
		MainPlotEventIDs:  timelineResult.MainPlotEventIDs,
		Locations:         locationResult.Locations,
		Visits:            locationResult.Visits,
		SceneTransitions:  locationResult.SceneTransitions,
		ChapterEmotions:   emotionResult.ChapterEmotions,
		CharacterEmotions: emotionResult.CharacterEmotions,
		EmotionalPeaks:    emotionResult.Peaks,
		States:            stateResult.States,
		StateTransitions:  stateResult.Transitions,
	}

	return o.persist(ctx, novel, bundle), nil
}

// persist writes bundle to the graph store. A write failure does not fail
// the analysis; it only flags the bundle unpersisted.
func (o *Orchestrator) persist(ctx context.Context, novel *models.Novel, bundle *models.AnalysisBundle) *models.AnalysisBundle {
	if o.store == nil {
		return bundle
	}
	if err := o.store.UpsertBundle(ctx, novel.ID, novel, bundle); err != nil {
		utils.GetLogger().Error("graph store write failed, bundle not persisted", map[string]interface{}{"novel_id": novel.ID, "error": err.Error()})
		bundle.Persisted = false
		return bundle
	}
	bundle.Persisted = true
	return bundle
}

func emptyBundle(novel *models.Novel, totalWords int) *models.AnalysisBundle {
	return &models.AnalysisBundle{
		NovelID: novel.ID,
		Title:   novel.Title,
		Statistics: models.Statistics{
			Chapters: len(novel.Chapters),
			Words:    totalWords,
		},
	}
}

func report(tracker *ProgressTracker, progress int, stage string) {
	if tracker != nil {
		tracker.Update(progress, stage)
	}
}

func checkCancel(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.NewCancelled("analysis was cancelled")
	}
	return nil
}
