// Package state implements StateTracker: dense per-chapter tracking of
// four state axes for main characters, with transitions tied to the
// triggering event.
package state

import (
	"sort"
	"strings"

	"github.com/corphon/novelgraph/internal/config"
	"github.com/corphon/novelgraph/internal/lexicon"
	"github.com/corphon/novelgraph/internal/models"
)

const initialValue = 0.5

// Tracker maintains the four state axes for every main character across
// the chapters it appears in.
type Tracker struct {
	lex        *lexicon.Lexicon
	thresholds config.Thresholds
}

// NewTracker builds a Tracker against lex and the given thresholds.
func NewTracker(lex *lexicon.Lexicon, thresholds config.Thresholds) *Tracker {
	return &Tracker{lex: lex, thresholds: thresholds}
}

// Result bundles StateTracker's output.
type Result struct {
	States      []models.CharacterState
	Transitions []models.StateTransition
}

// Track computes dense per-chapter state snapshots and transitions for
// every main character.
func (t *Tracker) Track(novel *models.Novel, characters []models.Character, events []models.Event) Result {
	aliasToCanonical := map[string]string{}
	for _, c := range characters {
		for _, alias := range c.Aliases {
			aliasToCanonical[alias] = c.Name
		}
	}

	maxChapter := 0
	for _, ch := range novel.Chapters {
		if ch.Index > maxChapter {
			maxChapter = ch.Index
		}
	}

	sentencesByChapter := map[int]models.Chapter{}
	for _, ch := range novel.Chapters {
		sentencesByChapter[ch.Index] = ch
	}

	eventsByChapter := map[int][]models.Event{}
	for _, e := range events {
		eventsByChapter[e.Chapter] = append(eventsByChapter[e.Chapter], e)
	}

	var states []models.CharacterState
	var transitions []models.StateTransition

	for _, c := range characters {
		if c.Classification != models.ClassificationMain {
			continue
		}

		values := map[models.StateAxis]float64{}
		for _, axis := range models.StateAxes {
			values[axis] = initialValue
		}
		lastChangeChapter := map[models.StateAxis]int{}
		for _, axis := range models.StateAxes {
			lastChangeChapter[axis] = c.FirstAppearance
		}

		for ch := c.FirstAppearance; ch <= maxChapter; ch++ {
			chapter, exists := sentencesByChapter[ch]
			present := exists && characterAppears(chapter, c.Name, aliasToCanonical)

			deltas := map[models.StateAxis]float64{}
			var triggerEventID string

			if present {
				for _, s := range chapter.Sentences {
					if !sentenceMentions(s, c.Name, aliasToCanonical) {
						continue
					}
					for _, eff := range t.lex.StateEffects {
						if strings.Contains(s.Text, eff.Keyword) {
							deltas[models.StateAxis(eff.Axis)] += eff.Delta
						}
					}
				}
			}

			for _, axis := range models.StateAxes {
				delta := clamp(deltas[axis], -0.5, 0.5)
				oldValue := values[axis]
				newValue := clamp(oldValue+delta, 0, 1)
				values[axis] = newValue

				if present && absf(delta) > t.thresholds.StateChangeThreshold {
					if triggerEventID == "" {
						triggerEventID = highestImportanceEvent(eventsByChapter[ch], c.Name)
					}
					transitions = append(transitions, models.StateTransition{
						Character:    c.Name,
						Axis:         axis,
						FromChapter:  lastChangeChapter[axis],
						ToChapter:    ch,
						Delta:        delta,
						CauseEventID: triggerEventID,
					})
					lastChangeChapter[axis] = ch
				}

				states = append(states, models.CharacterState{
					Character:         c.Name,
					Chapter:           ch,
					Axis:              axis,
					Value:             newValue,
					TriggeringEventID: triggerEventID,
				})
			}
		}
	}

	sort.Slice(states, func(i, j int) bool {
		if states[i].Character != states[j].Character {
			return states[i].Character < states[j].Character
		}
		if states[i].Chapter != states[j].Chapter {
			return states[i].Chapter < states[j].Chapter
		}
		return states[i].Axis < states[j].Axis
	})

	return Result{States: states, Transitions: transitions}
}

func characterAppears(ch models.Chapter, canonical string, aliasToCanonical map[string]string) bool {
	for _, s := range ch.Sentences {
		if sentenceMentions(s, canonical, aliasToCanonical) {
			return true
		}
	}
	return false
}

func sentenceMentions(s models.Sentence, canonical string, aliasToCanonical map[string]string) bool {
	for _, tok := range s.Tokens {
		if aliasToCanonical[tok.Text] == canonical {
			return true
		}
	}
	return false
}

func highestImportanceEvent(events []models.Event, character string) string {
	best := ""
	bestImportance := -1.0
	for _, e := range events {
		found := false
		for _, p := range e.Participants {
			if p == character {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		if e.ImportanceScore > bestImportance {
			bestImportance = e.ImportanceScore
			best = e.ID
		}
	}
	return best
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
