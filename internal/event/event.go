// Package event implements EventAnalyzer: per-chapter event-candidate
// detection and importance scoring.
package event

import (
	"fmt"
	"strings"

	"github.com/corphon/novelgraph/internal/config"
	"github.com/corphon/novelgraph/internal/lexicon"
	"github.com/corphon/novelgraph/internal/models"
)

// Analyzer detects event candidates per chapter and scores their
// importance.
type Analyzer struct {
	lex        *lexicon.Lexicon
	thresholds config.Thresholds
}

// NewAnalyzer builds an Analyzer against lex and the given thresholds.
func NewAnalyzer(lex *lexicon.Lexicon, thresholds config.Thresholds) *Analyzer {
	return &Analyzer{lex: lex, thresholds: thresholds}
}

// Analyze returns the events detected across every chapter, ordered by
// (chapter, sequence).
func (a *Analyzer) Analyze(novel *models.Novel, characters []models.Character, locations []models.Location) []models.Event {
	aliasToCanonical := map[string]string{}
	for _, c := range characters {
		for _, alias := range c.Aliases {
			aliasToCanonical[alias] = c.Name
		}
	}
	importanceOf := map[string]float64{}
	for _, c := range characters {
		importanceOf[c.Name] = c.Importance
	}
	locationSet := map[string]struct{}{}
	for _, l := range locations {
		locationSet[l.Name] = struct{}{}
	}

	var events []models.Event

	for _, ch := range novel.Chapters {
		sequence := 0
		lastLocation := ""
		n := len(ch.Sentences)

		for i, s := range ch.Sentences {
			if loc := mostRecentLocation(s, locationSet); loc != "" {
				lastLocation = loc
			}

			participants := namesInSentence(s, aliasToCanonical)
			if len(participants) == 0 {
				continue
			}

			verbClass, verbMatched := matchVerbClass(s.Text, a.lex.EventVerbClasses)
			turningPoint := matchesAny(s.Text, a.lex.TurningPointCues)
			if !verbMatched && !turningPoint {
				continue
			}

			eventType := models.EventOther
			verbWeight := 0.0
			if verbMatched {
				eventType = models.EventType(verbClass.EventType)
				verbWeight = verbClass.Weight
			} else if turningPoint {
				eventType = models.EventTurningPoint
			}

			participantMax := 0.0
			for _, p := range participants {
				if v := importanceOf[p]; v > participantMax {
					participantMax = v
				}
			}

			turningBonus := 0.0
			if turningPoint {
				turningBonus = 1.0
			}

			positionBonus := 0.0
			if n > 1 {
				fraction := float64(i) / float64(n-1)
				positionBonus = (abs(fraction-0.5)) * 2
			}

			importance := 0.4*participantMax + 0.3*verbWeight + 0.2*turningBonus + 0.1*positionBonus

			timeMarker := firstMatch(s.Text, a.lex.AbsoluteTimeCues)
			if timeMarker == "" {
				timeMarker = firstMatch(s.Text, a.lex.RelativeTimeCues)
			}

			events = append(events, models.Event{
				ID:              eventID(novel.ID, ch.Index, sequence),
				Description:     s.Text,
				Chapter:         ch.Index,
				Sequence:        sequence,
				Type:            eventType,
				Participants:    participants,
				Location:        lastLocation,
				ImportanceScore: clamp01(importance),
				TimeMarker:      timeMarker,
			})
			sequence++
		}
	}

	return events
}

// eventID derives a stable identifier from a novel and an event's position
// in its total (chapter, sequence) order, so re-running analysis over the
// same novel produces the same IDs rather than a fresh uuid each time.
func eventID(novelID string, chapter, sequence int) string {
	return fmt.Sprintf("%s-ev-%d-%d", novelID, chapter, sequence)
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

func mostRecentLocation(s models.Sentence, locations map[string]struct{}) string {
	for _, tok := range s.Tokens {
		if tok.POS == "ns" {
			if _, ok := locations[tok.Text]; ok {
				return tok.Text
			}
		}
	}
	return ""
}

func matchVerbClass(text string, classes []lexicon.EventVerbClass) (lexicon.EventVerbClass, bool) {
	for _, c := range classes {
		for _, v := range c.Verbs {
			if strings.Contains(text, v) {
				return c, true
			}
		}
	}
	return lexicon.EventVerbClass{}, false
}

func matchesAny(text string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(text, c) {
			return true
		}
	}
	return false
}

func firstMatch(text string, cues []string) string {
	for _, c := range cues {
		if strings.Contains(text, c) {
			return c
		}
	}
	return ""
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
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
