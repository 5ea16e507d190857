// Package ingest turns raw plain-text novel files into models.Novel
// values, splitting on common chapter-heading conventions.
package ingest

import (
	"regexp"
	"strings"

	"github.com/corphon/novelgraph/internal/errors"
	"github.com/corphon/novelgraph/internal/models"
)

// chapterHeading matches the common Chinese chapter-title conventions:
// 第一章, 第12回, 第三节, optionally followed by a title on the same line.
var chapterHeading = regexp.MustCompile(`(?m)^[ \t]*第[0-9一二三四五六七八九十百千]+[章回节].*$`)

// SplitChapters splits raw text into a models.Novel, using chapterHeading
// as the boundary. Text preceding the first heading (front matter) is
// discarded. If no heading is found, the whole text becomes chapter 1.
func SplitChapters(id, title, author, text string) (*models.Novel, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.NewInvalidInput("novel text is empty", nil)
	}

	locs := chapterHeading.FindAllStringIndex(text, -1)
	novel := &models.Novel{ID: id, Title: title, Author: author}

	if len(locs) == 0 {
		novel.Chapters = []models.Chapter{{Index: 1, Title: title, Text: text}}
		return novel, nil
	}

	for i, loc := range locs {
		headingEnd := loc[1]
		bodyStart := headingEnd
		bodyEnd := len(text)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}
		heading := strings.TrimSpace(text[loc[0]:loc[1]])
		body := strings.TrimSpace(text[bodyStart:bodyEnd])
		novel.Chapters = append(novel.Chapters, models.Chapter{
			Index: i + 1,
			Title: heading,
			Text:  body,
		})
	}

	return novel, nil
}
