// Package services – Generator
//
// This file implements AI-assisted article generation. The text-generation
// backend is an optional collaborator decided at startup: when absent or
// failing, generation degrades to placeholder content and the article is
// still created. The title is extracted from the first markdown heading,
// falling back to the first non-blank line, then to a generated placeholder.
package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

// TextGenerator produces markdown text for a prompt. Implementations wrap
// the external AI backend; a nil TextGenerator means the collaborator is
// absent.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Generator creates published articles from AI-generated markdown.
type Generator struct {
	Articles *ArticleService
	AI       TextGenerator // nil when the collaborator is not configured
	Log      zerolog.Logger

	titleCaser cases.Caser
}

// NewGenerator constructs a Generator. ai may be nil.
func NewGenerator(articles *ArticleService, ai TextGenerator, log zerolog.Logger) *Generator {
	return &Generator{
		Articles:   articles,
		AI:         ai,
		Log:        log,
		titleCaser: cases.Title(language.English),
	}
}

// Generate produces one published markdown article attributed to the given
// author (falling back to "AI Bot" when no name is supplied). AI failure is
// non-fatal: the article is created with placeholder content.
func (g *Generator) Generate(ctx context.Context, authorID, authorName string) (*domain.Article, error) {
	today := nowUTC().Format("2006-01-02")
	content := g.generateContent(ctx, buildPrompt(today), today)

	title := extractTitle(content)
	if title == "" {
		title = g.titleCaser.String("auto article ") + today
	}
	if authorName == "" {
		authorName = "AI Bot"
	}

	return g.Articles.Create(ctx, CreateInput{
		Title:         title,
		Content:       content,
		Status:        domain.StatusPublished,
		ContentFormat: domain.FormatMarkdown,
		AuthorID:      authorID,
		AuthorName:    authorName,
	})
}

func (g *Generator) generateContent(ctx context.Context, prompt, today string) string {
	if g.AI == nil {
		g.Log.Info().Msg("AI collaborator absent, using placeholder content")
		return placeholderContent(today)
	}
	content, err := g.AI.Generate(ctx, prompt)
	if err != nil || strings.TrimSpace(content) == "" {
		g.Log.Warn().Err(err).Msg("AI generation failed, using placeholder content")
		return placeholderContent(today)
	}
	return content
}

func buildPrompt(today string) string {
	return fmt.Sprintf("Produce a timely, well-structured markdown article (~700-1200 words) "+
		"summarizing the most important recent technology updates as of %s. "+
		"Cover key areas: AI/ML advances, major cloud provider announcements, developer tooling "+
		"or frameworks updates, and an actionable takeaway for engineers or product builders. "+
		"Start with a clear H1 title line (\"# Title\") followed by a 2-3 sentence summary, then "+
		"3-5 sections with headings and short paragraphs, and finish with a short conclusion and "+
		"suggested further reading links (if any). Output only valid markdown.", today)
}

func placeholderContent(today string) string {
	return fmt.Sprintf("# %s - Auto Article\n\nThis is an auto-generated sample article created on %s.", today, today)
}

// headingRE matches a markdown ATX heading of any level.
var headingRE = regexp.MustCompile(`^#{1,6}\s+(.*)`)

// extractTitle pulls a sensible title out of markdown: the first heading of
// any level, otherwise the first non-blank line truncated to 80 runes.
// Returns "" when the text yields nothing usable.
func extractTitle(md string) string {
	var firstLine string
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		if m := headingRE.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "" {
			return strings.TrimSpace(m[1])
		}
		if firstLine == "" {
			firstLine = line
		}
	}
	if firstLine == "" {
		return ""
	}
	runes := []rune(firstLine)
	if len(runes) > 80 {
		return string(runes[:77]) + "..."
	}
	return firstLine
}
